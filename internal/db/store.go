package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusfix/backend/internal/models"
	"github.com/campusfix/backend/internal/service"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const ticketColumns = `id, category, location_id, area, reporter_id, assignee_id, status, severity,
	closure_policy, description, evidence, otp, otp_verified, work_proof, work_note,
	admin_comment, rating, feedback, history, created_at, assigned_at, resolved_at, closed_at`

func (s *Store) CreateTicket(ctx context.Context, t models.Ticket) error {
	history, err := json.Marshal(t.History)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO tickets (`+ticketColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
	`, t.ID, t.Category, t.LocationID, t.Area, t.ReporterID, t.AssigneeID, t.Status, t.Severity,
		t.ClosurePolicy, t.Description, t.Evidence, t.OTP, t.OTPVerified, t.WorkProof, t.WorkNote,
		t.AdminComment, t.Rating, t.Feedback, history, t.CreatedAt, t.AssignedAt, t.ResolvedAt, t.ClosedAt)
	return err
}

func (s *Store) GetTicket(ctx context.Context, id string) (models.Ticket, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	t, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Ticket{}, service.ErrNotFound
		}
		return models.Ticket{}, err
	}
	return t, nil
}

// UpdateTicketIfStatus is the compare-and-set behind every transition: the
// write only lands while the stored status still equals expected.
func (s *Store) UpdateTicketIfStatus(ctx context.Context, id string, expected models.Status, t models.Ticket) (bool, error) {
	history, err := json.Marshal(t.History)
	if err != nil {
		return false, err
	}
	tag, err := s.Pool.Exec(ctx, `
		UPDATE tickets SET
			assignee_id = $1, status = $2, severity = $3, evidence = $4, otp_verified = $5,
			work_proof = $6, work_note = $7, admin_comment = $8, rating = $9, feedback = $10,
			history = $11, assigned_at = $12, resolved_at = $13, closed_at = $14
		WHERE id = $15 AND status = $16
	`, t.AssigneeID, t.Status, t.Severity, t.Evidence, t.OTPVerified,
		t.WorkProof, t.WorkNote, t.AdminComment, t.Rating, t.Feedback,
		history, t.AssignedAt, t.ResolvedAt, t.ClosedAt, id, expected)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ListTickets(ctx context.Context, status, area, q string, limit, offset int) ([]models.Ticket, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets`
	var args []any
	var wheres []string
	if status != "" {
		args = append(args, status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if area != "" {
		args = append(args, area)
		wheres = append(wheres, fmt.Sprintf("UPPER(TRIM(area)) = UPPER(TRIM($%d))", len(args)))
	}
	if q != "" {
		args = append(args, "%"+q+"%")
		wheres = append(wheres, fmt.Sprintf("(description ILIKE $%d OR id ILIKE $%d)", len(args), len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTicket(row pgx.Row) (models.Ticket, error) {
	var t models.Ticket
	var history []byte
	if err := row.Scan(
		&t.ID, &t.Category, &t.LocationID, &t.Area, &t.ReporterID, &t.AssigneeID, &t.Status, &t.Severity,
		&t.ClosurePolicy, &t.Description, &t.Evidence, &t.OTP, &t.OTPVerified, &t.WorkProof, &t.WorkNote,
		&t.AdminComment, &t.Rating, &t.Feedback, &history, &t.CreatedAt, &t.AssignedAt, &t.ResolvedAt, &t.ClosedAt,
	); err != nil {
		return models.Ticket{}, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &t.History); err != nil {
			return models.Ticket{}, err
		}
	}
	return t, nil
}

func (s *Store) ListEligibleWorkers(ctx context.Context, skill, area string) ([]models.Worker, error) {
	query := `SELECT id, name, skill, area, available, active, current_load, updated_at FROM workers WHERE active = TRUE`
	var args []any
	if skill != "" {
		args = append(args, skill)
		query += fmt.Sprintf(" AND UPPER(TRIM(skill)) = UPPER(TRIM($%d))", len(args))
	}
	if area != "" {
		args = append(args, area)
		query += fmt.Sprintf(" AND UPPER(TRIM(area)) = UPPER(TRIM($%d))", len(args))
	}
	query += " ORDER BY current_load ASC, id ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Worker
	for rows.Next() {
		var w models.Worker
		if err := rows.Scan(&w.ID, &w.Name, &w.Skill, &w.Area, &w.Available, &w.Active, &w.CurrentLoad, &w.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) GetWorker(ctx context.Context, id string) (models.Worker, error) {
	var w models.Worker
	err := s.Pool.QueryRow(ctx, `
		SELECT id, name, skill, area, available, active, current_load, updated_at
		FROM workers WHERE id = $1
	`, id).Scan(&w.ID, &w.Name, &w.Skill, &w.Area, &w.Available, &w.Active, &w.CurrentLoad, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Worker{}, service.ErrNotFound
		}
		return models.Worker{}, err
	}
	return w, nil
}

func (s *Store) AdjustWorkerLoad(ctx context.Context, workerID string, delta int) error {
	_, err := s.Pool.Exec(ctx, `UPDATE workers SET current_load = current_load + $1, updated_at = NOW() WHERE id = $2`, delta, workerID)
	return err
}

func (s *Store) ListServiceableLocations(ctx context.Context, kind string) ([]models.Location, error) {
	query := `SELECT id, name, block, kind, operational FROM locations WHERE operational = TRUE`
	var args []any
	if kind != "" {
		args = append(args, kind)
		query += " AND kind = $1"
	}
	query += " ORDER BY block ASC, id ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Location
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Block, &l.Kind, &l.Operational); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

const taskColumns = `id, location_id, worker_id, scheduled_date, status, assigned_at, started_at, completed_at, notes, proof`

func (s *Store) ListTasksForDate(ctx context.Context, date string) ([]models.RecurringTask, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+taskColumns+` FROM recurring_tasks
		WHERE scheduled_date = $1 ORDER BY location_id ASC
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RecurringTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// InsertTasks writes the batch inside one transaction. The unique index on
// (location_id, scheduled_date) plus ON CONFLICT DO NOTHING makes racing
// distributor runs lose cleanly rather than double-book a location.
func (s *Store) InsertTasks(ctx context.Context, tasks []models.RecurringTask) (int64, error) {
	var inserted int64
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, t := range tasks {
			batch.Queue(`
				INSERT INTO recurring_tasks (`+taskColumns+`)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
				ON CONFLICT (location_id, scheduled_date) DO NOTHING
			`, t.ID, t.LocationID, t.WorkerID, t.ScheduledDate, t.Status, t.AssignedAt, t.StartedAt, t.CompletedAt, t.Notes, t.Proof)
		}
		results := tx.SendBatch(ctx, batch)
		defer results.Close()
		for range tasks {
			tag, err := results.Exec()
			if err != nil {
				return err
			}
			inserted += tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (models.RecurringTask, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM recurring_tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RecurringTask{}, service.ErrNotFound
		}
		return models.RecurringTask{}, err
	}
	return t, nil
}

func (s *Store) UpdateTask(ctx context.Context, t models.RecurringTask) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE recurring_tasks SET
			worker_id = $1, status = $2, assigned_at = $3, started_at = $4,
			completed_at = $5, notes = $6, proof = $7
		WHERE id = $8
	`, t.WorkerID, t.Status, t.AssignedAt, t.StartedAt, t.CompletedAt, t.Notes, t.Proof, t.ID)
	return err
}

func scanTask(row pgx.Row) (models.RecurringTask, error) {
	var t models.RecurringTask
	var date time.Time
	if err := row.Scan(&t.ID, &t.LocationID, &t.WorkerID, &date, &t.Status, &t.AssignedAt, &t.StartedAt, &t.CompletedAt, &t.Notes, &t.Proof); err != nil {
		return models.RecurringTask{}, err
	}
	t.ScheduledDate = date.Format(models.DateOnly)
	return t, nil
}
