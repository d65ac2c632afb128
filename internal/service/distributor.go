package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campusfix/backend/internal/models"
	"github.com/campusfix/backend/internal/notify"
)

// Distributor produces the daily recurring cleaning tasks. Run is the single
// entry point invoked by an external scheduler; it is idempotent per date
// and safe to re-trigger.
type Distributor struct {
	Tasks     TaskStore
	Locations LocationStore
	Workers   WorkerDirectory
	Sink      notify.Sink
	Logger    zerolog.Logger
}

// RunSummary reports one distribution pass. Unassignable locations are a
// soft outcome counted here, never an error that aborts the batch.
type RunSummary struct {
	Date              string   `json:"date"`
	Created           int      `json:"created"`
	AlreadyCovered    int      `json:"already_covered"`
	Uncovered         int      `json:"uncovered"`
	WorkersInvolved   int      `json:"workers_involved"`
	FallbackBlocks    []string `json:"fallback_blocks,omitempty"`
	DuplicatesSkipped int      `json:"duplicates_skipped"`
}

func (d *Distributor) Run(ctx context.Context, date string) (RunSummary, error) {
	if _, err := time.Parse(models.DateOnly, date); err != nil {
		return RunSummary{}, wrap(ErrValidation, "date must be YYYY-MM-DD")
	}
	summary := RunSummary{Date: date}

	existing, err := d.Tasks.ListTasksForDate(ctx, date)
	if err != nil {
		return summary, err
	}
	covered := make(map[string]bool, len(existing))
	for _, task := range existing {
		covered[task.LocationID] = true
	}

	locations, err := d.Locations.ListServiceableLocations(ctx, "")
	if err != nil {
		return summary, err
	}
	workers, err := d.Workers.ListEligibleWorkers(ctx, "", "")
	if err != nil {
		return summary, err
	}
	pool := filterWorkers(workers, func(w models.Worker) bool {
		return w.Available && w.Active
	})

	var uncovered []models.Location
	for _, loc := range locations {
		if covered[loc.ID] {
			summary.AlreadyCovered++
			continue
		}
		uncovered = append(uncovered, loc)
	}
	if len(uncovered) == 0 {
		d.Logger.Info().Str("date", date).Msg("all locations already covered")
		return summary, nil
	}

	locsByBlock := map[string][]models.Location{}
	var blocks []string
	for _, loc := range uncovered {
		key := NormalizeLocator(loc.Block, BlockUnassigned)
		if _, seen := locsByBlock[key]; !seen {
			blocks = append(blocks, key)
		}
		locsByBlock[key] = append(locsByBlock[key], loc)
	}
	sort.Strings(blocks)

	workersByArea := map[string][]models.Worker{}
	for _, w := range pool {
		key := NormalizeLocator(w.Area, AreaGeneral)
		workersByArea[key] = append(workersByArea[key], w)
	}

	now := time.Now().UTC()
	var tasks []models.RecurringTask
	var orphans []models.Location
	for _, block := range blocks {
		blockWorkers := workersByArea[block]
		if len(blockWorkers) == 0 {
			summary.FallbackBlocks = append(summary.FallbackBlocks, block)
			orphans = append(orphans, locsByBlock[block]...)
			continue
		}
		tasks = append(tasks, roundRobin(locsByBlock[block], blockWorkers, date, now)...)
	}

	if len(orphans) > 0 {
		if len(pool) == 0 {
			summary.Uncovered += len(orphans)
		} else {
			tasks = append(tasks, roundRobin(orphans, pool, date, now)...)
		}
	}

	if err := ctx.Err(); err != nil {
		// Caller deadline hit: abort before the batch write, nothing partial.
		return summary, err
	}

	if len(tasks) > 0 {
		inserted, err := d.Tasks.InsertTasks(ctx, tasks)
		if err != nil {
			return summary, err
		}
		summary.Created = int(inserted)
		summary.DuplicatesSkipped = len(tasks) - int(inserted)
	}

	involved := map[string]bool{}
	for _, task := range tasks {
		if task.WorkerID != nil {
			involved[*task.WorkerID] = true
		}
	}
	summary.WorkersInvolved = len(involved)

	d.emit(ctx, notify.Event{
		Kind:   notify.KindTasksDistributed,
		Status: date,
		At:     now,
	})
	d.Logger.Info().
		Str("date", date).
		Int("created", summary.Created).
		Int("already_covered", summary.AlreadyCovered).
		Int("uncovered", summary.Uncovered).
		Int("workers_involved", summary.WorkersInvolved).
		Msg("daily distribution complete")
	return summary, nil
}

// roundRobin cycles through the worker list, one location per worker per
// pass, until the locations are exhausted. Deterministic for fixed input
// order.
func roundRobin(locations []models.Location, workers []models.Worker, date string, now time.Time) []models.RecurringTask {
	tasks := make([]models.RecurringTask, 0, len(locations))
	for i, loc := range locations {
		w := workers[i%len(workers)]
		id := w.ID
		at := now
		tasks = append(tasks, models.RecurringTask{
			ID:            uuid.NewString(),
			LocationID:    loc.ID,
			WorkerID:      &id,
			ScheduledDate: date,
			Status:        models.TaskAssigned,
			AssignedAt:    &at,
		})
	}
	return tasks
}

// ReassignTask moves a task to another worker (supervisor action).
func (d *Distributor) ReassignTask(ctx context.Context, taskID, workerID string) (models.RecurringTask, error) {
	task, err := d.Tasks.GetTask(ctx, taskID)
	if err != nil {
		return models.RecurringTask{}, err
	}
	if task.Status == models.TaskCompleted || task.Status == models.TaskSkipped {
		return models.RecurringTask{}, wrap(ErrInvalidTransition, "task already finished")
	}

	w, err := d.Workers.GetWorker(ctx, workerID)
	if err != nil {
		return models.RecurringTask{}, err
	}
	if !w.Available || !w.Active {
		return models.RecurringTask{}, wrap(ErrNoWorkerAvailable, "worker "+workerID+" is not available")
	}

	now := time.Now().UTC()
	task.WorkerID = &w.ID
	task.AssignedAt = &now
	if err := d.Tasks.UpdateTask(ctx, task); err != nil {
		return models.RecurringTask{}, err
	}
	d.emit(ctx, notify.Event{
		Kind:      notify.KindTaskReassigned,
		TaskID:    task.ID,
		Recipient: w.ID,
		Status:    string(task.Status),
		At:        now,
	})
	return task, nil
}

// StartTask marks a task in progress; only the assigned worker may start it.
func (d *Distributor) StartTask(ctx context.Context, taskID, workerID string) (models.RecurringTask, error) {
	task, err := d.Tasks.GetTask(ctx, taskID)
	if err != nil {
		return models.RecurringTask{}, err
	}
	if task.Status != models.TaskAssigned {
		return models.RecurringTask{}, wrap(ErrInvalidTransition, "task is "+string(task.Status))
	}
	if task.WorkerID == nil || *task.WorkerID != workerID {
		return models.RecurringTask{}, wrap(ErrValidation, "task is not assigned to this worker")
	}

	now := time.Now().UTC()
	task.Status = models.TaskInProgress
	task.StartedAt = &now
	if err := d.Tasks.UpdateTask(ctx, task); err != nil {
		return models.RecurringTask{}, err
	}
	return task, nil
}

// CompleteTask finishes a task with optional proof and notes.
func (d *Distributor) CompleteTask(ctx context.Context, taskID, workerID string, proof []string, notes string) (models.RecurringTask, error) {
	task, err := d.Tasks.GetTask(ctx, taskID)
	if err != nil {
		return models.RecurringTask{}, err
	}
	if task.Status != models.TaskInProgress {
		return models.RecurringTask{}, wrap(ErrInvalidTransition, "task is "+string(task.Status))
	}
	if task.WorkerID == nil || *task.WorkerID != workerID {
		return models.RecurringTask{}, wrap(ErrValidation, "task is not assigned to this worker")
	}

	now := time.Now().UTC()
	task.Status = models.TaskCompleted
	task.CompletedAt = &now
	task.Proof = proof
	task.Notes = notes
	if err := d.Tasks.UpdateTask(ctx, task); err != nil {
		return models.RecurringTask{}, err
	}
	return task, nil
}

func (d *Distributor) emit(ctx context.Context, e notify.Event) {
	if d.Sink == nil {
		return
	}
	if err := d.Sink.Emit(ctx, e); err != nil {
		d.Logger.Warn().Err(err).Str("task_id", e.TaskID).Msg("notification emit failed")
	}
}
