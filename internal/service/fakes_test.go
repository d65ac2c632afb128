package service

import (
	"context"
	"sync"

	"github.com/campusfix/backend/internal/models"
)

// In-memory implementations of the store ports, matching the semantics the
// pgx store provides (CAS on status, dedupe on location/date).

type memTicketStore struct {
	mu      sync.Mutex
	tickets map[string]models.Ticket
	onGet   func(*memTicketStore) // test hook, runs after a read
}

func newMemTicketStore() *memTicketStore {
	return &memTicketStore{tickets: map[string]models.Ticket{}}
}

func (s *memTicketStore) CreateTicket(ctx context.Context, t models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[t.ID] = t
	return nil
}

func (s *memTicketStore) GetTicket(ctx context.Context, id string) (models.Ticket, error) {
	s.mu.Lock()
	t, ok := s.tickets[id]
	s.mu.Unlock()
	if !ok {
		return models.Ticket{}, ErrNotFound
	}
	if s.onGet != nil {
		hook := s.onGet
		s.onGet = nil
		hook(s)
	}
	return t, nil
}

func (s *memTicketStore) UpdateTicketIfStatus(ctx context.Context, id string, expected models.Status, t models.Ticket) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.tickets[id]
	if !ok || current.Status != expected {
		return false, nil
	}
	s.tickets[id] = t
	return true, nil
}

func (s *memTicketStore) put(t models.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[t.ID] = t
}

func (s *memTicketStore) get(id string) models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickets[id]
}

type memWorkerDir struct {
	workers []models.Worker
}

func (d *memWorkerDir) ListEligibleWorkers(ctx context.Context, skill, area string) ([]models.Worker, error) {
	out := make([]models.Worker, len(d.workers))
	copy(out, d.workers)
	return out, nil
}

func (d *memWorkerDir) GetWorker(ctx context.Context, id string) (models.Worker, error) {
	for _, w := range d.workers {
		if w.ID == id {
			return w, nil
		}
	}
	return models.Worker{}, ErrNotFound
}

type memLoads struct {
	mu    sync.Mutex
	loads map[string]int
}

func newMemLoads() *memLoads {
	return &memLoads{loads: map[string]int{}}
}

func (l *memLoads) AdjustWorkerLoad(ctx context.Context, workerID string, delta int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads[workerID] += delta
	return nil
}

type memTaskStore struct {
	mu    sync.Mutex
	tasks map[string]models.RecurringTask
	order []string
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: map[string]models.RecurringTask{}}
}

func (s *memTaskStore) ListTasksForDate(ctx context.Context, date string) ([]models.RecurringTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RecurringTask
	for _, id := range s.order {
		if t := s.tasks[id]; t.ScheduledDate == date {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memTaskStore) InsertTasks(ctx context.Context, tasks []models.RecurringTask) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var inserted int64
	for _, t := range tasks {
		if s.covered(t.LocationID, t.ScheduledDate) {
			continue
		}
		s.tasks[t.ID] = t
		s.order = append(s.order, t.ID)
		inserted++
	}
	return inserted, nil
}

func (s *memTaskStore) covered(locationID, date string) bool {
	for _, existing := range s.tasks {
		if existing.LocationID == locationID && existing.ScheduledDate == date {
			return true
		}
	}
	return false
}

func (s *memTaskStore) GetTask(ctx context.Context, id string) (models.RecurringTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return models.RecurringTask{}, ErrNotFound
	}
	return t, nil
}

func (s *memTaskStore) UpdateTask(ctx context.Context, t models.RecurringTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; !ok {
		return ErrNotFound
	}
	s.tasks[t.ID] = t
	return nil
}

type memLocationStore struct {
	locations []models.Location
}

func (s *memLocationStore) ListServiceableLocations(ctx context.Context, kind string) ([]models.Location, error) {
	var out []models.Location
	for _, l := range s.locations {
		if !l.Operational {
			continue
		}
		if kind != "" && l.Kind != kind {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}
