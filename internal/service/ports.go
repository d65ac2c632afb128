package service

import (
	"context"

	"github.com/campusfix/backend/internal/models"
)

// TicketStore is the persistence contract the lifecycle engine needs.
// UpdateTicketIfStatus is a conditional write: it persists the ticket only
// while the stored status still equals expected, and reports whether it won.
type TicketStore interface {
	CreateTicket(ctx context.Context, t models.Ticket) error
	GetTicket(ctx context.Context, id string) (models.Ticket, error)
	UpdateTicketIfStatus(ctx context.Context, id string, expected models.Status, t models.Ticket) (bool, error)
}

// TaskStore persists recurring cleaning tasks. InsertTasks must deduplicate
// on (location_id, scheduled_date) and return the number actually inserted,
// so two racing distributor runs cannot double-book a location.
type TaskStore interface {
	ListTasksForDate(ctx context.Context, date string) ([]models.RecurringTask, error)
	InsertTasks(ctx context.Context, tasks []models.RecurringTask) (int64, error)
	GetTask(ctx context.Context, id string) (models.RecurringTask, error)
	UpdateTask(ctx context.Context, t models.RecurringTask) error
}

// WorkerDirectory is a read-only view over the worker pool. Empty filter
// strings mean "any". Results are snapshot reads; the allocation algorithms
// tolerate skew but never hand work to a worker listed as unavailable.
type WorkerDirectory interface {
	ListEligibleWorkers(ctx context.Context, skill, area string) ([]models.Worker, error)
	GetWorker(ctx context.Context, id string) (models.Worker, error)
}

// WorkerLoads adjusts a worker's derived open-ticket count. Split from
// WorkerDirectory so the allocation algorithms stay read-only.
type WorkerLoads interface {
	AdjustWorkerLoad(ctx context.Context, workerID string, delta int) error
}

type LocationStore interface {
	ListServiceableLocations(ctx context.Context, kind string) ([]models.Location, error)
}
