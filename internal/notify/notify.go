package notify

import (
	"context"
	"time"
)

type EventKind string

const (
	KindTicketCreated    EventKind = "ticket_created"
	KindStatusChanged    EventKind = "status_changed"
	KindTasksDistributed EventKind = "tasks_distributed"
	KindTaskReassigned   EventKind = "task_reassigned"
)

// Event is the fire-and-forget payload sent on every successful transition
// and on batch completion. Delivery failures never roll anything back.
type Event struct {
	Kind      EventKind `json:"kind"`
	TicketID  string    `json:"ticket_id,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	Recipient string    `json:"recipient,omitempty"`
	Status    string    `json:"status,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

type Sink interface {
	Emit(ctx context.Context, e Event) error
}
