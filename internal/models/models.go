package models

import "time"

// DateOnly is the wire format for recurring-task schedule dates. Tasks are
// keyed by calendar day, never by time of day.
const DateOnly = "2006-01-02"

type Ticket struct {
	ID            string         `json:"id"`
	Category      string         `json:"category"`
	LocationID    string         `json:"location_id"`
	Area          string         `json:"area"`
	ReporterID    string         `json:"reporter_id"`
	AssigneeID    *string        `json:"assignee_id"`
	Status        Status         `json:"status"`
	Severity      Severity       `json:"severity"`
	ClosurePolicy ClosurePolicy  `json:"closure_policy"`
	Description   string         `json:"description"`
	Evidence      []string       `json:"evidence"`
	OTP           *string        `json:"-"`
	OTPVerified   bool           `json:"otp_verified"`
	WorkProof     []string       `json:"work_proof"`
	WorkNote      string         `json:"work_note"`
	AdminComment  string         `json:"admin_comment"`
	Rating        *int           `json:"rating"`
	Feedback      string         `json:"feedback"`
	History       []StatusChange `json:"history"`
	CreatedAt     time.Time      `json:"created_at"`
	AssignedAt    *time.Time     `json:"assigned_at"`
	ResolvedAt    *time.Time     `json:"resolved_at"`
	ClosedAt      *time.Time     `json:"closed_at"`
}

// StatusChange is one append-only audit record. The last entry always
// matches the ticket's current status.
type StatusChange struct {
	Status  Status    `json:"status"`
	Actor   Role      `json:"actor"`
	ActorID string    `json:"actor_id"`
	Note    string    `json:"note"`
	At      time.Time `json:"at"`
}

type RecurringTask struct {
	ID            string     `json:"id"`
	LocationID    string     `json:"location_id"`
	WorkerID      *string    `json:"worker_id"`
	ScheduledDate string     `json:"scheduled_date"`
	Status        TaskStatus `json:"status"`
	AssignedAt    *time.Time `json:"assigned_at"`
	StartedAt     *time.Time `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	Notes         string     `json:"notes"`
	Proof         []string   `json:"proof"`
}

type Worker struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Skill       string    `json:"skill"`
	Area        string    `json:"area"`
	Available   bool      `json:"available"`
	Active      bool      `json:"active"`
	CurrentLoad int       `json:"current_load"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Location struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Block       string `json:"block"`
	Kind        string `json:"kind"`
	Operational bool   `json:"operational"`
}
