package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campusfix/backend/internal/models"
	"github.com/campusfix/backend/internal/notify"
	"github.com/campusfix/backend/internal/utils"
)

// Actor is who is attempting a transition. The role gates which targets are
// reachable; the id goes into the history entry.
type Actor struct {
	Role models.Role
	ID   string
}

type TransitionInput struct {
	Note     string
	Proof    []string
	WorkNote string
	Comment  string
	Rating   int
	Feedback string
	OTP      string
}

type CreateTicketInput struct {
	Category      string
	LocationID    string
	Area          string
	ReporterID    string
	Severity      models.Severity
	ClosurePolicy models.ClosurePolicy
	Description   string
	Evidence      []string
}

// transitionTable is the complete role-gated state machine. Anything not
// listed here is rejected without touching the ticket. Policy restrictions
// (feedback vs otp closure path) are enforced on top in Transition.
var transitionTable = map[models.Status]map[models.Role][]models.Status{
	models.StatusReported: {
		models.RoleApprover: {models.StatusAssigned, models.StatusRejected},
	},
	models.StatusAssigned: {
		models.RoleWorker: {models.StatusInProgress},
	},
	models.StatusInProgress: {
		models.RoleWorker: {models.StatusWorkSubmitted, models.StatusResolved},
	},
	models.StatusReworkRequired: {
		models.RoleWorker: {models.StatusWorkSubmitted},
	},
	models.StatusWorkSubmitted: {
		models.RoleReviewer: {models.StatusWorkApproved, models.StatusFeedbackPending, models.StatusReworkRequired},
	},
	models.StatusWorkApproved: {
		models.RoleReporter: {models.StatusClosed},
	},
	models.StatusFeedbackPending: {
		models.RoleReporter: {models.StatusClosed},
	},
	models.StatusResolved: {
		models.RoleReporter: {models.StatusClosed},
	},
}

// AllowedTransitions returns the target statuses the given role may move a
// ticket to from the given status. Empty for terminal states.
func AllowedTransitions(status models.Status, role models.Role) []models.Status {
	byRole, ok := transitionTable[status]
	if !ok {
		return nil
	}
	targets := byRole[role]
	out := make([]models.Status, len(targets))
	copy(out, targets)
	return out
}

func CanTransition(status models.Status, role models.Role, target models.Status) bool {
	for _, t := range AllowedTransitions(status, role) {
		if t == target {
			return true
		}
	}
	return false
}

// Lifecycle owns ticket status, history and the concurrency guard. All
// mutations go through a conditional write on the current status; a lost
// race surfaces as ErrConcurrentModification and nothing is persisted.
type Lifecycle struct {
	Tickets  TicketStore
	Loads    WorkerLoads
	Resolver *Resolver
	Sink     notify.Sink
	Logger   zerolog.Logger
}

func (l *Lifecycle) CreateTicket(ctx context.Context, in CreateTicketInput) (models.Ticket, error) {
	if strings.TrimSpace(in.Category) == "" || strings.TrimSpace(in.LocationID) == "" || strings.TrimSpace(in.ReporterID) == "" {
		return models.Ticket{}, wrap(ErrValidation, "category, location_id and reporter_id are required")
	}
	if !in.Severity.IsValid() {
		in.Severity = models.SeverityMedium
	}
	if !in.ClosurePolicy.IsValid() {
		in.ClosurePolicy = models.ClosureFeedback
	}

	now := time.Now().UTC()
	t := models.Ticket{
		ID:            uuid.NewString(),
		Category:      strings.TrimSpace(in.Category),
		LocationID:    in.LocationID,
		Area:          strings.TrimSpace(in.Area),
		ReporterID:    in.ReporterID,
		Status:        models.StatusReported,
		Severity:      in.Severity,
		ClosurePolicy: in.ClosurePolicy,
		Description:   in.Description,
		Evidence:      in.Evidence,
		CreatedAt:     now,
		History: []models.StatusChange{{
			Status:  models.StatusReported,
			Actor:   models.RoleReporter,
			ActorID: in.ReporterID,
			Note:    "ticket created",
			At:      now,
		}},
	}
	if in.ClosurePolicy == models.ClosureOTP {
		otp := utils.GenerateOTP()
		t.OTP = &otp
	}

	if err := l.Tickets.CreateTicket(ctx, t); err != nil {
		return models.Ticket{}, err
	}
	l.emit(ctx, notify.Event{
		Kind:      notify.KindTicketCreated,
		TicketID:  t.ID,
		Recipient: t.ReporterID,
		Status:    string(t.Status),
		At:        now,
	})
	return t, nil
}

// Transition attempts one move of the state machine. Exactly one history
// entry is appended on success; on any failure the ticket is unchanged.
func (l *Lifecycle) Transition(ctx context.Context, ticketID string, actor Actor, target models.Status, in TransitionInput) (models.Ticket, error) {
	if !actor.Role.IsValid() {
		return models.Ticket{}, wrap(ErrValidation, "unknown actor role")
	}
	if !target.IsValid() {
		return models.Ticket{}, wrap(ErrValidation, "unknown target status")
	}

	t, err := l.Tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return models.Ticket{}, err
	}
	from := t.Status

	if !CanTransition(from, actor.Role, target) {
		return models.Ticket{}, wrap(ErrInvalidTransition, string(from)+" -> "+string(target)+" by "+string(actor.Role))
	}

	switch target {
	case models.StatusAssigned:
		worker, _, rerr := l.Resolver.Resolve(ctx, t)
		if rerr != nil {
			return models.Ticket{}, rerr
		}
		id := worker.ID
		t.AssigneeID = &id
		now := time.Now().UTC()
		t.AssignedAt = &now

	case models.StatusRejected:
		if strings.TrimSpace(in.Comment) == "" {
			return models.Ticket{}, wrap(ErrValidation, "rejection reason is required")
		}
		t.AdminComment = in.Comment

	case models.StatusInProgress:
		// no guard

	case models.StatusWorkSubmitted:
		if t.ClosurePolicy != models.ClosureFeedback {
			return models.Ticket{}, wrap(ErrInvalidTransition, "ticket follows the otp closure path")
		}
		if len(in.Proof) == 0 {
			return models.Ticket{}, wrap(ErrValidation, "at least one proof item is required")
		}
		t.WorkProof = in.Proof
		t.WorkNote = in.WorkNote

	case models.StatusResolved:
		if t.ClosurePolicy != models.ClosureOTP {
			return models.Ticket{}, wrap(ErrInvalidTransition, "ticket follows the review closure path")
		}
		if len(in.Proof) == 0 {
			return models.Ticket{}, wrap(ErrValidation, "at least one proof item is required")
		}
		t.WorkProof = in.Proof
		t.WorkNote = in.WorkNote
		now := time.Now().UTC()
		t.ResolvedAt = &now

	case models.StatusReworkRequired:
		if strings.TrimSpace(in.Comment) == "" {
			return models.Ticket{}, wrap(ErrValidation, "rework comment is required")
		}
		t.AdminComment = in.Comment
		// Stale proof must not be reusable on resubmission.
		t.WorkProof = nil
		t.WorkNote = ""

	case models.StatusWorkApproved, models.StatusFeedbackPending:
		// reviewer's call, no extra evidence

	case models.StatusClosed:
		if from == models.StatusResolved {
			if t.OTP == nil || in.OTP != *t.OTP {
				return models.Ticket{}, wrap(ErrValidation, "otp mismatch")
			}
			t.OTPVerified = true
		} else {
			if in.Rating < 1 || in.Rating > 5 {
				return models.Ticket{}, wrap(ErrValidation, "rating must be between 1 and 5")
			}
			rating := in.Rating
			t.Rating = &rating
			t.Feedback = in.Feedback
		}
		now := time.Now().UTC()
		t.ClosedAt = &now

	default:
		return models.Ticket{}, wrap(ErrInvalidTransition, "unsupported target "+string(target))
	}

	now := time.Now().UTC()
	note := in.Note
	if note == "" {
		note = in.Comment
	}
	t.Status = target
	t.History = append(t.History, models.StatusChange{
		Status:  target,
		Actor:   actor.Role,
		ActorID: actor.ID,
		Note:    note,
		At:      now,
	})

	ok, err := l.Tickets.UpdateTicketIfStatus(ctx, t.ID, from, t)
	if err != nil {
		return models.Ticket{}, err
	}
	if !ok {
		return models.Ticket{}, wrap(ErrConcurrentModification, "ticket "+t.ID)
	}

	l.adjustLoads(ctx, target, t)
	l.emit(ctx, notify.Event{
		Kind:      notify.KindStatusChanged,
		TicketID:  t.ID,
		Recipient: l.recipient(t, target),
		Status:    string(target),
		At:        now,
	})

	l.Logger.Info().
		Str("ticket_id", t.ID).
		Str("from", string(from)).
		Str("to", string(target)).
		Str("actor", string(actor.Role)).
		Msg("ticket transition")
	return t, nil
}

// SetSeverity is the approver's side channel: reprioritize without moving
// the state machine. No history entry is appended.
func (l *Lifecycle) SetSeverity(ctx context.Context, ticketID string, actor Actor, severity models.Severity) (models.Ticket, error) {
	if actor.Role != models.RoleApprover {
		return models.Ticket{}, wrap(ErrValidation, "only an approver may edit severity")
	}
	if !severity.IsValid() {
		return models.Ticket{}, wrap(ErrValidation, "unknown severity")
	}

	t, err := l.Tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return models.Ticket{}, err
	}
	if t.Status.IsTerminal() {
		return models.Ticket{}, wrap(ErrInvalidTransition, "ticket is terminal")
	}

	t.Severity = severity
	ok, err := l.Tickets.UpdateTicketIfStatus(ctx, t.ID, t.Status, t)
	if err != nil {
		return models.Ticket{}, err
	}
	if !ok {
		return models.Ticket{}, wrap(ErrConcurrentModification, "ticket "+t.ID)
	}
	return t, nil
}

func (l *Lifecycle) adjustLoads(ctx context.Context, target models.Status, t models.Ticket) {
	if l.Loads == nil || t.AssigneeID == nil {
		return
	}
	var delta int
	switch {
	case target == models.StatusAssigned:
		delta = 1
	case target == models.StatusClosed:
		delta = -1
	default:
		return
	}
	if err := l.Loads.AdjustWorkerLoad(ctx, *t.AssigneeID, delta); err != nil {
		l.Logger.Warn().Err(err).Str("worker_id", *t.AssigneeID).Msg("load adjustment failed")
	}
}

func (l *Lifecycle) recipient(t models.Ticket, target models.Status) string {
	switch target {
	case models.StatusAssigned, models.StatusReworkRequired:
		if t.AssigneeID != nil {
			return *t.AssigneeID
		}
	}
	return t.ReporterID
}

func (l *Lifecycle) emit(ctx context.Context, e notify.Event) {
	if l.Sink == nil {
		return
	}
	if err := l.Sink.Emit(ctx, e); err != nil {
		l.Logger.Warn().Err(err).Str("ticket_id", e.TicketID).Msg("notification emit failed")
	}
}
