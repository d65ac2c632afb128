package models

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a maintenance ticket.
type Status string

const (
	StatusReported        Status = "reported"
	StatusAssigned        Status = "assigned"
	StatusInProgress      Status = "in_progress"
	StatusWorkSubmitted   Status = "work_submitted"
	StatusReworkRequired  Status = "rework_required"
	StatusWorkApproved    Status = "work_approved"
	StatusFeedbackPending Status = "feedback_pending"
	StatusResolved        Status = "resolved"
	StatusClosed          Status = "closed"
	StatusRejected        Status = "rejected"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusReported, StatusAssigned, StatusInProgress, StatusWorkSubmitted,
		StatusReworkRequired, StatusWorkApproved, StatusFeedbackPending,
		StatusResolved, StatusClosed, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusClosed || s == StatusRejected
}

func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid status %q", s)
	}
	return status, nil
}

// Role identifies which kind of actor is driving a transition.
type Role string

const (
	RoleReporter Role = "reporter"
	RoleWorker   Role = "worker"
	RoleReviewer Role = "reviewer"
	RoleApprover Role = "approver"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleReporter, RoleWorker, RoleReviewer, RoleApprover:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return role, nil
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.IsValid() {
		return "", fmt.Errorf("invalid severity %q", s)
	}
	return sev, nil
}

// ClosurePolicy selects which of the two mutually exclusive closure paths a
// ticket follows. It is fixed at creation time: feedback tickets go through
// review and are closed with a rating, otp tickets skip review and are
// closed by entering the code handed to the reporter.
type ClosurePolicy string

const (
	ClosureFeedback ClosurePolicy = "feedback"
	ClosureOTP      ClosurePolicy = "otp"
)

func (p ClosurePolicy) IsValid() bool {
	return p == ClosureFeedback || p == ClosureOTP
}

// TaskStatus is the state of a recurring cleaning task.
type TaskStatus string

const (
	TaskAssigned   TaskStatus = "assigned"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskSkipped    TaskStatus = "skipped"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskAssigned, TaskInProgress, TaskCompleted, TaskSkipped:
		return true
	}
	return false
}
