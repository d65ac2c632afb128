package service

import (
	"errors"
	"fmt"
)

// Failure taxonomy for the lifecycle and allocation engines. All of these
// are caller errors or soft outcomes; none abort the process.
var (
	// ErrInvalidTransition: the attempted move is not in the transition
	// table for this status/actor, or not legal for the ticket's closure
	// policy. State and history are left untouched.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrNoWorkerAvailable: both the skill-matched and the degraded
	// candidate pools were empty. The ticket stays in reported.
	ErrNoWorkerAvailable = errors.New("no worker available")

	// ErrConcurrentModification: lost a compare-and-set race on the same
	// entity. Callers should re-read and retry.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrValidation: required evidence, comment, rating or OTP was missing
	// or malformed. Rejected before any state change.
	ErrValidation = errors.New("validation failure")

	// ErrNotFound: the referenced entity does not exist in the store.
	ErrNotFound = errors.New("not found")
)

func wrap(sentinel error, detail string) error {
	return fmt.Errorf("%w: %s", sentinel, detail)
}
