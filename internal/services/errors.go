package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrAuth           = errors.New("authentication failed")
	ErrToken          = errors.New("pairing token request failed")
	ErrBroadcast      = errors.New("broadcast failed to start")
	ErrPoll           = errors.New("device status poll failed")
	ErrTimeout        = errors.New("timed out waiting for devices to connect")
	ErrQuery          = errors.New("device query failed")
	ErrLinkInProgress = errors.New("a link attempt is already in progress")
)

// Phase names the step of provisioning that failed.
type Phase string

const (
	PhaseAuth      Phase = "auth"
	PhaseToken     Phase = "token"
	PhaseBroadcast Phase = "broadcast"
	PhasePolling   Phase = "polling"
	PhaseQuery     Phase = "query"
)

var phaseErrors = map[Phase]error{
	PhaseAuth:      ErrAuth,
	PhaseToken:     ErrToken,
	PhaseBroadcast: ErrBroadcast,
	PhasePolling:   ErrPoll,
	PhaseQuery:     ErrQuery,
}

// ValidationError reports missing or malformed input. It is returned before any
// network or broadcast side effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PhaseError wraps a collaborator error with the phase it occurred in.
// errors.Is matches both the phase sentinel and anything in Err's chain.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	if sentinel, ok := phaseErrors[e.Phase]; ok {
		return fmt.Sprintf("%v: %v", sentinel, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Is(target error) bool {
	return phaseErrors[e.Phase] == target
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when the deadline passes before enough devices report in.
type TimeoutError struct {
	Target  int
	Seen    int
	Timeout time.Duration
	Polls   int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%v: %d of %d device(s) seen after %s (%d polls)",
		ErrTimeout, e.Seen, e.Target, e.Timeout, e.Polls)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
