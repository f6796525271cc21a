package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/benmeehan/iot-link/internal/services"
)

func TestPhaseError_MatchesPhaseAndCause(t *testing.T) {
	err := &services.PhaseError{Phase: services.PhasePolling, Err: context.DeadlineExceeded}

	assert.ErrorIs(t, err, services.ErrPoll)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, services.ErrToken)
	assert.Equal(t, "device status poll failed: context deadline exceeded", err.Error())
}

func TestTimeoutError_Message(t *testing.T) {
	err := &services.TimeoutError{Target: 2, Seen: 1, Timeout: 5 * time.Second, Polls: 6}

	assert.ErrorIs(t, err, services.ErrTimeout)
	assert.Equal(t, "timed out waiting for devices to connect: 1 of 2 device(s) seen after 5s (6 polls)", err.Error())
}

func TestValidationError(t *testing.T) {
	var err error = &services.ValidationError{Field: "ssid", Reason: "must not be empty"}

	assert.True(t, errors.Is(err, services.ErrValidation))
	assert.Equal(t, "invalid ssid: must not be empty", err.Error())
}
