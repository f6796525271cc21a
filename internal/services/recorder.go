package services

import (
	"time"

	"github.com/benmeehan/iot-link/internal/constants"
)

// Recorder receives provisioning measurements.
type Recorder interface {
	ObserveAttempt(outcome constants.LinkOutcome, duration time.Duration)
	ObservePolls(polls int)
	IncCleanupFailure(step string)
}

// NopRecorder discards every measurement.
type NopRecorder struct{}

func (NopRecorder) ObserveAttempt(constants.LinkOutcome, time.Duration) {}
func (NopRecorder) ObservePolls(int)                                    {}
func (NopRecorder) IncCleanupFailure(string)                            {}
