package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"k8s.io/utils/clock"

	"github.com/benmeehan/iot-link/internal/cloud"
	"github.com/benmeehan/iot-link/internal/constants"
	"github.com/benmeehan/iot-link/internal/models"
)

// ArrivalPoller queries device status for a pairing token until enough devices
// have reported in or the deadline passes.
type ArrivalPoller struct {
	Client   cloud.CloudClient
	Interval time.Duration
	Clock    clock.Clock
	Logger   zerolog.Logger
}

// PollReport describes how a poll run ended.
type PollReport struct {
	State  constants.PollerState
	Result models.PollResult
	Polls  int
}

// NewArrivalPoller initializes an ArrivalPoller.
func NewArrivalPoller(client cloud.CloudClient, interval time.Duration, clk clock.Clock, logger zerolog.Logger) *ArrivalPoller {
	if interval <= 0 {
		interval = constants.DefaultPollInterval
	}
	if clk == nil {
		clk = clock.RealClock{}
	}

	return &ArrivalPoller{
		Client:   client,
		Interval: interval,
		Clock:    clk,
		Logger:   logger,
	}
}

// Run polls sequentially. Every iteration checks the fresh snapshot for
// satisfaction before checking the deadline, and at least one poll is always
// made. The deadline is reached once now >= start+timeout.
func (p *ArrivalPoller) Run(ctx context.Context, session models.SessionRef, token string,
	target int, timeout time.Duration) (PollReport, error) {

	deadline := p.Clock.Now().Add(timeout)
	report := PollReport{State: constants.PollerStatePolling}
	logger := p.Logger.With().Str("token", token).Int("target", target).Logger()

	for {
		result, err := p.Client.PollDeviceStatus(ctx, session, token)
		report.Polls++
		if err != nil {
			report.State = constants.PollerStateFailed
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			logger.Error().Err(err).Int("poll", report.Polls).Msg("Device status poll failed")
			return report, &PhaseError{Phase: PhasePolling, Err: err}
		}
		report.Result = result

		logger.Debug().
			Int("poll", report.Polls).
			Int("matched", result.MatchedCount).
			Msg("Device status polled")

		if result.MatchedCount >= target {
			report.State = constants.PollerStateSatisfied
			logger.Info().Int("matched", result.MatchedCount).Int("polls", report.Polls).Msg("Devices reported in")
			return report, nil
		}

		if !p.Clock.Now().Before(deadline) {
			report.State = constants.PollerStateTimedOut
			logger.Warn().Int("matched", result.MatchedCount).Int("polls", report.Polls).Msg("Timed out waiting for devices")
			return report, &TimeoutError{
				Target:  target,
				Seen:    result.MatchedCount,
				Timeout: timeout,
				Polls:   report.Polls,
			}
		}

		select {
		case <-ctx.Done():
			report.State = constants.PollerStateFailed
			return report, &PhaseError{Phase: PhasePolling, Err: ctx.Err()}
		case <-p.Clock.After(p.Interval):
		}
	}
}
