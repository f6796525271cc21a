package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/benmeehan/iot-link/internal/broadcast"
	"github.com/benmeehan/iot-link/internal/models"
)

// BroadcastController hands out BroadcastSessions over a Broadcaster.
type BroadcastController struct {
	Broadcaster broadcast.Broadcaster
	Logger      zerolog.Logger
}

// NewBroadcastController initializes a BroadcastController.
func NewBroadcastController(broadcaster broadcast.Broadcaster, logger zerolog.Logger) *BroadcastController {
	return &BroadcastController{
		Broadcaster: broadcaster,
		Logger:      logger,
	}
}

// Open returns a BroadcastSession without side effects. The caller must Close
// it on every path once it is open, whether or not Start was called.
func (c *BroadcastController) Open() *BroadcastSession {
	return &BroadcastSession{broadcaster: c.Broadcaster, logger: c.Logger}
}

// BroadcastSession is one link attempt's claim on the broadcaster.
type BroadcastSession struct {
	broadcaster broadcast.Broadcaster
	logger      zerolog.Logger

	mu      sync.Mutex
	started bool
	closed  bool
	once    sync.Once
	err     error
}

// Start begins transmitting cfg. A session starts at most once.
func (s *BroadcastSession) Start(cfg models.BroadcastConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("broadcast session is closed")
	}
	if s.started {
		return broadcast.ErrBroadcastActive
	}

	if err := s.broadcaster.Start(cfg); err != nil {
		return &PhaseError{Phase: PhaseBroadcast, Err: err}
	}
	s.started = true
	return nil
}

// Close stops the broadcast and releases its socket exactly once. Both steps
// run even when Start never succeeded; later calls return the first result.
func (s *BroadcastSession) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		var errs []error
		if err := s.broadcaster.Stop(); err != nil {
			errs = append(errs, &CleanupError{Step: "stop", Err: err})
		}
		if err := s.broadcaster.Release(); err != nil {
			errs = append(errs, &CleanupError{Step: "release", Err: err})
		}
		s.err = errors.Join(errs...)

		if s.err == nil {
			s.logger.Debug().Msg("Broadcast session closed")
		}
	})
	return s.err
}

// CleanupError reports a failed stop or release step.
type CleanupError struct {
	Step string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("broadcast %s failed: %v", e.Step, e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}
