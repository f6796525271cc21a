package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/benmeehan/iot-link/internal/cloud"
	"github.com/benmeehan/iot-link/internal/models"
)

// SessionManager owns the control-plane session of one orchestrator.
type SessionManager struct {
	Client cloud.CloudClient
	Logger zerolog.Logger

	mu      sync.RWMutex
	session models.SessionRef
}

// NewSessionManager initializes a SessionManager with no session.
func NewSessionManager(client cloud.CloudClient, logger zerolog.Logger) *SessionManager {
	return &SessionManager{
		Client: client,
		Logger: logger,
	}
}

// Login exchanges creds for a session and replaces the stored one. The stored
// session is left untouched when login fails.
func (s *SessionManager) Login(ctx context.Context, creds models.Credentials) (models.SessionRef, error) {
	if creds.Email == "" {
		return models.SessionRef{}, &ValidationError{Field: "email", Reason: "must not be empty"}
	}
	if creds.Password == "" {
		return models.SessionRef{}, &ValidationError{Field: "password", Reason: "must not be empty"}
	}

	session, err := s.Client.Login(ctx, creds)
	if err != nil {
		s.Logger.Error().Err(err).Str("email", creds.Email).Msg("Login failed")
		return models.SessionRef{}, &PhaseError{Phase: PhaseAuth, Err: err}
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	s.Logger.Info().Str("uid", session.UID).Msg("Session established")
	return session, nil
}

// Session returns the current session and whether one has been established.
func (s *SessionManager) Session() (models.SessionRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, !s.session.IsZero()
}
