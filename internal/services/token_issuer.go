package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/benmeehan/iot-link/internal/cloud"
	"github.com/benmeehan/iot-link/internal/models"
)

// TokenIssuer requests single-use pairing tokens. Refusals are never retried.
type TokenIssuer struct {
	Client cloud.CloudClient
	Logger zerolog.Logger
}

// NewTokenIssuer initializes a TokenIssuer.
func NewTokenIssuer(client cloud.CloudClient, logger zerolog.Logger) *TokenIssuer {
	return &TokenIssuer{
		Client: client,
		Logger: logger,
	}
}

// Issue requests a pairing token for session in timezone.
func (t *TokenIssuer) Issue(ctx context.Context, session models.SessionRef, timezone string) (models.PairingToken, error) {
	token, err := t.Client.CreatePairingToken(ctx, session, timezone)
	if err != nil {
		t.Logger.Error().Err(err).Str("timezone", timezone).Msg("Pairing token request failed")
		return models.PairingToken{}, &PhaseError{Phase: PhaseToken, Err: err}
	}

	t.Logger.Info().Str("token", token.Token).Str("region", token.Region).Msg("Pairing token issued")
	return token, nil
}
