package services_test

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/iot-link/internal/broadcast"
	"github.com/benmeehan/iot-link/internal/mocks"
	"github.com/benmeehan/iot-link/internal/services"
)

func TestBroadcastSession_CloseRunsOnce(t *testing.T) {
	b := new(mocks.MockBroadcaster)
	b.On("Start", homeWifi).Return(nil)
	b.On("Stop").Return(nil)
	b.On("Release").Return(nil)

	session := services.NewBroadcastController(b, zerolog.Nop()).Open()
	require.NoError(t, session.Start(homeWifi))

	assert.NoError(t, session.Close())
	assert.NoError(t, session.Close())
	b.AssertNumberOfCalls(t, "Stop", 1)
	b.AssertNumberOfCalls(t, "Release", 1)
}

func TestBroadcastSession_CloseWithoutStart(t *testing.T) {
	b := new(mocks.MockBroadcaster)
	b.On("Stop").Return(nil)
	b.On("Release").Return(nil)

	session := services.NewBroadcastController(b, zerolog.Nop()).Open()

	assert.NoError(t, session.Close())
	b.AssertNumberOfCalls(t, "Stop", 1)
	b.AssertNumberOfCalls(t, "Release", 1)
	assert.Error(t, session.Start(homeWifi))
	b.AssertNotCalled(t, "Start", homeWifi)
}

func TestBroadcastSession_StartsOnce(t *testing.T) {
	b := new(mocks.MockBroadcaster)
	b.On("Start", homeWifi).Return(nil)

	session := services.NewBroadcastController(b, zerolog.Nop()).Open()
	require.NoError(t, session.Start(homeWifi))

	assert.ErrorIs(t, session.Start(homeWifi), broadcast.ErrBroadcastActive)
	b.AssertNumberOfCalls(t, "Start", 1)
}

func TestBroadcastSession_ReleaseRunsWhenStopFails(t *testing.T) {
	b := new(mocks.MockBroadcaster)
	b.On("Stop").Return(errors.New("stuck"))
	b.On("Release").Return(nil)

	err := services.NewBroadcastController(b, zerolog.Nop()).Open().Close()

	var cleanup *services.CleanupError
	require.ErrorAs(t, err, &cleanup)
	assert.Equal(t, "stop", cleanup.Step)
	b.AssertNumberOfCalls(t, "Release", 1)
}
