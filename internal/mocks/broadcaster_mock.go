package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/benmeehan/iot-link/internal/models"
)

// MockBroadcaster is a mock implementation of the Broadcaster interface
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) Start(cfg models.BroadcastConfig) error {
	args := m.Called(cfg)
	return args.Error(0)
}

func (m *MockBroadcaster) Stop() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockBroadcaster) Release() error {
	args := m.Called()
	return args.Error(0)
}
