package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/benmeehan/iot-link/internal/models"
)

// MockCloudClient is a mock implementation of the CloudClient interface
type MockCloudClient struct {
	mock.Mock
}

func (m *MockCloudClient) Login(ctx context.Context, creds models.Credentials) (models.SessionRef, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(models.SessionRef), args.Error(1)
}

func (m *MockCloudClient) CreatePairingToken(ctx context.Context, session models.SessionRef, timezone string) (models.PairingToken, error) {
	args := m.Called(ctx, session, timezone)
	return args.Get(0).(models.PairingToken), args.Error(1)
}

func (m *MockCloudClient) PollDeviceStatus(ctx context.Context, session models.SessionRef, token string) (models.PollResult, error) {
	args := m.Called(ctx, session, token)
	return args.Get(0).(models.PollResult), args.Error(1)
}

func (m *MockCloudClient) ListDevices(ctx context.Context, session models.SessionRef, filter models.DeviceFilter, page models.Page) (models.DevicePage, error) {
	args := m.Called(ctx, session, filter, page)
	return args.Get(0).(models.DevicePage), args.Error(1)
}

func (m *MockCloudClient) Close() error {
	args := m.Called()
	return args.Error(0)
}
