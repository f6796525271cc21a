package utils_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/iot-link/internal/cloud"
	"github.com/benmeehan/iot-link/internal/constants"
	"github.com/benmeehan/iot-link/internal/mocks"
	"github.com/benmeehan/iot-link/internal/utils"
	"github.com/benmeehan/iot-link/pkg/file"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
account:
  email: a@b.com
  password: pw
cloud:
  api_key: key
  api_secret: secret
`)

	config, err := utils.LoadConfig(path, file.NewFileService())
	require.NoError(t, err)

	assert.Equal(t, cloud.BackendHTTP, config.Cloud.Backend)
	assert.Equal(t, constants.DefaultRegion, config.Cloud.Region)
	assert.Equal(t, constants.DefaultTimezone, config.Cloud.Timezone)
	assert.Equal(t, cloud.DefaultAPIVersion, config.Cloud.APIVersion)
	assert.Equal(t, constants.DefaultLinkTimeout, config.Provisioning.Timeout)
	assert.Equal(t, constants.DefaultPollInterval, config.Provisioning.PollInterval)
	assert.Equal(t, 1, config.Provisioning.Devices)
	assert.Equal(t, "info", config.Logging.Level)

	creds := config.Credentials()
	assert.Equal(t, "a@b.com", creds.Email)
	assert.Equal(t, "secret", creds.APISecret)
	assert.Equal(t, "AZ", creds.Region)
}

func TestLoadConfig_ParsesSections(t *testing.T) {
	path := writeConfig(t, `
cloud:
  backend: mqtt
  region: EU
  api_version: "2.1"
  max_retries: 3
  mqtt:
    broker: ssl://broker.local:8883
    topic: link/cloud
    qos: 1
    response_timeout: 5s
broadcast:
  port: 6668
  addresses: [192.168.1.255]
  interval: 100ms
provisioning:
  devices: 2
  timeout: 60s
`)

	config, err := utils.LoadConfig(path, file.NewFileService())
	require.NoError(t, err)

	opts := config.CloudOptions()
	assert.Equal(t, cloud.BackendMQTT, opts.Backend)
	assert.Equal(t, "ssl://broker.local:8883", opts.MQTT.Broker)
	assert.Equal(t, 5*time.Second, opts.MQTT.ResponseTimeout)
	assert.Equal(t, "EU", opts.Credentials.Region)
	assert.Equal(t, 3, opts.MaxRetries)
	assert.Equal(t, []string{"192.168.1.255"}, config.Broadcast.Addresses)
	assert.Equal(t, 100*time.Millisecond, config.Broadcast.Interval)
	assert.Equal(t, 2, config.Provisioning.Devices)
	assert.Equal(t, time.Minute, config.Provisioning.Timeout)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := utils.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), file.NewFileService())
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *utils.Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*utils.Config) {}},
		{name: "unknown backend", mutate: func(c *utils.Config) { c.Cloud.Backend = "grpc" }, wantErr: "unknown cloud.backend"},
		{name: "mqtt without broker", mutate: func(c *utils.Config) { c.Cloud.Backend = cloud.BackendMQTT }, wantErr: "broker is required"},
		{name: "mqtt bad qos", mutate: func(c *utils.Config) {
			c.Cloud.Backend = cloud.BackendMQTT
			c.Cloud.MQTT.Broker = "tcp://localhost:1883"
			c.Cloud.MQTT.QOS = 3
		}, wantErr: "qos"},
		{name: "unknown region", mutate: func(c *utils.Config) { c.Cloud.Region = "XX" }, wantErr: "unknown cloud.region"},
		{name: "unknown region with endpoint", mutate: func(c *utils.Config) {
			c.Cloud.Region = "XX"
			c.Cloud.Endpoint = "http://localhost/api.json"
		}},
		{name: "unsupported api version", mutate: func(c *utils.Config) { c.Cloud.APIVersion = "3.0" }, wantErr: "not supported"},
		{name: "negative devices", mutate: func(c *utils.Config) { c.Provisioning.Devices = -1 }, wantErr: "devices"},
		{name: "port out of range", mutate: func(c *utils.Config) { c.Broadcast.Port = 70000 }, wantErr: "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c utils.Config
			c.ApplyDefaults()
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfig_ReadError(t *testing.T) {
	fileClient := new(mocks.MockFileOperations)
	fileClient.On("ReadYamlFile", "configs/config.yaml", mock.Anything).Return(errors.New("yaml: line 3: mapping values are not allowed"))

	_, err := utils.LoadConfig("configs/config.yaml", fileClient)

	assert.ErrorContains(t, err, "mapping values")
	fileClient.AssertExpectations(t)
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	fileClient := new(mocks.MockFileOperations)
	fileClient.On("ReadYamlFile", "configs/config.yaml", mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*utils.Config).Cloud.Backend = "carrier-pigeon"
		}).
		Return(nil)

	_, err := utils.LoadConfig("configs/config.yaml", fileClient)

	assert.ErrorContains(t, err, "invalid configuration configs/config.yaml")
}
