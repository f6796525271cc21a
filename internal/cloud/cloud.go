package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/benmeehan/iot-link/internal/models"
	"github.com/benmeehan/iot-link/pkg/file"
	"github.com/benmeehan/iot-link/pkg/mqtt"
)

// Cloud backends
const (
	// BackendHTTP selects the signed HTTP control-plane client.
	BackendHTTP = "http"
	// BackendMQTT selects the broker-based request/response control-plane client.
	BackendMQTT = "mqtt"
)

const (
	// DefaultAPIVersion is the control-plane API version used when none is configured.
	DefaultAPIVersion = "1.0"

	// SupportedAPIVersions is the range of control-plane API versions this client speaks.
	SupportedAPIVersions = ">= 1.0, < 3.0"
)

// RegionEndpoints maps region codes to control-plane API endpoints.
var RegionEndpoints = map[string]string{
	"AZ": "https://a1.tuyaus.com/api.json",
	"AY": "https://a1.tuyacn.com/api.json",
	"EU": "https://a1.tuyaeu.com/api.json",
	"IN": "https://a1.tuyain.com/api.json",
}

// CloudClient is the control-plane contract consumed by the provisioning services.
// Every method is a single request/response; retries and rate limits are the backend's concern.
type CloudClient interface {
	Login(ctx context.Context, creds models.Credentials) (models.SessionRef, error)
	CreatePairingToken(ctx context.Context, session models.SessionRef, timezone string) (models.PairingToken, error)
	PollDeviceStatus(ctx context.Context, session models.SessionRef, token string) (models.PollResult, error)
	ListDevices(ctx context.Context, session models.SessionRef, filter models.DeviceFilter, page models.Page) (models.DevicePage, error)
	Close() error
}

// Options configures a CloudClient.
type Options struct {
	Backend     string
	Credentials models.Credentials
	APIVersion  string
	Endpoint    string

	// HTTP backend
	RequestTimeout time.Duration
	MaxRetries     int
	BaseDelay      time.Duration
	MaxBackoff     time.Duration
	RateLimit      float64
	Burst          int

	MQTT MQTTOptions
}

// MQTTOptions configures the broker backend.
type MQTTOptions struct {
	Broker          string
	ClientID        string
	CACertificate   string
	Topic           string
	QOS             int
	ResponseTimeout time.Duration
}

// New returns the CloudClient for opts.Backend.
func New(opts Options, fileClient file.FileOperations, logger zerolog.Logger) (CloudClient, error) {
	version, err := ParseAPIVersion(opts.APIVersion)
	if err != nil {
		return nil, err
	}

	switch opts.Backend {
	case "", BackendHTTP:
		endpoint, err := EndpointFor(opts.Credentials.Region, opts.Endpoint)
		if err != nil {
			return nil, err
		}
		transport := newHTTPTransport(endpoint, version, opts, logger)
		return newClient(transport, opts.Credentials.Region, logger), nil

	case BackendMQTT:
		clientID := opts.MQTT.ClientID + "-" + uuid.New().String()
		logger.Info().Str("client_id", clientID).Str("broker", opts.MQTT.Broker).Msg("Connecting to control-plane broker")

		service := mqtt.NewMqttService(fileClient)
		if err := service.Initialize(opts.MQTT.Broker, clientID, opts.MQTT.CACertificate, opts.MQTT.ResponseTimeout); err != nil {
			return nil, fmt.Errorf("failed to initialize MQTT connection: %w", err)
		}

		transport, err := newMQTTTransport(service, opts.MQTT.Topic, clientID, byte(opts.MQTT.QOS),
			opts.MQTT.ResponseTimeout, version, logger)
		if err != nil {
			service.Disconnect(250)
			return nil, err
		}
		transport.disconnect = func() { service.Disconnect(250) }
		return newClient(transport, opts.Credentials.Region, logger), nil

	default:
		return nil, fmt.Errorf("unknown cloud backend %q", opts.Backend)
	}
}

// ParseAPIVersion validates v against SupportedAPIVersions and returns it as major.minor.
func ParseAPIVersion(v string) (string, error) {
	if v == "" {
		v = DefaultAPIVersion
	}

	ver, err := semver.NewVersion(v)
	if err != nil {
		return "", fmt.Errorf("invalid api version %q: %w", v, err)
	}

	constraint, err := semver.NewConstraint(SupportedAPIVersions)
	if err != nil {
		return "", err
	}
	if !constraint.Check(ver) {
		return "", fmt.Errorf("api version %s is not supported (want %s)", v, SupportedAPIVersions)
	}

	return fmt.Sprintf("%d.%d", ver.Major(), ver.Minor()), nil
}

// EndpointFor returns override when set, otherwise the endpoint of region.
func EndpointFor(region, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	endpoint, ok := RegionEndpoints[region]
	if !ok {
		return "", fmt.Errorf("unknown region %q", region)
	}
	return endpoint, nil
}
