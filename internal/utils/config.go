package utils

import (
	"fmt"
	"time"

	"github.com/benmeehan/iot-link/internal/cloud"
	"github.com/benmeehan/iot-link/internal/constants"
	"github.com/benmeehan/iot-link/internal/models"
	"github.com/benmeehan/iot-link/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	Account struct {
		Email    string `yaml:"email"`    // Account login email
		Password string `yaml:"password"` // Account password
	} `yaml:"account"`

	Cloud struct {
		Backend        string        `yaml:"backend"`         // Control-plane backend: http or mqtt
		APIKey         string        `yaml:"api_key"`         // Client application key
		APISecret      string        `yaml:"api_secret"`      // Secret used to sign requests
		Region         string        `yaml:"region"`          // Region code (AZ, AY, EU, IN)
		Timezone       string        `yaml:"timezone"`        // Timezone sent with pairing token requests
		Schema         string        `yaml:"schema"`          // Backend-dependent application schema
		APIVersion     string        `yaml:"api_version"`     // Control-plane API version
		Endpoint       string        `yaml:"endpoint"`        // Overrides the region endpoint
		RequestTimeout time.Duration `yaml:"request_timeout"` // Timeout for a single HTTP request
		MaxRetries     int           `yaml:"max_retries"`     // Maximum number of retry attempts
		BaseDelay      time.Duration `yaml:"base_delay"`      // Initial delay between retries
		MaxBackoff     time.Duration `yaml:"max_backoff"`     // Maximum delay between retries
		RateLimit      float64       `yaml:"rate_limit"`      // Requests per second, 0 for unlimited
		Burst          int           `yaml:"burst"`           // Rate limiter burst size

		MQTT struct {
			Broker          string        `yaml:"broker"`           // MQTT broker address
			ClientID        string        `yaml:"client_id"`        // MQTT client ID prefix
			CACertificate   string        `yaml:"ca_certificate"`   // Path to the CA certificate
			Topic           string        `yaml:"topic"`            // Base topic for requests and responses
			QOS             int           `yaml:"qos"`              // MQTT QoS level for control-plane messages
			ResponseTimeout time.Duration `yaml:"response_timeout"` // Timeout for a response per request
		} `yaml:"mqtt"`
	} `yaml:"cloud"`

	Broadcast struct {
		Port      int           `yaml:"port"`      // UDP port devices listen on
		Addresses []string      `yaml:"addresses"` // Explicit targets, skips interface discovery
		Interval  time.Duration `yaml:"interval"`  // Delay between transmit rounds
		KeyFile   string        `yaml:"key_file"`  // Path to the shared key sealing broadcast frames
	} `yaml:"broadcast"`

	Provisioning struct {
		Devices      int           `yaml:"devices"`       // Number of devices a link attempt waits for
		Timeout      time.Duration `yaml:"timeout"`       // Bound on a single link attempt
		PollInterval time.Duration `yaml:"poll_interval"` // Delay between device status queries
	} `yaml:"provisioning"`

	Logging struct {
		Level string `yaml:"level"` // debug, info, warn or error
		JSON  bool   `yaml:"json"`  // JSON output instead of console output
	} `yaml:"logging"`
}

// ApplyDefaults fills unset fields with their default values.
func (c *Config) ApplyDefaults() {
	if c.Cloud.Backend == "" {
		c.Cloud.Backend = cloud.BackendHTTP
	}
	if c.Cloud.Region == "" {
		c.Cloud.Region = constants.DefaultRegion
	}
	if c.Cloud.Timezone == "" {
		c.Cloud.Timezone = constants.DefaultTimezone
	}
	if c.Cloud.APIVersion == "" {
		c.Cloud.APIVersion = cloud.DefaultAPIVersion
	}
	if c.Cloud.RequestTimeout == 0 {
		c.Cloud.RequestTimeout = 30 * time.Second
	}
	if c.Cloud.BaseDelay == 0 {
		c.Cloud.BaseDelay = 500 * time.Millisecond
	}
	if c.Cloud.MaxBackoff == 0 {
		c.Cloud.MaxBackoff = 10 * time.Second
	}
	if c.Cloud.MQTT.ClientID == "" {
		c.Cloud.MQTT.ClientID = "iot-link"
	}
	if c.Cloud.MQTT.Topic == "" {
		c.Cloud.MQTT.Topic = "iot-link/cloud"
	}
	if c.Cloud.MQTT.ResponseTimeout == 0 {
		c.Cloud.MQTT.ResponseTimeout = 10 * time.Second
	}
	if c.Provisioning.Devices == 0 {
		c.Provisioning.Devices = constants.DefaultDeviceCount
	}
	if c.Provisioning.Timeout == 0 {
		c.Provisioning.Timeout = constants.DefaultLinkTimeout
	}
	if c.Provisioning.PollInterval == 0 {
		c.Provisioning.PollInterval = constants.DefaultPollInterval
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for values the services cannot work with.
func (c *Config) Validate() error {
	switch c.Cloud.Backend {
	case cloud.BackendHTTP:
	case cloud.BackendMQTT:
		if c.Cloud.MQTT.Broker == "" {
			return fmt.Errorf("cloud.mqtt.broker is required for the %s backend", cloud.BackendMQTT)
		}
		if c.Cloud.MQTT.QOS < 0 || c.Cloud.MQTT.QOS > 2 {
			return fmt.Errorf("cloud.mqtt.qos must be 0, 1 or 2, got %d", c.Cloud.MQTT.QOS)
		}
	default:
		return fmt.Errorf("unknown cloud.backend %q", c.Cloud.Backend)
	}

	if _, ok := cloud.RegionEndpoints[c.Cloud.Region]; !ok && c.Cloud.Endpoint == "" {
		return fmt.Errorf("unknown cloud.region %q", c.Cloud.Region)
	}
	if _, err := cloud.ParseAPIVersion(c.Cloud.APIVersion); err != nil {
		return fmt.Errorf("cloud.api_version: %w", err)
	}
	if c.Cloud.MaxRetries < 0 {
		return fmt.Errorf("cloud.max_retries must not be negative")
	}
	if c.Provisioning.Devices < 0 {
		return fmt.Errorf("provisioning.devices must not be negative")
	}
	if c.Provisioning.Timeout < 0 || c.Provisioning.PollInterval < 0 {
		return fmt.Errorf("provisioning durations must not be negative")
	}
	if c.Broadcast.Port < 0 || c.Broadcast.Port > 65535 {
		return fmt.Errorf("broadcast.port %d is out of range", c.Broadcast.Port)
	}
	return nil
}

// Credentials returns the account and API credentials.
func (c *Config) Credentials() models.Credentials {
	return models.Credentials{
		Email:     c.Account.Email,
		Password:  c.Account.Password,
		APIKey:    c.Cloud.APIKey,
		APISecret: c.Cloud.APISecret,
		Region:    c.Cloud.Region,
		Schema:    c.Cloud.Schema,
	}
}

// CloudOptions returns the options for cloud.New.
func (c *Config) CloudOptions() cloud.Options {
	return cloud.Options{
		Backend:        c.Cloud.Backend,
		Credentials:    c.Credentials(),
		APIVersion:     c.Cloud.APIVersion,
		Endpoint:       c.Cloud.Endpoint,
		RequestTimeout: c.Cloud.RequestTimeout,
		MaxRetries:     c.Cloud.MaxRetries,
		BaseDelay:      c.Cloud.BaseDelay,
		MaxBackoff:     c.Cloud.MaxBackoff,
		RateLimit:      c.Cloud.RateLimit,
		Burst:          c.Cloud.Burst,
		MQTT: cloud.MQTTOptions{
			Broker:          c.Cloud.MQTT.Broker,
			ClientID:        c.Cloud.MQTT.ClientID,
			CACertificate:   c.Cloud.MQTT.CACertificate,
			Topic:           c.Cloud.MQTT.Topic,
			QOS:             c.Cloud.MQTT.QOS,
			ResponseTimeout: c.Cloud.MQTT.ResponseTimeout,
		},
	}
}

// LoadConfig loads the YAML configuration from the specified file, applies
// defaults and validates it.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", filename, err)
	}

	return &config, nil
}
