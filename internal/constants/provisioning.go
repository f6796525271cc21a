package constants

import "time"

const (
	// DefaultRegion is the Americas region code.
	DefaultRegion = "AZ"

	// DefaultTimezone is sent with pairing token requests when none is configured.
	DefaultTimezone = "-05:00"

	// DefaultDeviceCount is the number of devices a link attempt waits for.
	DefaultDeviceCount = 1

	// DefaultLinkTimeout bounds a single link attempt.
	DefaultLinkTimeout = 100 * time.Second

	// DefaultPollInterval is the fixed delay between device status queries.
	DefaultPollInterval = 1 * time.Second

	// DefaultPageSize is used by device listing when no page size is given.
	DefaultPageSize = 100

	// DefaultConfigFile is read by the CLI when --config is not given.
	DefaultConfigFile = "configs/config.yaml"
)
