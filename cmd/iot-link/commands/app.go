package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/benmeehan/iot-link/internal/broadcast"
	"github.com/benmeehan/iot-link/internal/cloud"
	"github.com/benmeehan/iot-link/internal/metrics"
	"github.com/benmeehan/iot-link/internal/services"
	"github.com/benmeehan/iot-link/internal/utils"
	"github.com/benmeehan/iot-link/pkg/file"
)

// app is the wired service graph a command runs against.
type app struct {
	config       *utils.Config
	logger       zerolog.Logger
	fileClient   file.FileOperations
	client       cloud.CloudClient
	broadcaster  *broadcast.UDPBroadcaster
	recorder     *metrics.Recorder
	orchestrator *services.ProvisioningOrchestrator
	metricsOut   string
}

func newApp(opts *rootOptions, logOut io.Writer) (*app, error) {
	fileClient := file.NewFileService()

	config, err := utils.LoadConfig(opts.configPath, fileClient)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.email != "" {
		config.Account.Email = opts.email
	}
	if opts.password != "" {
		config.Account.Password = opts.password
	}
	if opts.logLevel != "" {
		config.Logging.Level = opts.logLevel
	}
	if opts.logJSON {
		config.Logging.JSON = true
	}

	logger, err := newLogger(config.Logging.Level, config.Logging.JSON, logOut)
	if err != nil {
		return nil, err
	}

	var sharedKey []byte
	if config.Broadcast.KeyFile != "" {
		sharedKey, err = fileClient.ReadFileRaw(config.Broadcast.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read broadcast key: %w", err)
		}
	}

	client, err := cloud.New(config.CloudOptions(), fileClient, logger.With().Str("component", "cloud").Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud client: %w", err)
	}

	broadcaster := broadcast.NewUDPBroadcaster(broadcast.Options{
		Port:      config.Broadcast.Port,
		Addresses: config.Broadcast.Addresses,
		Interval:  config.Broadcast.Interval,
		Encoder:   broadcast.NewSealedEncoder(sharedKey),
	}, logger.With().Str("component", "broadcast").Logger())

	recorder := metrics.NewRecorder()

	orchestrator := services.NewProvisioningOrchestrator(config.Credentials(), client, broadcaster,
		logger.With().Str("component", "orchestrator").Logger(),
		services.WithTimezone(config.Cloud.Timezone),
		services.WithDefaultTimeout(config.Provisioning.Timeout),
		services.WithPollInterval(config.Provisioning.PollInterval),
		services.WithRecorder(recorder),
	)

	return &app{
		config:       config,
		logger:       logger,
		fileClient:   fileClient,
		client:       client,
		broadcaster:  broadcaster,
		recorder:     recorder,
		orchestrator: orchestrator,
		metricsOut:   opts.metricsOut,
	}, nil
}

// close releases the cloud client and the broadcast socket and writes metrics.
func (a *app) close() error {
	var errs []error
	if err := a.broadcaster.Release(); err != nil {
		errs = append(errs, err)
	}
	if err := a.client.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.metricsOut != "" {
		if err := a.recorder.WriteTextfile(a.metricsOut); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Shutdown finished with errors")
	}
	return err
}

func newLogger(level string, json bool, out io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if out == nil {
		out = os.Stderr
	}
	if !json {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
