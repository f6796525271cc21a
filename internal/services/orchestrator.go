package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
	"k8s.io/utils/clock"

	"github.com/benmeehan/iot-link/internal/broadcast"
	"github.com/benmeehan/iot-link/internal/cloud"
	"github.com/benmeehan/iot-link/internal/constants"
	"github.com/benmeehan/iot-link/internal/models"
)

// LinkOptions are the parameters of one link attempt. Zero values take defaults.
type LinkOptions struct {
	SSID         string
	WifiPassword string
	Devices      int
	Timeout      time.Duration
}

// Option configures a ProvisioningOrchestrator.
type Option func(*ProvisioningOrchestrator)

// WithClock sets the clock used by the poll loop and attempt timing.
func WithClock(clk clock.Clock) Option {
	return func(o *ProvisioningOrchestrator) { o.clock = clk }
}

// WithPollInterval sets the delay between device status queries.
func WithPollInterval(interval time.Duration) Option {
	return func(o *ProvisioningOrchestrator) { o.pollInterval = interval }
}

// WithRecorder sets the measurement sink.
func WithRecorder(recorder Recorder) Option {
	return func(o *ProvisioningOrchestrator) { o.recorder = recorder }
}

// WithTimezone sets the timezone sent with pairing token requests.
func WithTimezone(timezone string) Option {
	return func(o *ProvisioningOrchestrator) { o.timezone = timezone }
}

// WithDefaultTimeout sets the timeout used when LinkOptions.Timeout is zero.
func WithDefaultTimeout(timeout time.Duration) Option {
	return func(o *ProvisioningOrchestrator) { o.defaultTimeout = timeout }
}

// ProvisioningOrchestrator binds devices to the account: it logs in, issues a
// pairing token, broadcasts it with WiFi credentials and waits for the devices
// to report in. At most one link attempt runs at a time.
type ProvisioningOrchestrator struct {
	credentials    models.Credentials
	timezone       string
	defaultTimeout time.Duration
	pollInterval   time.Duration
	clock          clock.Clock
	recorder       Recorder
	logger         zerolog.Logger

	client     cloud.CloudClient
	sessions   *SessionManager
	tokens     *TokenIssuer
	broadcasts *BroadcastController
	poller     *ArrivalPoller

	linking atomic.Bool
}

// NewProvisioningOrchestrator wires the provisioning services around client and broadcaster.
func NewProvisioningOrchestrator(creds models.Credentials, client cloud.CloudClient,
	broadcaster broadcast.Broadcaster, logger zerolog.Logger, opts ...Option) *ProvisioningOrchestrator {

	if creds.Region == "" {
		creds.Region = constants.DefaultRegion
	}

	o := &ProvisioningOrchestrator{
		credentials:    creds,
		timezone:       constants.DefaultTimezone,
		defaultTimeout: constants.DefaultLinkTimeout,
		pollInterval:   constants.DefaultPollInterval,
		clock:          clock.RealClock{},
		recorder:       NopRecorder{},
		logger:         logger,
		client:         client,
	}
	for _, opt := range opts {
		opt(o)
	}

	o.sessions = NewSessionManager(client, logger)
	o.tokens = NewTokenIssuer(client, logger)
	o.broadcasts = NewBroadcastController(broadcaster, logger)
	o.poller = NewArrivalPoller(client, o.pollInterval, o.clock, logger)
	return o
}

// Init logs in and replaces the stored session. It may be called again to re-authenticate.
func (o *ProvisioningOrchestrator) Init(ctx context.Context) (models.SessionRef, error) {
	return o.sessions.Login(ctx, o.credentials)
}

// Session returns the current session and whether Init has succeeded.
func (o *ProvisioningOrchestrator) Session() (models.SessionRef, bool) {
	return o.sessions.Session()
}

// LinkDevice runs one provisioning attempt and returns the devices that reported
// in. The broadcast is stopped and released before it returns on every path
// past validation; a cleanup failure is logged and never replaces the result.
func (o *ProvisioningOrchestrator) LinkDevice(ctx context.Context, opts LinkOptions) (devices []models.DeviceRecord, err error) {
	started := o.clock.Now()

	opts, session, err := o.validateLink(opts)
	if err != nil {
		o.recorder.ObserveAttempt(constants.LinkOutcomeValidation, 0)
		return nil, err
	}

	if !o.linking.CompareAndSwap(false, true) {
		return nil, ErrLinkInProgress
	}
	defer o.linking.Store(false)

	logger := o.logger.With().Str("attempt_id", uuid.New().String()).Logger()
	logger.Info().
		Str("ssid", opts.SSID).
		Int("target", opts.Devices).
		Dur("timeout", opts.Timeout).
		Msg("Starting link attempt")

	defer func() {
		outcome := outcomeOf(err)
		o.recorder.ObserveAttempt(outcome, o.clock.Since(started))
		if err != nil {
			logger.Error().Err(err).Str("outcome", string(outcome)).Msg("Link attempt failed")
			return
		}
		logger.Info().Int("matched", len(devices)).Msg("Link attempt succeeded")
	}()

	bs := o.broadcasts.Open()
	defer func() {
		if cerr := bs.Close(); cerr != nil {
			for _, step := range cleanupSteps(cerr) {
				o.recorder.IncCleanupFailure(step)
			}
			logger.Error().Err(cerr).Msg("Broadcast cleanup failed")
		}
	}()

	token, err := o.tokens.Issue(ctx, session, o.timezone)
	if err != nil {
		return nil, err
	}

	region := token.Region
	if region == "" {
		region = o.credentials.Region
	}
	err = bs.Start(models.BroadcastConfig{
		Region:       region,
		Token:        token.Token,
		Secret:       token.Secret,
		SSID:         opts.SSID,
		WifiPassword: opts.WifiPassword,
	})
	if err != nil {
		return nil, err
	}

	report, err := o.poller.Run(ctx, session, token.Token, opts.Devices, opts.Timeout)
	o.recorder.ObservePolls(report.Polls)
	if err != nil {
		return nil, err
	}

	return report.Result.MatchedDevices, nil
}

// GetLinkedDevices lists devices already bound to the account. A zero pageSize
// means constants.DefaultPageSize.
func (o *ProvisioningOrchestrator) GetLinkedDevices(ctx context.Context, ids []string, pageNo, pageSize int) (models.DevicePage, error) {
	session, ok := o.sessions.Session()
	if !ok {
		return models.DevicePage{}, &ValidationError{Field: "session", Reason: "not initialized, call Init first"}
	}
	if pageNo < 0 {
		return models.DevicePage{}, &ValidationError{Field: "page", Reason: "must not be negative"}
	}
	if pageSize < 0 {
		return models.DevicePage{}, &ValidationError{Field: "page_size", Reason: "must not be negative"}
	}
	if pageSize == 0 {
		pageSize = constants.DefaultPageSize
	}

	page, err := o.client.ListDevices(ctx, session, models.DeviceFilter{IDs: ids}, models.Page{Number: pageNo, Size: pageSize})
	if err != nil {
		o.logger.Error().Err(err).Int("page", pageNo).Msg("Device listing failed")
		return models.DevicePage{}, &PhaseError{Phase: PhaseQuery, Err: err}
	}
	return page, nil
}

func (o *ProvisioningOrchestrator) validateLink(opts LinkOptions) (LinkOptions, models.SessionRef, error) {
	if opts.SSID == "" {
		return opts, models.SessionRef{}, &ValidationError{Field: "ssid", Reason: "must not be empty"}
	}
	if opts.Devices < 0 {
		return opts, models.SessionRef{}, &ValidationError{Field: "devices", Reason: "must not be negative"}
	}
	if opts.Timeout < 0 {
		return opts, models.SessionRef{}, &ValidationError{Field: "timeout", Reason: "must not be negative"}
	}

	session, ok := o.sessions.Session()
	if !ok {
		return opts, models.SessionRef{}, &ValidationError{Field: "session", Reason: "not initialized, call Init first"}
	}

	if opts.Devices == 0 {
		opts.Devices = constants.DefaultDeviceCount
	}
	if opts.Timeout == 0 {
		opts.Timeout = o.defaultTimeout
	}
	return opts, session, nil
}

func outcomeOf(err error) constants.LinkOutcome {
	switch {
	case err == nil:
		return constants.LinkOutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return constants.LinkOutcomeCancelled
	case errors.Is(err, ErrValidation):
		return constants.LinkOutcomeValidation
	case errors.Is(err, ErrToken):
		return constants.LinkOutcomeToken
	case errors.Is(err, ErrBroadcast):
		return constants.LinkOutcomeBroadcast
	case errors.Is(err, ErrTimeout):
		return constants.LinkOutcomeTimeout
	default:
		return constants.LinkOutcomePoll
	}
}

func cleanupSteps(err error) []string {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}

	steps := make([]string, 0, len(errs))
	for _, e := range errs {
		var cleanup *CleanupError
		if errors.As(e, &cleanup) {
			steps = append(steps, cleanup.Step)
		}
	}
	return steps
}
