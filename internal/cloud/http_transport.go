package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/benmeehan/iot-link/internal/models"
	"github.com/benmeehan/iot-link/pkg/encryption"
)

const maxResponseSize = 1 << 20

// httpTransport posts signed form requests to the control-plane API endpoint.
type httpTransport struct {
	endpoint  string
	apiKey    string
	apiSecret string
	version   string
	schema    string

	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration

	logger zerolog.Logger
}

// retryableError marks a failure worth another attempt.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func newHTTPTransport(endpoint, version string, opts Options, logger zerolog.Logger) *httpTransport {
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &httpTransport{
		endpoint:   endpoint,
		apiKey:     opts.Credentials.APIKey,
		apiSecret:  opts.Credentials.APISecret,
		version:    version,
		schema:     opts.Credentials.Schema,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
		maxDelay:   opts.MaxBackoff,
		logger:     logger,
	}
}

func (h *httpTransport) call(ctx context.Context, action, sid string, data any) (json.RawMessage, error) {
	postData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s request: %w", action, err)
	}

	params := map[string]string{
		"a":         action,
		"clientId":  h.apiKey,
		"v":         h.version,
		"t":         strconv.FormatInt(time.Now().Unix(), 10),
		"lang":      "en",
		"os":        "Linux",
		"requestId": uuid.New().String(),
		"sid":       sid,
		"schema":    h.schema,
		"postData":  string(postData),
	}
	params["sign"] = encryption.SignParams(h.apiSecret, params)

	form := url.Values{}
	for k, v := range params {
		if v != "" {
			form.Set(k, v)
		}
	}

	body, err := h.postWithRetry(ctx, action, form)
	if err != nil {
		return nil, err
	}

	var resp models.CloudResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", action, err)
	}
	if !resp.Success {
		return nil, &APIError{Action: action, Code: resp.ErrorCode, Message: resp.ErrorMsg}
	}

	return resp.Result, nil
}

// postWithRetry retries transport failures, 429 and 5xx with capped exponential backoff and jitter.
func (h *httpTransport) postWithRetry(ctx context.Context, action string, form url.Values) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := h.post(ctx, action, form)
		if err == nil {
			return body, nil
		}

		var retryable *retryableError
		if !errors.As(err, &retryable) || attempt >= h.maxRetries {
			return nil, err
		}

		delay := h.backoff(attempt)
		h.logger.Warn().
			Err(err).
			Str("action", action).
			Int("attempt", attempt+1).
			Dur("retry_delay", delay).
			Msg("Control-plane request failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (h *httpTransport) post(ctx context.Context, action string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &retryableError{err: fmt.Errorf("%s request failed: %w", action, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("failed to read %s response: %w", action, err)}
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Action: action, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, &retryableError{err: apiErr}
		}
		return nil, apiErr
	}

	return body, nil
}

func (h *httpTransport) backoff(attempt int) time.Duration {
	delay := h.baseDelay * time.Duration(1<<uint(attempt))
	if h.maxDelay > 0 && delay > h.maxDelay {
		delay = h.maxDelay
	}
	return time.Duration(float64(delay) * (0.5 + rand.Float64()*0.5))
}

func (h *httpTransport) close() error {
	h.httpClient.CloseIdleConnections()
	return nil
}
