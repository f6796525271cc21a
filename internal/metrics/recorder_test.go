package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/iot-link/internal/constants"
	"github.com/benmeehan/iot-link/internal/services"
)

var _ services.Recorder = (*Recorder)(nil)

func TestRecorder_CountsAttempts(t *testing.T) {
	r := NewRecorder()

	r.ObserveAttempt(constants.LinkOutcomeSuccess, 3*time.Second)
	r.ObserveAttempt(constants.LinkOutcomeSuccess, time.Second)
	r.ObserveAttempt(constants.LinkOutcomeTimeout, 100*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.attemptsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.attemptsTotal.WithLabelValues("timeout")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.attemptDuration))
}

func TestRecorder_CleanupFailures(t *testing.T) {
	r := NewRecorder()

	r.IncCleanupFailure("stop")
	r.IncCleanupFailure("release")
	r.IncCleanupFailure("release")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.cleanupFailures.WithLabelValues("stop")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cleanupFailures.WithLabelValues("release")))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveAttempt(constants.LinkOutcomeCancelled, time.Second)
	r.ObservePolls(4)

	path := filepath.Join(t.TempDir(), "iot_link.prom")
	require.NoError(t, r.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `iot_link_link_attempts_total{outcome="cancelled"} 1`)
	assert.Contains(t, string(raw), "iot_link_link_polls_per_attempt_count 1")
}
