package broadcast_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/iot-link/internal/broadcast"
	"github.com/benmeehan/iot-link/internal/models"
)

var testConfig = models.BroadcastConfig{
	Region:       "AZ",
	Token:        "tok-123",
	Secret:       "sec",
	SSID:         "home",
	WifiPassword: "hunter2",
}

func TestSealedEncoder_RoundTrip(t *testing.T) {
	key := []byte("shared-secret")
	frames, err := broadcast.NewSealedEncoder(key).Encode(testConfig)
	require.NoError(t, err)
	require.Len(t, frames, 1)

	assert.NotContains(t, string(frames[0]), "hunter2")

	decoded, err := broadcast.DecodeFrame(frames[0], key)
	require.NoError(t, err)
	assert.Equal(t, testConfig, decoded)
}

func TestSealedEncoder_Unsealed(t *testing.T) {
	frames, err := broadcast.NewSealedEncoder(nil).Encode(testConfig)
	require.NoError(t, err)

	assert.Contains(t, string(frames[0]), `"ssid":"home"`)

	decoded, err := broadcast.DecodeFrame(frames[0], nil)
	require.NoError(t, err)
	assert.Equal(t, testConfig, decoded)
}

func TestSealedEncoder_WrongKey(t *testing.T) {
	frames, err := broadcast.NewSealedEncoder([]byte("a")).Encode(testConfig)
	require.NoError(t, err)

	_, err = broadcast.DecodeFrame(frames[0], []byte("b"))
	assert.Error(t, err)

	_, err = broadcast.DecodeFrame(frames[0], nil)
	assert.ErrorContains(t, err, "sealed")
}

func TestSealedEncoder_Rejects(t *testing.T) {
	enc := broadcast.NewSealedEncoder(nil)

	_, err := enc.Encode(models.BroadcastConfig{SSID: "home"})
	assert.ErrorContains(t, err, "token is empty")

	cfg := testConfig
	cfg.Token = strings.Repeat("t", 256)
	_, err = enc.Encode(cfg)
	assert.ErrorContains(t, err, "limit is 255")

	cfg = testConfig
	cfg.WifiPassword = strings.Repeat("p", broadcast.MaxDatagramSize)
	_, err = enc.Encode(cfg)
	assert.ErrorContains(t, err, "limit is 1400")
}

func TestDecodeFrame_Garbage(t *testing.T) {
	_, err := broadcast.DecodeFrame([]byte("hello world"), nil)
	assert.ErrorContains(t, err, "not a provisioning frame")

	_, err = broadcast.DecodeFrame([]byte("IOTL\x01\x00\x09abc"), nil)
	assert.ErrorContains(t, err, "truncated")
}
