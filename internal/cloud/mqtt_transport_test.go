package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/iot-link/internal/mocks"
	"github.com/benmeehan/iot-link/internal/models"
)

// newBrokerClient wires a mqttTransport to a mock broker that answers every request with reply.
func newBrokerClient(t *testing.T, reply func(req models.CloudRequest) *models.CloudReply) (*client, *mocks.MockMQTTClient) {
	t.Helper()
	mockMqtt := new(mocks.MockMQTTClient)

	var handler MQTT.MessageHandler
	mockMqtt.On("Subscribe", "link/response/client-1", byte(1), mock.Anything).
		Run(func(args mock.Arguments) {
			handler = args.Get(2).(MQTT.MessageHandler)
		}).
		Return(mocks.NewCompletedToken(nil))

	mockMqtt.On("Publish", "link/request", byte(1), false, mock.Anything).
		Run(func(args mock.Arguments) {
			var req models.CloudRequest
			require.NoError(t, json.Unmarshal(args.Get(3).([]byte), &req))
			if r := reply(req); r != nil {
				payload, err := json.Marshal(r)
				require.NoError(t, err)
				handler(nil, mocks.NewMockMessage("link/response/client-1", payload))
			}
		}).
		Return(mocks.NewCompletedToken(nil))

	transport, err := newMQTTTransport(mockMqtt, "link", "client-1", 1, 50*time.Millisecond, "1.0", zerolog.Nop())
	require.NoError(t, err)

	return newClient(transport, "AZ", zerolog.Nop()), mockMqtt
}

func successReply(req models.CloudRequest, result any) *models.CloudReply {
	raw, _ := json.Marshal(result)
	return &models.CloudReply{
		RequestID:     req.RequestID,
		CloudResponse: models.CloudResponse{Success: true, Result: raw},
	}
}

func TestMQTTTransport_Login(t *testing.T) {
	c, mockMqtt := newBrokerClient(t, func(req models.CloudRequest) *models.CloudReply {
		assert.Equal(t, ActionRegister, req.Action)
		assert.Equal(t, "1.0", req.Version)
		return successReply(req, map[string]string{"sid": "sid-1", "uid": "uid-1"})
	})

	session, err := c.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "pw", Region: "AZ"})

	require.NoError(t, err)
	assert.Equal(t, "uid-1", session.UID)
	mockMqtt.AssertExpectations(t)
}

func TestMQTTTransport_PollCarriesSession(t *testing.T) {
	c, _ := newBrokerClient(t, func(req models.CloudRequest) *models.CloudReply {
		assert.Equal(t, ActionTokenDevices, req.Action)
		assert.Equal(t, "sid-1", req.Session)
		assert.JSONEq(t, `{"token":"tok"}`, string(req.Data))
		return successReply(req, map[string]any{"successDevices": []map[string]string{{"devId": "dev-1"}}})
	})

	result, err := c.PollDeviceStatus(context.Background(), models.SessionRef{SID: "sid-1"}, "tok")

	require.NoError(t, err)
	assert.Equal(t, 1, result.MatchedCount)
	assert.Equal(t, "dev-1", result.MatchedDevices[0].ID)
}

func TestMQTTTransport_ErrorReply(t *testing.T) {
	c, _ := newBrokerClient(t, func(req models.CloudRequest) *models.CloudReply {
		return &models.CloudReply{
			RequestID:     req.RequestID,
			CloudResponse: models.CloudResponse{Success: false, ErrorCode: "QUOTA", ErrorMsg: "too many tokens"},
		}
	})

	_, err := c.CreatePairingToken(context.Background(), models.SessionRef{SID: "sid"}, "-05:00")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "QUOTA", apiErr.Code)
}

func TestMQTTTransport_IgnoresUnknownReplies(t *testing.T) {
	c, _ := newBrokerClient(t, func(req models.CloudRequest) *models.CloudReply {
		return successReply(models.CloudRequest{RequestID: "someone-else"}, map[string]string{})
	})

	_, err := c.PollDeviceStatus(context.Background(), models.SessionRef{SID: "sid"}, "tok")

	assert.ErrorContains(t, err, "no response within")
}

func TestMQTTTransport_ContextCancelled(t *testing.T) {
	c, _ := newBrokerClient(t, func(models.CloudRequest) *models.CloudReply { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.PollDeviceStatus(ctx, models.SessionRef{SID: "sid"}, "tok")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestMQTTTransport_PublishFailure(t *testing.T) {
	mockMqtt := new(mocks.MockMQTTClient)
	mockMqtt.On("Subscribe", mock.Anything, mock.Anything, mock.Anything).Return(mocks.NewCompletedToken(nil))
	mockMqtt.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(mocks.NewCompletedToken(errors.New("not connected")))

	transport, err := newMQTTTransport(mockMqtt, "link", "client-1", 1, time.Second, "1.0", zerolog.Nop())
	require.NoError(t, err)

	_, err = transport.call(context.Background(), ActionTokenCreate, "sid", map[string]string{})
	assert.ErrorContains(t, err, "not connected")
	assert.Equal(t, 0, transport.pending.Count())
}

func TestMQTTTransport_SubscribeFailure(t *testing.T) {
	mockMqtt := new(mocks.MockMQTTClient)
	mockMqtt.On("Subscribe", mock.Anything, mock.Anything, mock.Anything).
		Return(mocks.NewCompletedToken(errors.New("denied")))

	_, err := newMQTTTransport(mockMqtt, "link", "client-1", 1, time.Second, "1.0", zerolog.Nop())
	assert.Error(t, err)
}

func TestMQTTTransport_CloseUnsubscribes(t *testing.T) {
	c, mockMqtt := newBrokerClient(t, func(models.CloudRequest) *models.CloudReply { return nil })
	mockMqtt.On("Unsubscribe", []string{"link/response/client-1"}).Return(mocks.NewCompletedToken(nil)).Once()

	assert.NoError(t, c.Close())
	mockMqtt.AssertCalled(t, "Unsubscribe", []string{"link/response/client-1"})
}
