package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/benmeehan/iot-link/internal/models"
	"github.com/benmeehan/iot-link/pkg/mqtt"
)

// mqttTransport publishes requests to <topic>/request and receives replies on
// <topic>/response/<clientID>, correlated by request id.
type mqttTransport struct {
	client          mqtt.MQTTClient
	requestTopic    string
	responseTopic   string
	qos             byte
	responseTimeout time.Duration
	version         string
	pending         cmap.ConcurrentMap[string, chan models.CloudReply]
	disconnect      func()
	logger          zerolog.Logger
}

func newMQTTTransport(client mqtt.MQTTClient, topic, clientID string, qos byte,
	responseTimeout time.Duration, version string, logger zerolog.Logger) (*mqttTransport, error) {

	if responseTimeout <= 0 {
		responseTimeout = 10 * time.Second
	}

	t := &mqttTransport{
		client:          client,
		requestTopic:    fmt.Sprintf("%s/request", topic),
		responseTopic:   fmt.Sprintf("%s/response/%s", topic, clientID),
		qos:             qos,
		responseTimeout: responseTimeout,
		version:         version,
		pending:         cmap.New[chan models.CloudReply](),
		logger:          logger,
	}

	t.logger.Info().Str("topic", t.responseTopic).Msg("Subscribing to response topic")
	token := client.Subscribe(t.responseTopic, qos, t.onReply)
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to subscribe to response topic: %w", err)
	}

	return t, nil
}

func (t *mqttTransport) onReply(_ MQTT.Client, msg MQTT.Message) {
	var reply models.CloudReply
	if err := json.Unmarshal(msg.Payload(), &reply); err != nil {
		t.logger.Error().Err(err).Str("topic", msg.Topic()).Msg("Error parsing control-plane reply")
		return
	}

	ch, ok := t.pending.Pop(reply.RequestID)
	if !ok {
		t.logger.Debug().Str("request_id", reply.RequestID).Msg("Dropping reply for unknown request")
		return
	}
	ch <- reply
}

func (t *mqttTransport) call(ctx context.Context, action, sid string, data any) (json.RawMessage, error) {
	rawData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s request: %w", action, err)
	}

	request := models.CloudRequest{
		RequestID: uuid.New().String(),
		Action:    action,
		Version:   t.version,
		Session:   sid,
		Data:      rawData,
	}
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s request: %w", action, err)
	}

	replies := make(chan models.CloudReply, 1)
	t.pending.Set(request.RequestID, replies)
	defer t.pending.Remove(request.RequestID)

	token := t.client.Publish(t.requestTopic, t.qos, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to publish %s request: %w", action, err)
	}

	timer := time.NewTimer(t.responseTimeout)
	defer timer.Stop()

	select {
	case reply := <-replies:
		if !reply.Success {
			return nil, &APIError{Action: action, Code: reply.ErrorCode, Message: reply.ErrorMsg}
		}
		return reply.Result, nil
	case <-timer.C:
		return nil, fmt.Errorf("%s: no response within %s", action, t.responseTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *mqttTransport) close() error {
	token := t.client.Unsubscribe(t.responseTopic)
	token.Wait()
	err := token.Error()
	if err != nil {
		t.logger.Warn().Err(err).Str("topic", t.responseTopic).Msg("Failed to unsubscribe from response topic")
	}
	if t.disconnect != nil {
		t.disconnect()
	}
	return err
}
