package cloud

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/benmeehan/iot-link/internal/models"
)

// Control-plane actions
const (
	ActionRegister     = "tuya.m.user.email.register"
	ActionLogin        = "tuya.m.user.email.password.login"
	ActionTokenCreate  = "tuya.m.device.token.create"
	ActionTokenDevices = "tuya.m.device.list.token"
	ActionDeviceList   = "tuya.m.my.group.device.list"
)

var countryCodes = map[string]string{
	"AZ": "1",
	"AY": "86",
	"EU": "44",
	"IN": "91",
}

// transport carries one action to the control plane and returns the envelope result.
type transport interface {
	call(ctx context.Context, action, sid string, data any) (json.RawMessage, error)
	close() error
}

// client implements CloudClient on top of a backend transport.
type client struct {
	transport transport
	region    string
	logger    zerolog.Logger
}

func newClient(t transport, region string, logger zerolog.Logger) *client {
	return &client{transport: t, region: region, logger: logger}
}

// Login registers the account, falling back to a password login when it already exists.
func (c *client) Login(ctx context.Context, creds models.Credentials) (models.SessionRef, error) {
	data := map[string]string{
		"countryCode": countryCodes[creds.Region],
		"email":       creds.Email,
		"passwd":      hashPassword(creds.Password),
	}

	raw, err := c.transport.call(ctx, ActionRegister, "", data)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == CodeUserExists {
		c.logger.Debug().Str("email", creds.Email).Msg("Account exists, logging in")
		raw, err = c.transport.call(ctx, ActionLogin, "", data)
	}
	if err != nil {
		return models.SessionRef{}, err
	}

	var result models.LoginResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return models.SessionRef{}, fmt.Errorf("failed to parse login response: %w", err)
	}
	if result.SID == "" {
		return models.SessionRef{}, errors.New("login response is missing the session id")
	}

	return models.SessionRef{SID: result.SID, UID: result.UID}, nil
}

// CreatePairingToken requests a single-use pairing token for timezone.
func (c *client) CreatePairingToken(ctx context.Context, session models.SessionRef, timezone string) (models.PairingToken, error) {
	raw, err := c.transport.call(ctx, ActionTokenCreate, session.SID, map[string]string{"timeZone": timezone})
	if err != nil {
		return models.PairingToken{}, err
	}

	var result models.TokenResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return models.PairingToken{}, fmt.Errorf("failed to parse token response: %w", err)
	}
	if result.Token == "" || result.Secret == "" {
		return models.PairingToken{}, errors.New("token response is missing the token or secret")
	}

	token := models.PairingToken{Token: result.Token, Secret: result.Secret, Region: result.Region}
	if token.Region == "" {
		token.Region = c.region
	}
	return token, nil
}

// PollDeviceStatus returns the devices that have checked in with token so far.
func (c *client) PollDeviceStatus(ctx context.Context, session models.SessionRef, token string) (models.PollResult, error) {
	raw, err := c.transport.call(ctx, ActionTokenDevices, session.SID, map[string]string{"token": token})
	if err != nil {
		return models.PollResult{}, err
	}

	var result models.TokenStatusResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return models.PollResult{}, fmt.Errorf("failed to parse token status response: %w", err)
	}

	devices, err := decodeDevices(result.SuccessDevices)
	if err != nil {
		return models.PollResult{}, err
	}
	return models.PollResult{MatchedDevices: devices, MatchedCount: len(devices)}, nil
}

// ListDevices returns one page of devices bound to the account.
func (c *client) ListDevices(ctx context.Context, session models.SessionRef, filter models.DeviceFilter, page models.Page) (models.DevicePage, error) {
	data := map[string]any{
		"pageNo":   page.Number,
		"pageSize": page.Size,
	}
	if len(filter.IDs) > 0 {
		data["devIds"] = filter.IDs
	}

	raw, err := c.transport.call(ctx, ActionDeviceList, session.SID, data)
	if err != nil {
		return models.DevicePage{}, err
	}

	var result models.DeviceListResult
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &result.Devices)
		result.Total = len(result.Devices)
	} else {
		err = json.Unmarshal(raw, &result)
	}
	if err != nil {
		return models.DevicePage{}, fmt.Errorf("failed to parse device list response: %w", err)
	}

	devices, err := decodeDevices(result.Devices)
	if err != nil {
		return models.DevicePage{}, err
	}
	return models.DevicePage{Devices: devices, Total: result.Total, Page: page}, nil
}

// Close releases the transport.
func (c *client) Close() error {
	return c.transport.close()
}

// wireDevice lists the device fields the control plane is known to send.
type wireDevice struct {
	ID        string `json:"id"`
	DevID     string `json:"devId"`
	Name      string `json:"name"`
	ProductID string `json:"productId"`
	IP        string `json:"ip"`
}

func decodeDevices(raws []json.RawMessage) ([]models.DeviceRecord, error) {
	devices := make([]models.DeviceRecord, 0, len(raws))
	for _, raw := range raws {
		var d wireDevice
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("failed to parse device record: %w", err)
		}
		id := d.DevID
		if id == "" {
			id = d.ID
		}
		devices = append(devices, models.DeviceRecord{
			ID:        id,
			Name:      d.Name,
			ProductID: d.ProductID,
			IP:        d.IP,
			Metadata:  raw,
		})
	}
	return devices, nil
}

// hashPassword renders the password the way the control plane expects it.
func hashPassword(password string) string {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}
