package models

import "encoding/json"

// CloudResponse is the envelope every control-plane response is wrapped in.
type CloudResponse struct {
	Success   bool            `json:"success"`
	ErrorCode string          `json:"errorCode,omitempty"`
	ErrorMsg  string          `json:"errorMsg,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// CloudRequest is a control-plane request carried over the broker.
type CloudRequest struct {
	RequestID string          `json:"request_id"`
	Action    string          `json:"action"`
	Version   string          `json:"version,omitempty"`
	Session   string          `json:"session,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// CloudReply is a broker response correlated to a CloudRequest.
type CloudReply struct {
	RequestID string `json:"request_id"`
	CloudResponse
}

// LoginResult is returned by the register and login actions.
type LoginResult struct {
	SID string `json:"sid"`
	UID string `json:"uid"`
}

// TokenResult is returned by the pairing token action.
type TokenResult struct {
	Token  string `json:"token"`
	Secret string `json:"secret"`
	Region string `json:"region"`
}

// TokenStatusResult is returned by the device-by-token status action.
type TokenStatusResult struct {
	SuccessDevices []json.RawMessage `json:"successDevices"`
}

// DeviceListResult is returned by the device listing action.
type DeviceListResult struct {
	Devices []json.RawMessage `json:"devices"`
	Total   int               `json:"total"`
}
