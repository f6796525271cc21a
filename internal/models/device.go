package models

import "encoding/json"

// DeviceRecord describes one device known to the control plane.
type DeviceRecord struct {
	// ID is the device id assigned by the control plane.
	ID string `json:"id"`

	// Name is the device display name, when known.
	Name string `json:"name,omitempty"`

	// ProductID identifies the device model.
	ProductID string `json:"productId,omitempty"`

	// IP is the address the device reported from.
	IP string `json:"ip,omitempty"`

	// Metadata holds the remaining fields of the record untouched.
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// PollResult is the snapshot returned by a single device status query.
type PollResult struct {
	MatchedDevices []DeviceRecord `json:"matchedDevices"`
	MatchedCount   int            `json:"matchedCount"`
}

// DeviceFilter narrows a device listing.
type DeviceFilter struct {
	IDs []string `json:"devIds,omitempty"`
}

// Page selects a window of a listing.
type Page struct {
	Number int `json:"pageNo"`
	Size   int `json:"pageSize"`
}

// DevicePage is one page of devices bound to the account.
type DevicePage struct {
	Devices []DeviceRecord `json:"devices"`
	Total   int            `json:"total"`
	Page    Page           `json:"page"`
}
