package models

// PairingToken is a single-use token scoping one provisioning attempt.
type PairingToken struct {
	Token  string `json:"token"`
	Secret string `json:"secret"`
	Region string `json:"region"`
}

// BroadcastConfig is the data transmitted to an unconfigured device.
type BroadcastConfig struct {
	Region       string `json:"region"`
	Token        string `json:"token"`
	Secret       string `json:"secret"`
	SSID         string `json:"ssid"`
	WifiPassword string `json:"password"`
}
