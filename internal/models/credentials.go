package models

// Credentials holds the account and API credentials an orchestrator is built with.
type Credentials struct {
	// Email is the account login.
	Email string `json:"email" yaml:"email"`

	// Password is the account password.
	Password string `json:"-" yaml:"password"`

	// APIKey identifies the client application to the control plane.
	APIKey string `json:"api_key" yaml:"api_key"`

	// APISecret signs control-plane requests.
	APISecret string `json:"-" yaml:"api_secret"`

	// Region is the control-plane region code (AZ, AY, EU, IN).
	Region string `json:"region" yaml:"region"`

	// Schema is the backend-dependent application schema, optional.
	Schema string `json:"schema,omitempty" yaml:"schema"`
}

// SessionRef is the opaque handle returned by a successful login.
type SessionRef struct {
	// SID is the session id sent with authenticated requests.
	SID string `json:"sid"`

	// UID is the account uid.
	UID string `json:"uid"`
}

// IsZero reports whether the session has not been established.
func (s SessionRef) IsZero() bool {
	return s.SID == "" && s.UID == ""
}
