package cloud

import "fmt"

// CodeUserExists is returned by the register action for an existing account.
const CodeUserExists = "USER_NAME_IS_EXIST"

// APIError is a failure reported by the control plane.
type APIError struct {
	Action  string
	Code    string
	Message string
	// Status is the HTTP status, zero when the error came from the response envelope.
	Status int
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s failed with status %d: %s", e.Action, e.Status, e.Message)
	}
	return fmt.Sprintf("%s failed: %s (%s)", e.Action, e.Message, e.Code)
}
