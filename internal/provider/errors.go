package provider

import (
	"errors"
	"fmt"
)

// ErrNotConfigured means no provider credential is set. The gateway keeps
// running in fallback-only mode; callers report it via Available().
var ErrNotConfigured = errors.New("provider: api key not configured")

// ErrBillingBlocked marks an HTTP 402 from the provider. It is a soft
// failure: the transport converts it to fallback output and never lets it
// reach a gateway caller.
var ErrBillingBlocked = errors.New("provider: billing blocked (402)")

// TransportError is a non-success, non-402 HTTP response from the provider.
type TransportError struct {
	Status  int
	Message string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("provider: status %d: %s", e.Status, e.Message)
}

// ExtractionError means no recognizable text field was found in an
// otherwise successful provider payload.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return "provider: " + e.Reason
}
