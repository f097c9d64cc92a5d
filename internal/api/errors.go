package api

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for the client error taxonomy. Callers classify with
// errors.Is and decide retry behavior from the marker alone: transport
// failures are retried by pollers only, server errors are surfaced, stale
// responses are discarded silently.
var (
	ErrTransport = errors.New("transport error")
	ErrServer    = errors.New("server error")
	ErrStale     = errors.New("stale response")
)

// StatusError carries the HTTP status and server-provided message for a
// failed request. It always matches ErrServer.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	message := strings.TrimSpace(e.Message)
	if message == "" {
		message = "request failed"
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, message)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrServer
}

// Wrap tags an error with a marker and operation context.
func Wrap(marker error, operation string, err error) error {
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, operation, err)
	}
	return fmt.Errorf("%w: %s", marker, operation)
}
