package api

import (
	"errors"
	"fmt"
)

// Lifecycle and call-path errors. Connection errors go to whoever called
// Connect/Close; call-path errors go to the specific caller whose request
// failed. Nothing here terminates the process.
var (
	// ErrAlreadyConnected is returned by Connect when a connection is open.
	ErrAlreadyConnected = errors.New("already connected to the API")

	// ErrNotConnected is returned when an operation needs an open connection.
	ErrNotConnected = errors.New("not connected to the API")

	// ErrTimeout is returned when the API does not reply within the wait budget.
	ErrTimeout = errors.New("API took too long to respond")

	// ErrUnknownRequest indicates a reply was requested for an id that was
	// never issued or whose reply was already claimed. Normal call paths
	// never trigger this; it flags a program bug.
	ErrUnknownRequest = errors.New("request never queued or response already consumed")

	// ErrAlreadyConsumed indicates the filed reply vanished between being
	// signalled and being claimed. Also a program bug if it ever fires.
	ErrAlreadyConsumed = errors.New("response already consumed by something else")

	// ErrMissingIdentifier is returned when pushing a resource that has no
	// stable identifier assigned yet.
	ErrMissingIdentifier = errors.New("cannot send a case without an id to the API")
)

// VersionMismatchError is returned by Connect when the server's advertised
// API version differs from the handler's declared version.
type VersionMismatchError struct {
	Handler string
	Server  string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("tried to connect to %s API with %s handler", e.Server, e.Handler)
}

// ProtocolError indicates the server sent rubbish at the API boundary,
// such as an unparseable connect message.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// StatusError is an HTTP-style error frame from the API. The transport does
// not echo request ids on error frames, so these can only be logged by the
// dispatch loop, never attributed to a pending request.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	switch e.Code {
	case 401:
		return "(401) API token required, but not provided"
	case 403:
		return "(403) insufficient permissions"
	case 500:
		return "(500) internal server error in the API"
	default:
		return fmt.Sprintf("(%d) unexpected API status", e.Code)
	}
}
