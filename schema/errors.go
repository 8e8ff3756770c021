package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrTimeout indicates no response arrived within the request window.
	ErrTimeout = errors.New("request timed out")
	// ErrNotConnected indicates the transport has no live connection.
	ErrNotConnected = errors.New("not connected")
	// ErrConnectionLost indicates the server connection dropped mid-session.
	ErrConnectionLost = errors.New("connection lost")
)

// RemoteError is a failure reported by the server in a response.
type RemoteError struct {
	Kind    string
	Message string
}

func (e *RemoteError) Error() string {
	if e == nil {
		return ""
	}
	if e.Kind == "" {
		return e.Message
	}
	return e.Kind + ": " + e.Message
}
