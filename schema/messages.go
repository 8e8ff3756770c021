package schema

import (
	"encoding/json"

	"github.com/google/uuid"
)

// MessageKind identifies the request payload.
type MessageKind string

const (
	// KindGetMetadata asks the server to describe itself.
	KindGetMetadata MessageKind = "get_metadata"
	// KindLogin submits login fields.
	KindLogin MessageKind = "login"
	// KindEvaluate evaluates a query.
	KindEvaluate MessageKind = "evaluate"
	// KindExecute runs a named remote command.
	KindExecute MessageKind = "execute"
)

// Request is a tagged message sent to the server.
type Request struct {
	ID         uuid.UUID         `json:"id"`
	Kind       MessageKind       `json:"kind"`
	Timestamp  int64             `json:"timestamp,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Command    string            `json:"command,omitempty"`
	Parameters []any             `json:"parameters,omitempty"`
	Query      *Queryable        `json:"query,omitempty"`
	Login      map[string]string `json:"login,omitempty"`
}

// Queryable is a query as shipped to the server. Parameters are substituted
// positionally when Parameterized is set.
type Queryable struct {
	Query         string `json:"query"`
	Parameterized bool   `json:"parameterized,omitempty"`
	Parameters    []any  `json:"parameters,omitempty"`
}

// Failure is the failure indicator carried by a response.
type Failure struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// Response is a server reply correlated to a Request by ID.
type Response struct {
	ID      uuid.UUID       `json:"id"`
	Value   json.RawMessage `json:"value,omitempty"`
	Failure *Failure        `json:"failure,omitempty"`
}

// Err returns the remote failure carried by the response, if any.
func (r Response) Err() error {
	if r.Failure == nil {
		return nil
	}
	return &RemoteError{Kind: r.Failure.Kind, Message: r.Failure.Message}
}

// DecodeValue unmarshals the response value into v. An absent value leaves v untouched.
func (r Response) DecodeValue(v any) error {
	if len(r.Value) == 0 {
		return nil
	}
	return json.Unmarshal(r.Value, v)
}
