package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// Inbound message types sent by the dashboard page.
const (
	TypeHeartbeat = "heartbeat"
	TypeToggle    = "toggle"
	TypeFilter    = "filter"
	TypeRefresh   = "refresh"
)

// Outbound envelope types.
const (
	TypeConnection = "connection"
	TypeReport     = "report"
	TypeError      = "error"
	TypeShutdown   = "shutdown"
)

// Message is a request from the page. Filter fields are only read for
// TypeFilter; nil fields keep their value.
type Message struct {
	Type         string  `json:"type"`
	Maker        *string `json:"maker,omitempty"`
	Year         *int    `json:"year,omitempty"`
	Category     *string `json:"category,omitempty"`
	VehicleClass *string `json:"vehicle_class,omitempty"`
}

// ParseMessage decodes one text frame.
func ParseMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("invalid message: %w", err)
	}
	switch msg.Type {
	case TypeHeartbeat, TypeToggle, TypeFilter, TypeRefresh:
		return msg, nil
	case "":
		return Message{}, fmt.Errorf("invalid message: missing type")
	default:
		return Message{}, fmt.Errorf("invalid message: unknown type %q", msg.Type)
	}
}

// Envelope is every frame the server sends.
type Envelope struct {
	Type      string        `json:"type"`
	Data      interface{}   `json:"data,omitempty"`
	Error     *ErrorPayload `json:"error,omitempty"`
	TraceID   string        `json:"trace_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// ErrorPayload mirrors the problem fields the HTTP API returns.
type ErrorPayload struct {
	Status  int         `json:"status"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// NewEnvelope stamps an outbound frame.
func NewEnvelope(typ string, data interface{}) Envelope {
	return Envelope{Type: typ, Data: data, Timestamp: time.Now().UTC()}
}

// NewErrorEnvelope builds a TypeError frame.
func NewErrorEnvelope(status int, code, message string, details interface{}) Envelope {
	env := NewEnvelope(TypeError, nil)
	env.Error = &ErrorPayload{Status: status, Code: code, Message: message, Details: details}
	return env
}
