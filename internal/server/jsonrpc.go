package server

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Message is a JSON-RPC 2.0 request, notification, or response.
type Message struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
	Result  any              `json:"result,omitempty"`
	Error   *RPCError        `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON-RPC error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// IsNotification reports whether the message expects no response.
func (m *Message) IsNotification() bool {
	return m.ID == nil
}

// messageWriter serializes newline-delimited messages onto one stream.
type messageWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func (w *messageWriter) write(msg *Message) error {
	if msg.JSONRPC == "" {
		msg.JSONRPC = "2.0"
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	body = append(body, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.out.Write(body)
	return err
}

func nullID() *json.RawMessage {
	raw := json.RawMessage("null")
	return &raw
}

func response(id *json.RawMessage, result any) *Message {
	return &Message{ID: id, Result: result}
}

func errorResponse(id *json.RawMessage, code int, message string) *Message {
	if id == nil {
		id = nullID()
	}
	return &Message{ID: id, Error: &RPCError{Code: code, Message: message}}
}
