// Package protocol defines the WebSocket message protocol between chat clients and the assistant.
package protocol

import "github.com/xiaot623/visionassist/internal/domain"

// Message types from client to server
const (
	TypeHello = "hello"
	TypeChat  = "chat"
	TypeClear = "clear"
	TypeReset = "reset"
)

// Message types from server to client
const (
	TypeHelloAck = "hello_ack"
	TypeReply    = "reply"
	TypeCleared  = "cleared"
	TypeError    = "error"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// HelloMessage is sent by the client to bind the connection to a session.
// An empty SessionID asks the server to start a new one.
type HelloMessage struct {
	BaseMessage
	ClientMeta map[string]string `json:"client_meta,omitempty"`
}

// HelloAckMessage carries the bound session ID.
type HelloAckMessage struct {
	BaseMessage
}

// ChatMessage submits one user message.
type ChatMessage struct {
	BaseMessage
	Content string `json:"content"`
}

// ReplyMessage carries the assistant reply and the full history.
type ReplyMessage struct {
	BaseMessage
	Content string        `json:"content"`
	Failed  bool          `json:"failed,omitempty"`
	History []domain.Turn `json:"history"`
}

// ClearedMessage confirms a clear or reset.
type ClearedMessage struct {
	BaseMessage
	ChatReset bool          `json:"chat_reset"`
	History   []domain.Turn `json:"history"`
}

// ErrorMessage is sent when a request cannot be processed.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrorCodeInvalidMessage  = "invalid_message"
	ErrorCodeSessionRequired = "session_required"
	ErrorCodeInternalError   = "internal_error"
)
