// Package ws serves the chat session over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/visionassist/internal/adapter/genai"
	"github.com/xiaot623/visionassist/internal/domain"
	"github.com/xiaot623/visionassist/internal/transport/hub"
	"github.com/xiaot623/visionassist/internal/transport/protocol"
)

// ChatService is the part of the service layer the WebSocket server drives.
type ChatService interface {
	CreateSession(ctx context.Context) (*domain.Session, error)
	Submit(ctx context.Context, sessionID, message string) (genai.Reply, []domain.Turn, error)
	Clear(ctx context.Context, sessionID string) ([]domain.Turn, error)
	Reset(ctx context.Context, sessionID string) ([]domain.Turn, error)
}

// Config holds connection timing and size limits.
type Config struct {
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
}

// Server handles WebSocket connections.
type Server struct {
	cfg      Config
	hub      *hub.Hub
	service  ChatService
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(cfg Config, h *hub.Hub, svc ChatService) *Server {
	return &Server{
		cfg:     cfg,
		hub:     h,
		service: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("failed to upgrade websocket", "error", err)
		return err
	}

	conn := s.hub.NewConnection(ws)
	s.hub.Register(conn)

	ws.SetReadLimit(s.cfg.MaxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// inboxSize bounds the messages a connection may have queued while an earlier one
// is still being handled.
const inboxSize = 64

// readPump reads messages from the WebSocket connection and hands them to a
// single worker, so a connection's messages are handled in the order they arrived.
func (s *Server) readPump(conn *hub.Connection) {
	inbox := make(chan []byte, inboxSize)
	go s.work(conn, inbox)

	defer func() {
		close(inbox)
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read failed", "conn_id", conn.ID, "error", err)
			}
			break
		}

		inbox <- message
	}
}

// work handles one connection's messages one at a time. Reading keeps going
// meanwhile so pongs still extend the read deadline.
func (s *Server) work(conn *hub.Connection, inbox <-chan []byte) {
	for message := range inbox {
		s.handleMessage(conn, message)
	}
}

// writePump writes messages to the WebSocket connection.
func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Warn("websocket write failed", "conn_id", conn.ID, "error", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches incoming messages to appropriate handlers.
func (s *Server) handleMessage(conn *hub.Connection, data []byte) {
	var baseMsg protocol.BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch baseMsg.Type {
	case protocol.TypeHello:
		s.handleHello(conn, data)
	case protocol.TypeChat:
		s.handleChat(conn, data)
	case protocol.TypeClear, protocol.TypeReset:
		s.handleClear(conn, baseMsg)
	default:
		s.sendError(conn, baseMsg.RequestID, protocol.ErrorCodeInvalidMessage, "unknown message type: "+baseMsg.Type)
	}
}

// handleHello binds the connection to the requested session or a new one.
func (s *Server) handleHello(conn *hub.Connection, data []byte) {
	var msg protocol.HelloMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid hello message")
		return
	}

	sessionID := msg.SessionID
	if sessionID == "" {
		session, err := s.service.CreateSession(context.Background())
		if err != nil {
			s.sendError(conn, msg.RequestID, protocol.ErrorCodeInternalError, err.Error())
			return
		}
		sessionID = session.SessionID
	}

	s.hub.BindSession(conn, sessionID)

	ack := protocol.HelloAckMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeHelloAck,
			Ts:        time.Now().UnixMilli(),
			RequestID: msg.RequestID,
			SessionID: sessionID,
		},
	}
	s.hub.SendJSONToConnection(conn, ack)

	slog.Info("hello handshake completed", "session_id", sessionID)
}

// handleChat submits the message. The reply goes to every connection of the session.
func (s *Server) handleChat(conn *hub.Connection, data []byte) {
	var msg protocol.ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid chat message")
		return
	}

	sessionID := s.hub.SessionOf(conn)
	if sessionID == "" {
		s.sendError(conn, msg.RequestID, protocol.ErrorCodeSessionRequired, "must send hello first")
		return
	}
	if msg.Content == "" {
		s.sendError(conn, msg.RequestID, protocol.ErrorCodeInvalidMessage, "content is required")
		return
	}

	reply, history, err := s.service.Submit(context.Background(), sessionID, msg.Content)
	if err != nil {
		slog.Error("submit failed", "session_id", sessionID, "error", err)
		s.sendErrorToSession(sessionID, msg.RequestID, protocol.ErrorCodeInternalError, err.Error())
		return
	}

	s.hub.BroadcastJSON(sessionID, protocol.ReplyMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeReply,
			Ts:        time.Now().UnixMilli(),
			RequestID: msg.RequestID,
			SessionID: sessionID,
		},
		Content: reply.String(),
		Failed:  reply.Failed(),
		History: history,
	})
}

// handleClear clears the session history, also replacing the remote chat on reset.
func (s *Server) handleClear(conn *hub.Connection, msg protocol.BaseMessage) {
	sessionID := s.hub.SessionOf(conn)
	if sessionID == "" {
		s.sendError(conn, msg.RequestID, protocol.ErrorCodeSessionRequired, "must send hello first")
		return
	}

	reset := msg.Type == protocol.TypeReset
	clearFn := s.service.Clear
	if reset {
		clearFn = s.service.Reset
	}

	history, err := clearFn(context.Background(), sessionID)
	if err != nil {
		s.sendErrorToSession(sessionID, msg.RequestID, protocol.ErrorCodeInternalError, err.Error())
		return
	}
	s.hub.BroadcastJSON(sessionID, protocol.ClearedMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeCleared,
			Ts:        time.Now().UnixMilli(),
			RequestID: msg.RequestID,
			SessionID: sessionID,
		},
		ChatReset: reset,
		History:   history,
	})
}

// sendError sends an error message to a connection.
func (s *Server) sendError(conn *hub.Connection, requestID, code, message string) {
	errMsg := protocol.ErrorMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeError,
			Ts:        time.Now().UnixMilli(),
			RequestID: requestID,
			SessionID: s.hub.SessionOf(conn),
		},
		Code:    code,
		Message: message,
	}
	s.hub.SendJSONToConnection(conn, errMsg)
}

// sendErrorToSession sends an error message to all connections of a session.
func (s *Server) sendErrorToSession(sessionID, requestID, code, message string) {
	errMsg := protocol.ErrorMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeError,
			Ts:        time.Now().UnixMilli(),
			RequestID: requestID,
			SessionID: sessionID,
		},
		Code:    code,
		Message: message,
	}
	s.hub.BroadcastJSON(sessionID, errMsg)
}
