// Package main provides a terminal chat client for the assistant WebSocket endpoint.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/gorilla/websocket"

	"github.com/xiaot623/visionassist/internal/transport/protocol"
)

var (
	promptColor = color.New(color.FgCyan, color.Bold)
	infoColor   = color.New(color.FgHiBlack)
	errorColor  = color.New(color.FgRed)
)

// Client represents a WebSocket chat client.
type Client struct {
	conn      *websocket.Conn
	sessionID string
	done      chan struct{}
}

// NewClient creates a new client and connects to the server.
func NewClient(addr string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Client{
		conn: conn,
		done: make(chan struct{}),
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	close(c.done)
	return c.conn.Close()
}

// SendHello binds the connection to sessionID (or a fresh session when empty)
// and waits for hello_ack.
func (c *Client) SendHello(sessionID string) error {
	msg := protocol.HelloMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeHello,
			Ts:        time.Now().UnixMilli(),
			SessionID: sessionID,
		},
		ClientMeta: map[string]string{
			"client": "assistant-cli",
		},
	}

	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write hello: %w", err)
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read hello_ack: %w", err)
	}

	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return fmt.Errorf("unmarshal hello_ack: %w", err)
	}

	if base.Type == protocol.TypeError {
		var errMsg protocol.ErrorMessage
		_ = json.Unmarshal(data, &errMsg)
		return fmt.Errorf("hello failed: %s - %s", errMsg.Code, errMsg.Message)
	}

	if base.Type != protocol.TypeHelloAck {
		return fmt.Errorf("expected hello_ack, got: %s", base.Type)
	}

	c.sessionID = base.SessionID
	return nil
}

// SendChat submits one message.
func (c *Client) SendChat(content string) error {
	return c.conn.WriteJSON(protocol.ChatMessage{
		BaseMessage: c.base(protocol.TypeChat),
		Content:     content,
	})
}

// SendControl sends a clear or reset request.
func (c *Client) SendControl(msgType string) error {
	return c.conn.WriteJSON(c.base(msgType))
}

func (c *Client) base(msgType string) protocol.BaseMessage {
	return protocol.BaseMessage{
		Type:      msgType,
		Ts:        time.Now().UnixMilli(),
		SessionID: c.sessionID,
		RequestID: fmt.Sprintf("req_%d", time.Now().UnixNano()),
	}
}

// ReadMessages reads and renders messages from the server.
func (c *Client) ReadMessages() {
	for {
		select {
		case <-c.done:
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("Read error: %v", err)
				}
				return
			}
			render(data)
		}
	}
}

func render(data []byte) {
	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		log.Printf("Unmarshal error: %v", err)
		return
	}

	switch base.Type {
	case protocol.TypeReply:
		var msg protocol.ReplyMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Unmarshal error: %v", err)
			return
		}
		if msg.Failed {
			errorColor.Printf("\n%s\n", msg.Content)
			break
		}
		out, err := glamour.Render(msg.Content, "dark")
		if err != nil {
			out = msg.Content + "\n"
		}
		fmt.Printf("\n%s", out)
	case protocol.TypeCleared:
		var msg protocol.ClearedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Unmarshal error: %v", err)
			return
		}
		if msg.ChatReset {
			infoColor.Println("\nConversation reset.")
		} else {
			infoColor.Println("\nHistory cleared.")
		}
	case protocol.TypeError:
		var msg protocol.ErrorMessage
		_ = json.Unmarshal(data, &msg)
		errorColor.Printf("\n[%s] %s\n", msg.Code, msg.Message)
	default:
		infoColor.Printf("\n[%s] %s\n", base.Type, string(data))
	}
	promptColor.Print("> ")
}

func main() {
	addr := flag.String("addr", "ws://localhost:7860/ws", "WebSocket server address")
	sessionID := flag.String("session", "", "Session ID to resume; empty starts a new session")
	flag.Parse()

	log.SetFlags(log.Ltime)

	fmt.Printf("Connecting to %s...\n", *addr)

	client, err := NewClient(*addr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	if err := client.SendHello(*sessionID); err != nil {
		log.Fatalf("Hello failed: %v", err)
	}

	fmt.Printf("Session established: %s\n", client.sessionID)
	fmt.Println("\nType a message and press Enter to send.")
	infoColor.Println("Commands: /clear, /reset, /quit")
	fmt.Println()

	go client.ReadMessages()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	scanner := bufio.NewScanner(os.Stdin)

	for {
		promptColor.Print("> ")
		select {
		case <-interrupt:
			fmt.Println("\nInterrupted")
			return
		default:
			if !scanner.Scan() {
				return
			}

			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}

			switch input {
			case "/quit":
				fmt.Println("Bye!")
				return
			case "/clear":
				err = client.SendControl(protocol.TypeClear)
			case "/reset":
				err = client.SendControl(protocol.TypeReset)
			default:
				err = client.SendChat(input)
			}
			if err != nil {
				log.Printf("Send error: %v", err)
			}
		}
	}
}
