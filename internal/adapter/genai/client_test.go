package genai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/visionassist/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/"
	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	return c
}

func writeCandidate(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"`+text+`"}]}}]}`)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), DefaultConfig(""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestSendTextUsesGenerationConfig(t *testing.T) {
	var body string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent"), r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		writeCandidate(w, "hi there")
	})

	chat, err := c.NewChat(context.Background())
	require.NoError(t, err)

	reply := c.SendText(context.Background(), chat, "hello")
	require.False(t, reply.Failed(), reply.String())
	assert.Equal(t, "hi there", reply.String())
	assert.Contains(t, body, "hello")
	assert.Contains(t, body, `"topK":40`)
	assert.Contains(t, body, `"maxOutputTokens":8192`)
	assert.Contains(t, body, `"responseMimeType":"text/plain"`)
}

func TestSendTextCarriesChatHistory(t *testing.T) {
	var calls atomic.Int32
	var second string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if calls.Add(1) == 2 {
			second = string(raw)
		}
		writeCandidate(w, "ack")
	})

	chat, err := c.NewChat(context.Background())
	require.NoError(t, err)

	c.SendText(context.Background(), chat, "first message")
	c.SendText(context.Background(), chat, "second message")

	assert.Contains(t, second, "first message")
	assert.Contains(t, second, "second message")
}

func TestSendTextEmptyResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	})

	chat, err := c.NewChat(context.Background())
	require.NoError(t, err)

	reply := c.SendText(context.Background(), chat, "hello")
	assert.Equal(t, NoResponseText, reply.String())
}

func TestSendTextTransportFault(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"code":500,"message":"backend down","status":"INTERNAL"}}`)
	})

	chat, err := c.NewChat(context.Background())
	require.NoError(t, err)

	reply := c.SendText(context.Background(), chat, "hello")
	require.True(t, reply.Failed())
	assert.True(t, errors.Is(reply.Err, domain.ErrTransport))
	assert.True(t, strings.HasPrefix(reply.String(), "Error: "))
}

func TestSendMultimodalInlinesImage(t *testing.T) {
	var body string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		writeCandidate(w, "a cat")
	})

	reply := c.SendMultimodal(context.Background(), "Here is an image.", []byte("fake-png"), "image/png")
	require.False(t, reply.Failed(), reply.String())
	assert.Equal(t, "a cat", reply.String())
	assert.Contains(t, body, "inlineData")
	assert.Contains(t, body, `"mimeType":"image/png"`)
	assert.Contains(t, body, "Here is an image.")
}

func TestSendMultimodalFault(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"bad image","status":"INVALID_ARGUMENT"}}`)
	})

	reply := c.SendMultimodal(context.Background(), "p", []byte("x"), "image/png")
	assert.True(t, strings.HasPrefix(reply.String(), "Error analyzing image: "))
}
