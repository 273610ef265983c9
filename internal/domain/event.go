package domain

import "encoding/json"

// Event represents an audit record of a call made on behalf of a session.
type Event struct {
	EventID   string          `json:"event_id"`
	SessionID string          `json:"session_id"`
	Ts        int64           `json:"ts"` // Unix milliseconds
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// GenAICallDonePayload is the payload of a genai_call_done event.
type GenAICallDonePayload struct {
	Model     string `json:"model"`
	Kind      string `json:"kind"` // text, multimodal, media
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// AnalysisDonePayload is the payload of an analysis_done event.
type AnalysisDonePayload struct {
	Detections int    `json:"detections"`
	Enhancer   string `json:"enhancer"`
	LatencyMs  int64  `json:"latency_ms"`
	Error      string `json:"error,omitempty"`
}
