package service

import (
	"context"
	"time"

	"github.com/xiaot623/visionassist/internal/domain"
)

// AnalyzeMedia uploads a video or other media file to the generative service and
// prompts against it.
func (s *Service) AnalyzeMedia(ctx context.Context, sessionID, path, mimeType, prompt string) string {
	if path == "" || prompt == "" {
		return MediaInstructionText
	}

	start := time.Now()
	reply := s.genaiClient.AnalyzeMedia(ctx, path, mimeType, prompt)
	s.auditEvent(ctx, sessionID, domain.EventTypeMediaAnalyzed, domain.GenAICallDonePayload{
		Model:     s.genaiClient.Model(),
		Kind:      "media",
		LatencyMs: time.Since(start).Milliseconds(),
		Error:     errString(reply.Cause()),
	})
	return reply.String()
}
