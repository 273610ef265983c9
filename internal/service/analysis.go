package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/xiaot623/visionassist/internal/adapter/genai"
	"github.com/xiaot623/visionassist/internal/adapter/vision"
	"github.com/xiaot623/visionassist/internal/domain"
	"github.com/xiaot623/visionassist/internal/policy"
)

// Texts shown on the analysis path.
const (
	InstructionText      = "Please upload an image and provide a prompt for analysis."
	MediaInstructionText = "Please upload a file and provide a prompt for analysis."
	DetectionErrorText   = "Error in detection"
	NoDetectionsText     = "No objects detected in the image."
	AnalysisClearedText  = "Analysis history cleared."
)

// AnalyzeRequest is one image-plus-prompt analysis. MediaType and ImageSize are
// filled from the file when empty. SessionID only scopes audit events.
type AnalyzeRequest struct {
	SessionID string
	ImagePath string
	Prompt    string
	MediaType string
	ImageSize int64
}

// Analyze detects objects in the image, combines them with the prompt and runs the
// result through the configured enhancer. Every fault is reported in the returned
// text; the result is nil only when no adapter was called.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*domain.AnalysisResult, string) {
	if req.ImagePath == "" || req.Prompt == "" {
		return nil, InstructionText
	}
	if msg := s.admit(ctx, &req); msg != "" {
		return nil, msg
	}

	start := time.Now()
	result := &domain.AnalysisResult{}

	annotated, dets, err := s.vision.Detect(ctx, req.ImagePath)
	if err != nil {
		slog.Warn("detection failed", "image", req.ImagePath, "error", err)
		result.DetectionsText = DetectionErrorText
	} else {
		result.Detections = dets
		result.DetectionsText = domain.DescribeDetections(dets)
		if png, encErr := vision.EncodePNG(annotated); encErr != nil {
			slog.Warn("failed to encode annotated image", "error", encErr)
		} else {
			result.AnnotatedImage = png
		}
	}
	if result.DetectionsText == "" {
		result.DetectionsText = NoDetectionsText
	}

	result.Prompt = CombinePrompt(result.DetectionsText, req.Prompt)
	result.Text = s.enhance(ctx, result)

	s.auditEvent(ctx, req.SessionID, domain.EventTypeAnalysisDone, domain.AnalysisDonePayload{
		Detections: len(result.Detections),
		Enhancer:   string(s.opts.Enhancer),
		LatencyMs:  time.Since(start).Milliseconds(),
		Error:      errString(err),
	})
	return result, result.Text
}

// CombinePrompt builds the text handed to the enhancer.
func CombinePrompt(detectionsText, prompt string) string {
	return fmt.Sprintf("Detections: %s. User prompt: %s", detectionsText, prompt)
}

func (s *Service) enhance(ctx context.Context, result *domain.AnalysisResult) string {
	if s.opts.Enhancer != domain.EnhancerGenerative {
		return s.speech.Enhance(ctx, result.Prompt)
	}

	if len(result.AnnotatedImage) > 0 {
		return s.genaiClient.SendMultimodal(ctx, result.Prompt, result.AnnotatedImage, "image/png").String()
	}
	chat, err := s.genaiClient.NewChat(ctx)
	if err != nil {
		return genai.TextReply("", err).String()
	}
	return s.genaiClient.SendText(ctx, chat, result.Prompt).String()
}

// admit runs the upload policy and returns a message when the request is refused.
func (s *Service) admit(ctx context.Context, req *AnalyzeRequest) string {
	if s.policyEngine == nil {
		return ""
	}
	if err := fillImageInfo(req); err != nil {
		slog.Warn("failed to inspect upload", "image", req.ImagePath, "error", err)
		// Let detection report the unreadable file.
		return ""
	}

	return s.CheckUpload(ctx, req.MediaType, req.ImageSize)
}

// CheckUpload evaluates the upload policy for an image of the given type and size.
// It returns "" when the upload is admitted. An empty mediaType skips the type rule.
func (s *Service) CheckUpload(ctx context.Context, mediaType string, size int64) string {
	if s.policyEngine == nil {
		return ""
	}
	reasons, err := s.policyEngine.Evaluate(ctx, policy.Input{
		HasImage:      true,
		HasPrompt:     true,
		MediaType:     mediaType,
		ImageSize:     size,
		MaxImageBytes: s.opts.MaxImageBytes,
	})
	if err != nil {
		slog.Error("upload policy evaluation failed", "error", err)
		return fmt.Sprintf("Error checking upload: %v", err)
	}
	return DenialMessage(reasons, mediaType, size, s.opts.MaxImageBytes)
}

// DenialMessage renders policy denial reasons. It returns "" when there are none.
func DenialMessage(reasons []string, mediaType string, size, limit int64) string {
	if len(reasons) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(reasons))
	for _, r := range reasons {
		switch r {
		case policy.ReasonMissingImage, policy.ReasonMissingPrompt:
			return InstructionText
		case policy.ReasonImageTooLarge:
			msgs = append(msgs, fmt.Sprintf("Image is too large (%d bytes, limit %d).", size, limit))
		case policy.ReasonUnsupportedMediaType:
			msgs = append(msgs, fmt.Sprintf("Unsupported image type %q.", mediaType))
		default:
			msgs = append(msgs, "Upload rejected: "+r+".")
		}
	}
	return strings.Join(msgs, " ")
}

func fillImageInfo(req *AnalyzeRequest) error {
	if req.MediaType != "" && req.ImageSize > 0 {
		return nil
	}
	f, err := os.Open(req.ImagePath)
	if err != nil {
		return err
	}
	defer f.Close()

	if req.ImageSize <= 0 {
		info, err := f.Stat()
		if err != nil {
			return err
		}
		req.ImageSize = info.Size()
	}
	if req.MediaType == "" {
		head := make([]byte, 512)
		n, err := io.ReadFull(f, head)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return err
		}
		req.MediaType = SniffMediaType(head[:n])
	}
	return nil
}

// SniffMediaType returns the MIME type of data without parameters. Image formats
// unknown to net/http, such as TIFF, are resolved through the registered decoders.
func SniffMediaType(data []byte) string {
	mt := http.DetectContentType(data)
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	mt = strings.TrimSpace(mt)
	if mt == "application/octet-stream" {
		if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			return "image/" + format
		}
	}
	return mt
}

// DescribeImage asks the generative model about the image directly.
func (s *Service) DescribeImage(ctx context.Context, req AnalyzeRequest) string {
	if req.ImagePath == "" || req.Prompt == "" {
		return InstructionText
	}
	data, err := os.ReadFile(req.ImagePath)
	if err != nil {
		return fmt.Sprintf("Error analyzing image with prompt: %v", err)
	}
	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = SniffMediaType(data)
	}

	start := time.Now()
	reply := s.genaiClient.SendMultimodal(ctx, fmt.Sprintf("Here is an image. Analyze it based on: %s", req.Prompt), data, mediaType)
	s.auditEvent(ctx, req.SessionID, domain.EventTypeGenAICallDone, domain.GenAICallDonePayload{
		Model:     s.genaiClient.Model(),
		Kind:      "multimodal",
		LatencyMs: time.Since(start).Milliseconds(),
		Error:     errString(reply.Cause()),
	})

	return fmt.Sprintf("Image Analysis:\n%s\n\nPrompt Analysis:\n%s", reply.String(), req.Prompt)
}

// ClearAnalysis resets the analysis view. No analysis state is kept server side.
func (s *Service) ClearAnalysis(ctx context.Context) string {
	return AnalysisClearedText
}
