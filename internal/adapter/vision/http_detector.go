package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/xiaot623/visionassist/internal/domain"
)

// HTTPDetector posts images to a local inference server such as a YOLOv8 endpoint.
type HTTPDetector struct {
	url        string
	httpClient *http.Client
}

// NewHTTPDetector creates a detector for the server at url.
func NewHTTPDetector(url string, timeout time.Duration) *HTTPDetector {
	return &HTTPDetector{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type detectResponse struct {
	Detections []struct {
		Label      string    `json:"label"`
		Confidence float64   `json:"confidence"`
		BBox       []float64 `json:"bbox"`
	} `json:"detections"`
}

// Detect uploads image as the multipart field "image" and parses the detections.
func (d *HTTPDetector) Detect(ctx context.Context, image []byte, mimeType string) ([]domain.Detection, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="image"`)
	if mimeType != "" {
		header.Set("Content-Type", mimeType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: detector request failed: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: detector returned status %d: %s", domain.ErrTransport, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var decoded detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: failed to decode detector response: %v", domain.ErrTransport, err)
	}

	dets := make([]domain.Detection, 0, len(decoded.Detections))
	for i, raw := range decoded.Detections {
		if len(raw.BBox) != 4 {
			return nil, fmt.Errorf("%w: detection %d has %d bbox values", domain.ErrTransport, i, len(raw.BBox))
		}
		dets = append(dets, domain.Detection{
			Label:      raw.Label,
			Confidence: raw.Confidence,
			BBox:       [4]float64{raw.BBox[0], raw.BBox[1], raw.BBox[2], raw.BBox[3]},
		})
	}
	return dets, nil
}
