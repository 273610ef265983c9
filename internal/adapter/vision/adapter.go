package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/xiaot623/visionassist/internal/domain"
)

// Adapter loads images, runs the detector and annotates the result.
type Adapter struct {
	detector Detector
	timeout  time.Duration
}

// NewAdapter creates a vision adapter. A zero timeout leaves calls unbounded.
func NewAdapter(detector Detector, timeout time.Duration) *Adapter {
	return &Adapter{detector: detector, timeout: timeout}
}

// Detect runs detection on the image at imagePath and returns an annotated copy
// together with the detections in model order.
func (a *Adapter) Detect(ctx context.Context, imagePath string) (image.Image, []domain.Detection, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image: %w", err)
	}
	return a.DetectBytes(ctx, data)
}

// DetectBytes is Detect for an image already in memory.
func (a *Adapter) DetectBytes(ctx context.Context, data []byte) (image.Image, []domain.Detection, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to decode image: %v", domain.ErrValidation, err)
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	dets, err := a.detector.Detect(ctx, data, "image/"+format)
	if err != nil {
		return nil, nil, fmt.Errorf("detection failed: %w", err)
	}
	slog.Debug("detection done", "format", format, "detections", len(dets), "latency_ms", time.Since(start).Milliseconds())

	return Annotate(img, dets), dets, nil
}
