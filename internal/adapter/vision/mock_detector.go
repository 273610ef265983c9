package vision

import (
	"bytes"
	"context"
	"image"

	"github.com/xiaot623/visionassist/internal/domain"
)

// MockDetector returns fixed detections. With none configured it reports a single
// "person (0.87)" covering the centre of the image.
type MockDetector struct {
	Detections []domain.Detection
	Err        error
}

// NewMockDetector creates a new mock detector.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// Detect returns the configured detections.
func (m *MockDetector) Detect(ctx context.Context, data []byte, mimeType string) ([]domain.Detection, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Detections != nil {
		return append([]domain.Detection(nil), m.Detections...), nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	w, h := float64(cfg.Width), float64(cfg.Height)
	return []domain.Detection{
		{Label: "person", Confidence: 0.87, BBox: [4]float64{w / 4, h / 4, w * 3 / 4, h * 3 / 4}},
	}, nil
}
