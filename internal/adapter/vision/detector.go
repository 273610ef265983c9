// Package vision runs object detection on images and draws the results.
package vision

import (
	"context"

	"github.com/xiaot623/visionassist/internal/domain"
)

// Detector finds labeled bounding boxes in an encoded image.
// Implementations return detections in model order.
type Detector interface {
	Detect(ctx context.Context, image []byte, mimeType string) ([]domain.Detection, error)
}

var (
	_ Detector = (*HTTPDetector)(nil)
	_ Detector = (*MockDetector)(nil)
)
