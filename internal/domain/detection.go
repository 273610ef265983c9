package domain

import (
	"fmt"
	"strings"
)

// Detection is one labeled, localized object-recognition result.
type Detection struct {
	Label      string     `json:"label"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"` // x1, y1, x2, y2 in pixels
}

// String renders the detection as "label (0.87)".
func (d Detection) String() string {
	return fmt.Sprintf("%s (%.2f)", d.Label, d.Confidence)
}

// DescribeDetections joins detections in model order with ", ".
// An empty list yields an empty string.
func DescribeDetections(dets []Detection) string {
	parts := make([]string, len(dets))
	for i, d := range dets {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}

// AnalysisResult pairs an annotated image with the text produced from it.
type AnalysisResult struct {
	AnnotatedImage []byte      `json:"-"` // PNG, owned copy
	Detections     []Detection `json:"detections"`
	DetectionsText string      `json:"detections_text"`
	Prompt         string      `json:"prompt"`
	Text           string      `json:"text"`
}
