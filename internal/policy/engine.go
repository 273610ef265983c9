// Package policy evaluates upload admission rules with OPA.
package policy

import (
	"context"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Denial reasons produced by DefaultPolicy.
const (
	ReasonMissingImage         = "missing_image"
	ReasonMissingPrompt        = "missing_prompt"
	ReasonImageTooLarge        = "image_too_large"
	ReasonUnsupportedMediaType = "unsupported_media_type"
)

// DefaultAllowedMediaTypes lists the image types the vision adapter can decode.
var DefaultAllowedMediaTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/tiff",
}

// Input is the document the analysis policy is evaluated against.
type Input struct {
	HasImage          bool     `json:"has_image"`
	HasPrompt         bool     `json:"has_prompt"`
	MediaType         string   `json:"media_type"`
	ImageSize         int64    `json:"image_size"`
	MaxImageBytes     int64    `json:"max_image_bytes"`
	AllowedMediaTypes []string `json:"allowed_media_types"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.analysis_policy.deny"),
		rego.Module("analysis_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate returns the sorted denial reasons for input. An empty result admits it.
func (e *Engine) Evaluate(ctx context.Context, input Input) ([]string, error) {
	if input.AllowedMediaTypes == nil {
		input.AllowedMediaTypes = DefaultAllowedMediaTypes
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return nil, nil
	}

	raw, ok := results[0].Expressions[0].Value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}

	reasons := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			reasons = append(reasons, s)
		}
	}
	sort.Strings(reasons)
	return reasons, nil
}

// DefaultPolicy is the default admission policy for analysis uploads.
const DefaultPolicy = `
package analysis_policy

deny contains "missing_image" if {
	not input.has_image
}

deny contains "missing_prompt" if {
	not input.has_prompt
}

deny contains "image_too_large" if {
	input.max_image_bytes > 0
	input.image_size > input.max_image_bytes
}

deny contains "unsupported_media_type" if {
	input.has_image
	input.media_type != ""
	not allowed_media_type
}

allowed_media_type if {
	some t in input.allowed_media_types
	t == input.media_type
}
`
