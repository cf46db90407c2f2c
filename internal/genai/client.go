package genai

import (
	"context"
	"encoding/json"
)

// Source is one grounding citation attached to a generated result.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// GenerateRequest is a single-turn generation request. UseSearch asks
// the service to ground the answer in web search; ResponseSchema, when
// set, constrains the response to a JSON document of that shape.
type GenerateRequest struct {
	Prompt            string
	SystemInstruction string
	UseSearch         bool
	ResponseSchema    json.RawMessage
}

// GenerateResult carries the raw model text plus any grounding sources.
type GenerateResult struct {
	Text    string
	Sources []Source
}

// VideoOperation is the opaque handle for a long-running video
// generation. It is re-submitted to PollVideoOperation until Done.
type VideoOperation struct {
	Name     string
	Done     bool
	VideoURI string
}

// Client is the boundary to the external generation service. All calls
// may fail; quota exhaustion is distinguishable via IsQuota.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error)
	StartVideoGeneration(ctx context.Context, prompt string) (VideoOperation, error)
	PollVideoOperation(ctx context.Context, op VideoOperation) (VideoOperation, error)
	// HealthCheck reports whether the service currently answers a
	// minimal request. Unhealthy is a return value, not an error.
	HealthCheck(ctx context.Context) bool
}
