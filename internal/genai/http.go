package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// HTTPClient talks to the Gemini REST API. Safe for concurrent use.
type HTTPClient struct {
	apiKey     string
	textModel  string
	imageModel string
	videoModel string
	baseURL    string
	httpClient *http.Client
}

type HTTPClientConfig struct {
	APIKey     string
	TextModel  string
	ImageModel string
	VideoModel string
	BaseURL    string
	Timeout    time.Duration
}

func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("genai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &HTTPClient{
		apiKey:     cfg.APIKey,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		videoModel: cfg.VideoModel,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type generatePart struct {
	Text string `json:"text,omitempty"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
	Role  string         `json:"role,omitempty"`
}

type generateRequestBody struct {
	Contents          []generateContent `json:"contents"`
	SystemInstruction *generateContent  `json:"systemInstruction,omitempty"`
	Tools             []map[string]any  `json:"tools,omitempty"`
	GenerationConfig  map[string]any    `json:"generationConfig,omitempty"`
}

type generateResponseBody struct {
	Candidates []struct {
		Content struct {
			Parts []generatePart `json:"parts"`
		} `json:"content"`
		GroundingMetadata struct {
			GroundingChunks []struct {
				Web struct {
					Title string `json:"title"`
					URI   string `json:"uri"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

func (c *HTTPClient) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	body := generateRequestBody{
		Contents: []generateContent{{Parts: []generatePart{{Text: req.Prompt}}}},
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &generateContent{Parts: []generatePart{{Text: req.SystemInstruction}}}
	}
	if req.UseSearch {
		body.Tools = []map[string]any{{"google_search": map[string]any{}}}
	}
	if len(req.ResponseSchema) > 0 {
		body.GenerationConfig = map[string]any{
			"responseMimeType": "application/json",
			"responseSchema":   json.RawMessage(req.ResponseSchema),
		}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.textModel, c.apiKey)
	raw, err := c.post(ctx, url, body)
	if err != nil {
		return GenerateResult{}, err
	}

	var parsed generateResponseBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return GenerateResult{}, &MalformedError{Reason: "undecodable generation response"}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return GenerateResult{}, &MalformedError{Reason: "empty candidate list"}
	}

	result := GenerateResult{}
	for _, part := range parsed.Candidates[0].Content.Parts {
		result.Text += part.Text
	}
	for _, chunk := range parsed.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk.Web.URI == "" {
			continue
		}
		title := chunk.Web.Title
		if title == "" {
			title = "Untitled Source"
		}
		result.Sources = append(result.Sources, Source{Title: title, URI: chunk.Web.URI})
	}
	return result, nil
}

func (c *HTTPClient) GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error) {
	body := map[string]any{
		"instances": []map[string]any{{"prompt": prompt}},
		"parameters": map[string]any{
			"sampleCount":      1,
			"aspectRatio":      aspectRatio,
			"outputMimeType":   "image/jpeg",
			"personGeneration": "allow_adult",
		},
	}

	url := fmt.Sprintf("%s/models/%s:predict?key=%s", c.baseURL, c.imageModel, c.apiKey)
	raw, err := c.post(ctx, url, body)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Predictions []struct {
			BytesBase64Encoded string `json:"bytesBase64Encoded"`
		} `json:"predictions"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &MalformedError{Reason: "undecodable image response"}
	}
	if len(parsed.Predictions) == 0 || parsed.Predictions[0].BytesBase64Encoded == "" {
		return nil, &MalformedError{Reason: "no image returned"}
	}

	data, err := base64.StdEncoding.DecodeString(parsed.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, &MalformedError{Reason: "image payload is not valid base64"}
	}
	return data, nil
}

type videoOperationBody struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

func (c *HTTPClient) StartVideoGeneration(ctx context.Context, prompt string) (VideoOperation, error) {
	body := map[string]any{
		"instances":  []map[string]any{{"prompt": prompt}},
		"parameters": map[string]any{"sampleCount": 1},
	}

	url := fmt.Sprintf("%s/models/%s:predictLongRunning?key=%s", c.baseURL, c.videoModel, c.apiKey)
	raw, err := c.post(ctx, url, body)
	if err != nil {
		return VideoOperation{}, err
	}

	var parsed videoOperationBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return VideoOperation{}, &MalformedError{Reason: "undecodable operation response"}
	}
	if parsed.Name == "" {
		return VideoOperation{}, &MalformedError{Reason: "operation has no name"}
	}
	return operationFromBody(parsed), nil
}

func (c *HTTPClient) PollVideoOperation(ctx context.Context, op VideoOperation) (VideoOperation, error) {
	url := fmt.Sprintf("%s/%s?key=%s", c.baseURL, op.Name, c.apiKey)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return VideoOperation{}, err
	}
	raw, err := c.do(request)
	if err != nil {
		return VideoOperation{}, err
	}

	var parsed videoOperationBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return VideoOperation{}, &MalformedError{Reason: "undecodable operation response"}
	}
	if parsed.Name == "" {
		parsed.Name = op.Name
	}
	return operationFromBody(parsed), nil
}

// HealthCheck issues the cheapest possible generation request and
// reports whether it succeeded. Errors of any kind mean unhealthy.
func (c *HTTPClient) HealthCheck(ctx context.Context) bool {
	body := generateRequestBody{
		Contents:         []generateContent{{Parts: []generatePart{{Text: "test"}}}},
		GenerationConfig: map[string]any{"maxOutputTokens": 1},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.textModel, c.apiKey)
	_, err := c.post(ctx, url, body)
	return err == nil
}

func operationFromBody(parsed videoOperationBody) VideoOperation {
	op := VideoOperation{Name: parsed.Name, Done: parsed.Done}
	samples := parsed.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) > 0 {
		op.VideoURI = samples[0].Video.URI
	}
	return op
}

func (c *HTTPClient) post(ctx context.Context, url string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	return c.do(request)
}

func (c *HTTPClient) do(request *http.Request) ([]byte, error) {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("call generation service: %w", err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read generation response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, classifyStatus(response.StatusCode, string(raw))
	}
	return raw, nil
}
