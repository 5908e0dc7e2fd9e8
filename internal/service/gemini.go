package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"npcbrain/internal/config"
)

// GenerateConfig shapes a single generation request. Temperature is a
// pointer so an explicit 0 is distinguishable from unset; nil falls back to
// the client default.
type GenerateConfig struct {
	Model              string
	SystemInstruction  string
	Temperature        *float64
	MaxOutputTokens    int
	ForceJSONResponse  bool
	ResponseSchemaJSON string // optional schema passthrough, ignored if not valid JSON
}

// GeminiClient handles the generative language API. One outbound call per
// invocation, no retry; a transport failure or non-2xx status surfaces
// immediately to the caller.
type GeminiClient struct {
	config     *config.GeminiConfig
	httpClient *http.Client
}

// NewGeminiClient creates a new client from the given credentials/config
func NewGeminiClient(cfg *config.GeminiConfig) *GeminiClient {
	return &GeminiClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// IsEnabled returns whether the client is configured and ready
func (c *GeminiClient) IsEnabled() bool {
	return c.config.Enabled
}

// Wire format for generateContent

type generatePart struct {
	Text string `json:"text"`
}

type generateContentBlock struct {
	Role  string         `json:"role,omitempty"`
	Parts []generatePart `json:"parts"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMIMEType string  `json:"response_mime_type,omitempty"`
}

type generateRequest struct {
	Contents          []generateContentBlock `json:"contents"`
	GenerationConfig  generationConfig       `json:"generationConfig"`
	SystemInstruction *generateContentBlock  `json:"systemInstruction,omitempty"`
	ResponseSchema    json.RawMessage        `json:"response_schema,omitempty"`
}

// BuildGenerateURL builds the generateContent endpoint URL for a model.
// The base may or may not carry a trailing slash, and the model may or may
// not already carry the models/ path prefix.
func BuildGenerateURL(base, model string) string {
	base = strings.TrimSuffix(base, "/")
	if model == "" {
		model = "models/gemini-1.5-flash"
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	return fmt.Sprintf("%s/%s:generateContent", base, model)
}

// appendAPIKey adds the key as a query parameter, URL-encoded, choosing
// '?' vs '&' based on whether the URL already has a query string
func appendAPIKey(rawURL, apiKey string) string {
	if apiKey == "" {
		return rawURL
	}
	delim := "?"
	if strings.Contains(rawURL, "?") {
		delim = "&"
	}
	return rawURL + delim + "key=" + url.QueryEscape(apiKey)
}

// buildGeneratePayload builds the JSON request body for a prompt
func buildGeneratePayload(prompt string, cfg GenerateConfig) ([]byte, error) {
	req := generateRequest{
		Contents: []generateContentBlock{
			{
				Role:  "user",
				Parts: []generatePart{{Text: prompt}},
			},
		},
		GenerationConfig: generationConfig{
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
	}
	if cfg.Temperature != nil {
		req.GenerationConfig.Temperature = *cfg.Temperature
	}

	if cfg.ForceJSONResponse {
		req.GenerationConfig.ResponseMIMEType = "application/json"
	}

	if cfg.SystemInstruction != "" {
		req.SystemInstruction = &generateContentBlock{
			Parts: []generatePart{{Text: cfg.SystemInstruction}},
		}
	}

	// Schema passthrough: a string that fails to parse as a JSON object is
	// silently omitted, not a hard failure
	if cfg.ResponseSchemaJSON != "" {
		var schema map[string]any
		if err := json.Unmarshal([]byte(cfg.ResponseSchemaJSON), &schema); err == nil && schema != nil {
			req.ResponseSchema = json.RawMessage(cfg.ResponseSchemaJSON)
		} else {
			log.Printf("Warning: response schema is not valid JSON, omitting it")
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return body, nil
}

// GenerateContent sends one prompt to the generateContent endpoint and
// returns the raw response body for downstream extraction
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, cfg GenerateConfig) (string, error) {
	if !c.config.Enabled {
		return "", fmt.Errorf("gemini API is not enabled (missing API key)")
	}

	// Model priority: request config, then client config, then default
	model := cfg.Model
	if model == "" {
		model = c.config.Model
	}
	if cfg.Temperature == nil && c.config.Temperature > 0 {
		cfg.Temperature = &c.config.Temperature
	}
	if cfg.MaxOutputTokens == 0 && c.config.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = c.config.MaxOutputTokens
	}

	payload, err := buildGeneratePayload(prompt, cfg)
	if err != nil {
		return "", err
	}

	reqURL := appendAPIKey(BuildGenerateURL(c.config.APIBase, model), c.config.APIKey)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return string(body), nil
}

// embedContent wire format

type embedRequest struct {
	Content generateContentBlock `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// EmbedText creates an embedding vector for one text using the configured
// embedding model
func (c *GeminiClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if !c.config.Enabled {
		return nil, fmt.Errorf("gemini API is not enabled (missing API key)")
	}

	req := embedRequest{
		Content: generateContentBlock{
			Parts: []generatePart{{Text: text}},
		},
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	base := strings.TrimSuffix(c.config.APIBase, "/")
	model := c.config.EmbeddingModel
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	reqURL := appendAPIKey(fmt.Sprintf("%s/%s:embedContent", base, model), c.config.APIKey)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result embedResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(result.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding response contained no values")
	}

	return result.Embedding.Values, nil
}
