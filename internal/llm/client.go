// Package llm talks to an OpenAI-compatible chat/completions endpoint and
// returns schema-validated structured output.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spherical/statement-extractor/internal/domain"
	"github.com/spherical/statement-extractor/internal/observability"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 2 * time.Minute
	maxErrorBody   = 4 << 10
)

// Config holds client settings
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client handles communication with the structured-extraction service.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *observability.Logger
}

// Request is a single structured-extraction call
type Request struct {
	Model        string
	Temperature  float64
	SystemPrompt string
	UserText     string
	ImageJPEG    []byte // optional; sent as an inline data URL
	Schema       *Schema
}

// Message represents a chat message
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart represents a part of message content (text or image)
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL represents an image URL in the message
type ImageURL struct {
	URL string `json:"url"`
}

// ResponseFormat asks the service for output conforming to a JSON schema
type ResponseFormat struct {
	Type       string     `json:"type"`
	JSONSchema JSONSchema `json:"json_schema"`
}

// JSONSchema is the named schema inside ResponseFormat
type JSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// ChatRequest represents the API request structure
type ChatRequest struct {
	Model          string          `json:"model"`
	Temperature    float64         `json:"temperature"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatResponse represents the API response structure
type ChatResponse struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// Choice represents a single completion choice
type Choice struct {
	Message      AssistantMessage `json:"message"`
	FinishReason string           `json:"finish_reason"`
}

// AssistantMessage is the returned message. Refusal is set when the model declines.
type AssistantMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Refusal string `json:"refusal,omitempty"`
}

// NewClient creates a new client
func NewClient(cfg Config, logger *observability.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = observability.Nop()
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     logger.WithOperation("llm"),
	}
}

// Complete performs one structured-extraction call and decodes the validated
// result into out. A 429 response yields a rate-limit error; output that does
// not match req.Schema yields a schema-mismatch error. Nothing is retried here.
func (c *Client) Complete(ctx context.Context, req Request, out any) error {
	if req.Schema == nil {
		return domain.ValidationError("request has no target schema", nil)
	}

	reqID := uuid.NewString()
	start := time.Now()
	log := c.logger.WithContext(ctx).With().
		Str("req_id", reqID).
		Str("model", req.Model).
		Str("schema", req.Schema.Name).
		Logger()

	body, err := json.Marshal(buildChatRequest(req))
	if err != nil {
		return domain.APIError("Failed to marshal request", err)
	}

	log.Debug().Int("request_bytes", len(body)).Msg("llm.complete.start")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return domain.APIError("Failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("X-Request-Id", reqID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.APIError("Failed to send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warn().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("llm.complete.rate_limited")
		return domain.RateLimitError(fmt.Sprintf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Error().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("llm.complete.error")
		return domain.APIError(fmt.Sprintf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return domain.APIError("Failed to decode response", err)
	}
	if len(chatResp.Choices) == 0 {
		return domain.APIError("API returned no choices", nil)
	}

	choice := chatResp.Choices[0]
	if choice.Message.Refusal != "" {
		return domain.SchemaMismatchError("model refused structured output", fmt.Errorf("%s", choice.Message.Refusal))
	}
	if choice.FinishReason == "length" {
		return domain.SchemaMismatchError("structured output truncated", nil)
	}

	content := []byte(choice.Message.Content)
	if err := req.Schema.Validate(content); err != nil {
		return domain.SchemaMismatchError("structured output failed validation", err)
	}
	if err := json.Unmarshal(content, out); err != nil {
		return domain.SchemaMismatchError("structured output could not be decoded", err)
	}

	log.Info().
		Int("response_bytes", len(content)).
		Dur("elapsed", time.Since(start)).
		Msg("llm.complete.ok")

	return nil
}

// buildChatRequest constructs the API request: a system instruction and one user
// message holding the text payload and, optionally, the page image
func buildChatRequest(req Request) *ChatRequest {
	var parts []ContentPart
	if req.UserText != "" {
		parts = append(parts, ContentPart{Type: "text", Text: req.UserText})
	}
	if len(req.ImageJPEG) > 0 {
		parts = append(parts, ContentPart{
			Type:     "image_url",
			ImageURL: &ImageURL{URL: ImageDataURL(req.ImageJPEG)},
		})
	}

	return &ChatRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		Messages: []Message{
			{Role: "system", Content: []ContentPart{{Type: "text", Text: req.SystemPrompt}}},
			{Role: "user", Content: parts},
		},
		ResponseFormat: &ResponseFormat{
			Type: "json_schema",
			JSONSchema: JSONSchema{
				Name:   req.Schema.Name,
				Strict: true,
				Schema: req.Schema.Definition,
			},
		},
	}
}

// ImageDataURL encodes JPEG bytes as an inline data URL
func ImageDataURL(jpeg []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
}
