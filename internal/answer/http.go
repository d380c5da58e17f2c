package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/good-yellow-bee/alertrelay/internal/models"
)

// HTTPConfig holds configuration for the HTTP answer generator.
type HTTPConfig struct {
	URL     string        // generateContent-style endpoint URL
	APIKey  string        // sent as x-goog-api-key when non-empty
	Timeout time.Duration // per-request bound (default: 10s)
}

// Validate validates the generator configuration.
func (c *HTTPConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("generator URL is required")
	}
	return nil
}

// HTTPGenerator calls a generateContent-style text generation endpoint.
type HTTPGenerator struct {
	config     HTTPConfig
	httpClient *http.Client
}

// NewHTTPGenerator creates an HTTP answer generator.
func NewHTTPGenerator(config HTTPConfig) (*HTTPGenerator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generator config: %w", err)
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &HTTPGenerator{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Request/response wire types for the generateContent contract.
type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []generatePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Answer submits the composed prompt and returns the generated text.
func (g *HTTPGenerator) Answer(ctx context.Context, question string, records []models.AlertRecord) (string, error) {
	prompt, err := BuildPrompt(question, records)
	if err != nil {
		return "", err
	}

	reqBody := generateRequest{
		Contents: []generateContent{{Parts: []generatePart{{Text: prompt}}}},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.URL, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.config.APIKey != "" {
		req.Header.Set("x-goog-api-key", g.config.APIKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("generator error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generator returned no candidates")
	}

	return genResp.Candidates[0].Content.Parts[0].Text, nil
}
