package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Capability is an external text generator.
type Capability interface {
	// Available reports synchronously whether Generate can be called.
	Available() bool
	Generate(ctx context.Context, instructions, prompt string) (string, error)
}

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// OpenAICapability talks to an OpenAI-compatible chat completions endpoint.
type OpenAICapability struct {
	endpoint string
	key      string
	model    string
	client   *http.Client
}

// NewOpenAI creates a capability for endpoint. It is unavailable unless
// both endpoint and key are set.
func NewOpenAI(endpoint, key, model string) *OpenAICapability {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAICapability{
		endpoint: strings.TrimRight(endpoint, "/"),
		key:      key,
		model:    model,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *OpenAICapability) Available() bool {
	return c != nil && c.endpoint != "" && c.key != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *OpenAICapability) Generate(ctx context.Context, instructions, prompt string) (string, error) {
	if !c.Available() {
		return "", ErrCapabilityUnavailable
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: instructions},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode chat response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil && out.Error.Message != "" {
			return "", fmt.Errorf("chat request returned %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", fmt.Errorf("chat request returned %d", resp.StatusCode)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("chat response has no choices")
	}

	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("chat response is empty")
	}
	return content, nil
}
