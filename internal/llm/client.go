// Package llm talks to an OpenAI-compatible chat-completions endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ChatMessage is a single prompt turn sent to the completion endpoint.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is the completion contract AI orchestration depends on.
// Client implements it over HTTP; tests substitute a fake.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// Client calls {baseURL}/chat/completions with bearer auth. A process-wide
// rate limiter throttles outbound calls so retry bursts cannot hammer the
// provider.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a completion client with a per-attempt timeout and an
// outbound calls-per-second budget.
func NewClient(baseURL, apiKey, model string, timeout time.Duration, ratePerSec float64) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), int(ratePerSec*2)+1),
	}
}

// Complete sends one chat-completions request and returns the assistant
// message content. Any transport failure, non-200 status or empty choice
// list is an error; the caller owns retries.
func (c *Client) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	requestBody := map[string]interface{}{
		"model":    c.model,
		"messages": messages,
		"stream":   false,
	}
	reqBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("parse API response: %w", err)
	}
	if len(apiResponse.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	content := apiResponse.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty completion response")
	}
	return content, nil
}
