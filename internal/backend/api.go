package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	anthropicURL     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
	apiModel         = "claude-sonnet-4-20250514"
	apiMaxTokens     = 8192
)

// APITransport calls the hosted Anthropic messages API. Requires
// ANTHROPIC_API_KEY; pay-per-use.
type APITransport struct {
	client  *http.Client
	url     string
	keyFunc func() string
}

// NewAPITransport creates the hosted API transport.
func NewAPITransport() *APITransport {
	return &APITransport{
		client:  &http.Client{Timeout: 120 * time.Second},
		url:     anthropicURL,
		keyFunc: func() string { return os.Getenv("ANTHROPIC_API_KEY") },
	}
}

func (t *APITransport) Name() string { return PreferAPI }

// Available reports whether an API key is present. The key is not validated
// until the first call; a rejected key surfaces as an authentication error.
func (t *APITransport) Available(context.Context) bool {
	return t.keyFunc() != ""
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends the prompt as a single user message and returns the
// concatenated text blocks of the response.
func (t *APITransport) Generate(ctx context.Context, prompt string) (string, error) {
	key := t.keyFunc()
	if key == "" {
		return "", newError(KindAuth, t.Name(), fmt.Errorf("ANTHROPIC_API_KEY is not set"))
	}

	body, err := json.Marshal(apiRequest{
		Model:     apiModel,
		MaxTokens: apiMaxTokens,
		Messages:  []apiMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", newError(KindRejected, t.Name(), fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return "", newError(KindRejected, t.Name(), err)
	}
	req.Header.Set("x-api-key", key)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", newError(KindTransient, t.Name(), err)
		}
		return "", newError(KindTransient, t.Name(), fmt.Errorf("request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newError(KindTransient, t.Name(), fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", newError(KindAuth, t.Name(), fmt.Errorf("http %d: %s", resp.StatusCode, data))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", newError(KindTransient, t.Name(), fmt.Errorf("http %d: %s", resp.StatusCode, data))
	case resp.StatusCode >= 300:
		return "", newError(KindRejected, t.Name(), fmt.Errorf("http %d: %s", resp.StatusCode, data))
	}

	var out apiResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", newError(KindRejected, t.Name(), fmt.Errorf("unmarshal response: %w", err))
	}
	if out.Error != nil {
		return "", newError(KindRejected, t.Name(), fmt.Errorf("%s: %s", out.Error.Type, out.Error.Message))
	}

	var text string
	for _, block := range out.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", newError(KindRejected, t.Name(), fmt.Errorf("empty response"))
	}
	return text, nil
}
