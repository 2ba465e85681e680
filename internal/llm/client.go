package llm

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

	"github.com/cognicore/feedscope/pkg/feedscope/intent"
)

const (
	completionsPath = "/chat/completions"
	maxReplyBytes   = 4 << 20
	defaultTimeout  = 60 * time.Second
)

// ErrNotConfigured is returned when the client has no endpoint or model.
var ErrNotConfigured = errors.New("llm: base URL and model required")

// APIError is a failed completion call.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("llm: status %d", e.Status)
	}
	if e.Status == 0 {
		return "llm error: " + e.Message
	}
	return fmt.Sprintf("llm: status %d: %s", e.Status, e.Message)
}

// Client calls an OpenAI-compatible chat completion endpoint. BaseURL is
// either the API root (".../v1") or the full completions URL.
type Client struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64

	HTTPClient *http.Client
}

type completionRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Interpret asks the model for the intent of question.
func (c *Client) Interpret(ctx context.Context, question string) (intent.Intent, error) {
	raw, err := c.complete(ctx, completionRequest{
		Messages:       conversation(interpretSystem, interpretPrompt(question)),
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return intent.Intent{}, err
	}
	return intent.Parse(raw)
}

// Narrate turns a filter outcome into a conversational answer.
func (c *Client) Narrate(ctx context.Context, question string, in intent.Intent, out intent.Outcome) (string, error) {
	user, err := narratePrompt(question, in, out)
	if err != nil {
		return "", err
	}
	reply, err := c.Chat(ctx, narrateSystem, user)
	if err != nil {
		return "", err
	}
	return PlainText(reply), nil
}

// Chat sends one system and one user message and returns the reply text.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	return c.complete(ctx, completionRequest{Messages: conversation(system, user)})
}

func conversation(system, user string) []message {
	return []message{{Role: "system", Content: system}, {Role: "user", Content: user}}
}

func (c *Client) complete(ctx context.Context, creq completionRequest) (string, error) {
	if c.BaseURL == "" || c.Model == "" {
		return "", ErrNotConfigured
	}
	creq.Model = c.Model
	creq.Temperature = c.Temperature

	body, err := json.Marshal(creq)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return "", fmt.Errorf("llm: read reply: %w", err)
	}

	var cresp completionResponse
	decodeErr := json.Unmarshal(raw, &cresp)
	switch {
	case decodeErr == nil && cresp.Error != nil:
		status := resp.StatusCode
		if status < 300 {
			status = 0
		}
		return "", &APIError{Status: status, Message: cresp.Error.Message}
	case resp.StatusCode >= 300:
		return "", &APIError{Status: resp.StatusCode, Message: snippet(raw)}
	case decodeErr != nil:
		return "", fmt.Errorf("llm: decode reply: %w", decodeErr)
	case len(cresp.Choices) == 0:
		return "", fmt.Errorf("llm: empty response")
	}
	return cresp.Choices[0].Message.Content, nil
}

func (c *Client) endpoint() string {
	u := strings.TrimRight(c.BaseURL, "/")
	if strings.HasSuffix(u, completionsPath) {
		return u
	}
	return u + completionsPath
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
