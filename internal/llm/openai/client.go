package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"health-backend/internal/llm"
)

const apiURL = "https://api.openai.com/v1/chat/completions"

const (
	defaultTimeout   = 120 * time.Second
	completionTokens = 2000
	temperature      = float32(0.7)
)

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client. The API key is request-scoped
// state handed in by the caller, never read from a process-wide singleton.
func NewClient(apiKey, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, &llm.APIError{Kind: llm.KindAuth, Message: "OpenAI API key is required"}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: apiURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends one chat-completion call and returns the raw model text.
// Failures map onto the llm error taxonomy by HTTP status.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	temp := temperature
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: &temp,
		MaxTokens:   completionTokens,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", &llm.APIError{Kind: llm.KindTimeout, Message: "openai request timeout"}
		}
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if apiErr := classifyStatus(resp.StatusCode, raw); apiErr != nil {
		return "", apiErr
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", &llm.APIError{Kind: llm.KindService, StatusCode: resp.StatusCode, Message: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 {
		return "", &llm.APIError{Kind: llm.KindService, StatusCode: resp.StatusCode, Message: "response missing choices"}
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", &llm.APIError{Kind: llm.KindService, StatusCode: resp.StatusCode, Message: "response empty content"}
	}
	logUsage(c.model, parsed.Usage)
	return content, nil
}

func classifyStatus(status int, body []byte) *llm.APIError {
	if status < 400 {
		return nil
	}
	msg := errorMessage(body)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &llm.APIError{Kind: llm.KindAuth, StatusCode: status, Message: msg}
	case status == http.StatusTooManyRequests:
		// Quota exhaustion reports 429 with an insufficient_quota type;
		// retrying it is pointless, so it surfaces as auth-like terminal.
		if strings.Contains(msg, "insufficient_quota") {
			return &llm.APIError{Kind: llm.KindAuth, StatusCode: status, Message: msg}
		}
		return &llm.APIError{Kind: llm.KindRateLimited, StatusCode: status, Message: msg}
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return &llm.APIError{Kind: llm.KindTimeout, StatusCode: status, Message: msg}
	default:
		return &llm.APIError{Kind: llm.KindService, StatusCode: status, Message: msg}
	}
}

func errorMessage(body []byte) string {
	var parsed struct {
		Error *struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		if parsed.Error.Type != "" {
			return parsed.Error.Message + " (" + parsed.Error.Type + ")"
		}
		return parsed.Error.Message
	}
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	return trimmed
}

func logUsage(model string, usage *struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}) {
	if usage == nil {
		log.Printf("llm response model=%s", model)
		return
	}
	log.Printf("llm response model=%s prompt_tokens=%d completion_tokens=%d total_tokens=%d",
		model, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
}

var _ llm.Client = (*Client)(nil)
