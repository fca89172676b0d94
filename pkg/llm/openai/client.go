package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/haggleops/haggle/pkg/llm"
)

// Client is a minimal OpenAI-compatible chat completions client (the hosted
// engine variant).
type Client struct {
	APIKey  string
	BaseURL string
	Model   string
	httpDo  *http.Client
}

func New(apiKey, baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   model,
		httpDo: &http.Client{
			Timeout: timeout,
		},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type chatCompletionsResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

// Generate sends one chat completion request and returns the model reply.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, opts llm.Options) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("%w: openai api key is empty", llm.ErrEngineResponse)
	}
	model := c.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	reqBody := chatCompletionsRequest{
		Model: model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/chat/completions", c.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.httpDo.Do(httpReq)
	if err != nil {
		// Connection refused, DNS failure, client timeout: unreachable.
		return "", fmt.Errorf("%w: openai: %v", llm.ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errMap map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errMap)
		if transientStatus(resp.StatusCode) {
			return "", fmt.Errorf("%w: openai http %d: %v", llm.ErrEngineUnavailable, resp.StatusCode, errMap)
		}
		return "", fmt.Errorf("%w: openai http %d: %v", llm.ErrEngineResponse, resp.StatusCode, errMap)
	}
	var out chatCompletionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: openai: decode response: %v", llm.ErrEngineResponse, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: openai: no choices returned by model", llm.ErrEngineResponse)
	}
	return out.Choices[0].Message.Content, nil
}

// SelfTest performs one tiny completion to verify connectivity and auth.
func (c *Client) SelfTest(ctx context.Context) (bool, string) {
	_, err := c.Generate(ctx, "You are a connectivity probe.", "Reply with the single word: ok", llm.Options{MaxTokens: 8})
	if err != nil {
		return false, fmt.Sprintf("openai (%s): %v", c.Model, err)
	}
	return true, fmt.Sprintf("openai engine ready, model %s", c.Model)
}

// transientStatus reports whether the status warrants a retry: rate limits,
// request timeouts and server-side failures.
func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout ||
		code >= 500
}

var _ llm.TextGenerator = (*Client)(nil)
