package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/haggleops/haggle/pkg/llm"
)

// Client talks to a locally hosted Ollama server (the local engine variant).
type Client struct {
	BaseURL string
	Model   string
	httpDo  *http.Client
}

func New(baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		Model:   model,
		httpDo: &http.Client{
			Timeout: timeout,
		},
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Generate sends one completion request to the local server. Ollama has no
// separate system role on /api/generate, so both prompts are folded into one.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, opts llm.Options) (string, error) {
	combined := fmt.Sprintf("System: %s\n\nUser: %s\n\nAssistant:", systemPrompt, userPrompt)
	reqBody := generateRequest{
		Model:  c.Model,
		Prompt: combined,
		Stream: false,
		Options: generateOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
		},
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/api/generate", c.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpDo.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: ollama: %v", llm.ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errMap map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errMap)
		if resp.StatusCode >= 500 {
			return "", fmt.Errorf("%w: ollama http %d: %v", llm.ErrEngineUnavailable, resp.StatusCode, errMap)
		}
		// 404 here usually means the model is not pulled.
		return "", fmt.Errorf("%w: ollama http %d: %v", llm.ErrEngineResponse, resp.StatusCode, errMap)
	}
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: ollama: decode response: %v", llm.ErrEngineResponse, err)
	}
	return strings.TrimSpace(out.Response), nil
}

// SelfTest verifies the server is running and the configured model is pulled.
func (c *Client) SelfTest(ctx context.Context) (bool, string) {
	endpoint := fmt.Sprintf("%s/api/tags", c.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err.Error()
	}
	resp, err := c.httpDo.Do(httpReq)
	if err != nil {
		return false, fmt.Sprintf("cannot connect to ollama at %s: %v (is `ollama serve` running?)", c.BaseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Sprintf("ollama server not responding (status %d)", resp.StatusCode)
	}
	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false, fmt.Sprintf("ollama: decode tags: %v", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
		if m.Name == c.Model {
			return true, fmt.Sprintf("ollama engine ready at %s, model %s", c.BaseURL, c.Model)
		}
	}
	return false, fmt.Sprintf("model %q not found in ollama (available: %s); run: ollama pull %s",
		c.Model, strings.Join(names, ", "), c.Model)
}

var _ llm.TextGenerator = (*Client)(nil)
