package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/228Labs/negotiator/negotiator/config"
	"github.com/228Labs/negotiator/negotiator/utils/logging"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type CompletionMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls"`
}

type Choice struct {
	Message      CompletionMessage `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

type ChatCompletion struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// ChatCompletionFunc is the single synchronous LLM call: transcript plus
// tool definitions in, one completion out. params carries the sampling
// parameters from the prompt provider verbatim.
type ChatCompletionFunc func(ctx context.Context, model string, messages []ChatMessage, tools []Tool, params map[string]interface{}) (*ChatCompletion, error)

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey  string
	baseURL string
	timeout time.Duration
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		apiKey:  cfg.OpenAIAPIKey,
		baseURL: cfg.OpenAIBaseURL,
		timeout: cfg.LLMTimeout,
	}
}

func (c *Client) ChatCompletion(ctx context.Context, model string, messages []ChatMessage, tools []Tool, params map[string]interface{}) (*ChatCompletion, error) {
	defer logging.LogDuration(ctx, "llm_chat_completion")()

	req := map[string]interface{}{
		"model":    model,
		"messages": messages,
	}
	if len(tools) > 0 {
		req["tools"] = tools
	}
	for k, v := range params {
		req[k] = v
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, &InvocationError{Timeout: errors.Is(err, context.DeadlineExceeded), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, &InvocationError{Err: fmt.Errorf("chat completion failed: %s - %s", resp.Status, string(b))}
	}

	var completion ChatCompletion
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, &InvocationError{Err: fmt.Errorf("failed to decode completion: %w", err)}
	}
	return &completion, nil
}
