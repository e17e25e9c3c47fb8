package recording

import (
	"context"
	"time"

	"github.com/228Labs/negotiator/negotiator/services/prompts"
	httputils "github.com/228Labs/negotiator/negotiator/utils/http"
)

// FunctionCall is the structured form of a tool invocation, recorded in
// place of free text when the model resolves the negotiation.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type CallInfo struct {
	Model      string                 `json:"model"`
	Parameters map[string]interface{} `json:"parameters"`
	StartTime  time.Time              `json:"start_time"`
	EndTime    time.Time              `json:"end_time"`
}

type ResponseInfo struct {
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

// Payload is one recorded chat turn: the full prompt plus reply,
// correlation ids, prompt metadata, and call timing.
type Payload struct {
	AllMessages  []prompts.PromptMessage `json:"all_messages"`
	Inputs       map[string]string       `json:"inputs"`
	SessionID    string                  `json:"session_id"`
	TraceID      string                  `json:"trace_id"`
	TraceInput   string                  `json:"trace_input"`
	Output       string                  `json:"output"`
	PromptInfo   prompts.PromptInfo      `json:"prompt_info"`
	CallInfo     CallInfo                `json:"call_info"`
	ResponseInfo ResponseInfo            `json:"response_info"`
}

// Recorder accepts chat-turn payloads for audit and analytics. Callers
// treat it as fire-and-forget: a failed Record never unwinds the turn.
type Recorder interface {
	Record(ctx context.Context, payload Payload) error
}

// HTTPRecorder posts payloads to a recordings endpoint.
type HTTPRecorder struct {
	baseURL string
	apiKey  string
}

func NewHTTPRecorder(baseURL, apiKey string) *HTTPRecorder {
	return &HTTPRecorder{baseURL: baseURL, apiKey: apiKey}
}

func (r *HTTPRecorder) Record(ctx context.Context, payload Payload) error {
	return httputils.PostJSONWithAuth(r.baseURL+"/recordings", r.apiKey, payload, nil)
}

// NopRecorder drops payloads, for deployments without a recording sink.
type NopRecorder struct{}

func (NopRecorder) Record(ctx context.Context, payload Payload) error {
	return nil
}

// MultiRecorder fans a payload out to several sinks, returning the first
// failure after all sinks have been tried.
type MultiRecorder []Recorder

func (m MultiRecorder) Record(ctx context.Context, payload Payload) error {
	var firstErr error
	for _, r := range m {
		if err := r.Record(ctx, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
