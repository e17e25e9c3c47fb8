package prompts

import (
	"context"

	"github.com/google/uuid"
)

// PromptMessage is a single {role, content} pair in an LLM-facing
// transcript projection.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type PromptInfo struct {
	ProjectID   string                 `json:"project_id"`
	PromptName  string                 `json:"prompt_name"`
	Environment string                 `json:"environment"`
	Model       string                 `json:"model"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// FormattedPrompt is a rendered prompt: the model plus sampling
// parameters to call with, and the message list to send.
type FormattedPrompt struct {
	Info     PromptInfo
	Messages []PromptMessage
}

// AllMessages returns the prompt messages with the produced reply
// appended, the shape the recording sink expects.
func (p *FormattedPrompt) AllMessages(reply PromptMessage) []PromptMessage {
	all := make([]PromptMessage, 0, len(p.Messages)+1)
	all = append(all, p.Messages...)
	return append(all, reply)
}

// Session correlates recorded LLM calls for one negotiation.
type Session struct {
	SessionID string
}

type Trace struct {
	TraceID string
	Input   string
}

func (s *Session) CreateTrace(input string) *Trace {
	return &Trace{TraceID: uuid.New().String(), Input: input}
}

// Provider hands out formatted prompts and logging-correlation sessions.
type Provider interface {
	GetFormatted(ctx context.Context, projectID, name, environment string, transcript []PromptMessage) (*FormattedPrompt, error)
	RestoreSession(negotiationID string) *Session
}

// TemplateProvider formats prompts from a local persona template.
type TemplateProvider struct {
	persona PersonaTemplate
}

func NewTemplateProvider(persona PersonaTemplate) *TemplateProvider {
	return &TemplateProvider{persona: persona}
}

func (p *TemplateProvider) GetFormatted(ctx context.Context, projectID, name, environment string, transcript []PromptMessage) (*FormattedPrompt, error) {
	messages := make([]PromptMessage, 0, len(transcript)+1)
	if p.persona.System != "" && !hasSystemMessage(transcript) {
		messages = append(messages, PromptMessage{Role: "system", Content: p.persona.System})
	}
	messages = append(messages, transcript...)

	return &FormattedPrompt{
		Info: PromptInfo{
			ProjectID:   projectID,
			PromptName:  name,
			Environment: environment,
			Model:       p.persona.Model,
			Parameters:  p.persona.Parameters,
		},
		Messages: messages,
	}, nil
}

// RestoreSession keys the session by the negotiation id so every turn of
// one negotiation records under the same session.
func (p *TemplateProvider) RestoreSession(negotiationID string) *Session {
	return &Session{SessionID: negotiationID}
}

func hasSystemMessage(transcript []PromptMessage) bool {
	for _, m := range transcript {
		if m.Role == "system" {
			return true
		}
	}
	return false
}
