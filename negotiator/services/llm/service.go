package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/228Labs/negotiator/negotiator/services/negotiation"
	"github.com/228Labs/negotiator/negotiator/services/prompts"
	"github.com/228Labs/negotiator/negotiator/services/recording"
	"github.com/228Labs/negotiator/negotiator/sources/psql/models"
	"github.com/228Labs/negotiator/negotiator/utils/logging"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ResolvedNegotiation is the outcome of a turn the model ended with the
// resolve tool. LeaderboardRank is a placeholder; ranking is not
// implemented yet.
type ResolvedNegotiation struct {
	FinalPrice      decimal.Decimal `json:"final_price"`
	LeaderboardRank int             `json:"leaderboard_rank"`
}

// TurnResult is either a free-text assistant reply or a resolution,
// never both.
type TurnResult struct {
	Reply    *negotiation.Message
	Resolved *ResolvedNegotiation
}

// Service runs one negotiation chat turn: build the prompt context,
// invoke the LLM, interpret the response, persist through the
// negotiation service, then record the call.
type Service struct {
	negotiations *negotiation.Service
	provider     prompts.Provider
	callLLM      ChatCompletionFunc
	recorder     recording.Recorder
	projectID    string
	promptName   string
	environment  string
}

func NewService(
	negotiations *negotiation.Service,
	provider prompts.Provider,
	callLLM ChatCompletionFunc,
	recorder recording.Recorder,
	projectID, promptName, environment string,
) *Service {
	return &Service{
		negotiations: negotiations,
		provider:     provider,
		callLLM:      callLLM,
		recorder:     recorder,
		projectID:    projectID,
		promptName:   promptName,
		environment:  environment,
	}
}

// NegotiateTurn handles one inbound user message against an already
// loaded negotiation. Persistence happens only after the response has
// been interpreted, so a failed call leaves the transcript unchanged.
func (s *Service) NegotiateTurn(ctx context.Context, neg *negotiation.Negotiation, userMessage negotiation.Message) (*TurnResult, error) {
	defer logging.LogDuration(ctx, "negotiate_turn")()

	transcript := neg.WithMessage(userMessage).PromptMessages()
	prompt, err := s.provider.GetFormatted(ctx, s.projectID, s.promptName, s.environment, transcript)
	if err != nil {
		return nil, err
	}
	session := s.provider.RestoreSession(neg.ID.String())
	trace := session.CreateTrace(userMessage.Content)

	start := time.Now()
	completion, err := s.callLLM(ctx, prompt.Info.Model, toChatMessages(prompt.Messages), []Tool{resolveNegotiationTool}, prompt.Info.Parameters)
	end := time.Now()
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, &InvocationError{Err: errors.New("completion has no choices")}
	}
	llmMessage := completion.Choices[0].Message

	if len(llmMessage.ToolCalls) > 0 && llmMessage.ToolCalls[0].Function.Name == ResolveNegotiationToolName {
		arguments := llmMessage.ToolCalls[0].Function.Arguments
		var toolArgs struct {
			FinalPrice decimal.Decimal `json:"final_price"`
		}
		if err := json.Unmarshal([]byte(arguments), &toolArgs); err != nil {
			return nil, &MalformedToolArgumentsError{Arguments: arguments, Err: err}
		}

		// The assistant's turn is the resolution itself; only the
		// user's message is stored.
		if err := s.negotiations.AddMessages(ctx, neg.ID, []negotiation.Message{userMessage}); err != nil {
			return nil, err
		}

		s.record(ctx, neg, prompt, arguments, session, trace, start, end, recording.ResponseInfo{
			FunctionCall: &recording.FunctionCall{Name: ResolveNegotiationToolName, Arguments: arguments},
		})
		return &TurnResult{Resolved: s.resolveNegotiation(neg, toolArgs.FinalPrice)}, nil
	}

	reply := negotiation.Message{
		ID:      uuid.New(),
		Role:    models.RoleAssistant,
		Content: llmMessage.Content,
	}
	if err := s.negotiations.AddMessages(ctx, neg.ID, []negotiation.Message{userMessage, reply}); err != nil {
		return nil, err
	}

	s.record(ctx, neg, prompt, reply.Content, session, trace, start, end, recording.ResponseInfo{})
	return &TurnResult{Reply: &reply}, nil
}

func (s *Service) resolveNegotiation(neg *negotiation.Negotiation, finalPrice decimal.Decimal) *ResolvedNegotiation {
	// TODO: compute a real leaderboard rank once ranking is specified.
	return &ResolvedNegotiation{
		FinalPrice:      finalPrice,
		LeaderboardRank: 0,
	}
}

// record ships the turn to the recording sink. Best-effort: it runs
// after the transcript is committed and a sink failure never rolls that
// back.
func (s *Service) record(
	ctx context.Context,
	neg *negotiation.Negotiation,
	prompt *prompts.FormattedPrompt,
	output string,
	session *prompts.Session,
	trace *prompts.Trace,
	start, end time.Time,
	responseInfo recording.ResponseInfo,
) {
	// The greeting, not the persona: a seeded transcript starts with a
	// system message, so scan for the first assistant turn.
	initialAssistantMessage := ""
	for _, m := range neg.Messages {
		if m.Role == models.RoleAssistant {
			initialAssistantMessage = m.Content
			break
		}
	}

	payload := recording.Payload{
		AllMessages: prompt.AllMessages(prompts.PromptMessage{Role: "assistant", Content: output}),
		Inputs: map[string]string{
			"initial_assistant_message": initialAssistantMessage,
		},
		SessionID:  session.SessionID,
		TraceID:    trace.TraceID,
		TraceInput: trace.Input,
		Output:     output,
		PromptInfo: prompt.Info,
		CallInfo: recording.CallInfo{
			Model:      prompt.Info.Model,
			Parameters: prompt.Info.Parameters,
			StartTime:  start,
			EndTime:    end,
		},
		ResponseInfo: responseInfo,
	}
	if err := s.recorder.Record(ctx, payload); err != nil {
		logging.ErrorLogger.Error("recording sink failed",
			zap.String("negotiation_id", neg.ID.String()),
			zap.Error(err),
		)
	}
}

func toChatMessages(messages []prompts.PromptMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
