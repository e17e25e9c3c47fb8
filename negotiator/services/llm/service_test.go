package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/228Labs/negotiator/negotiator/services/negotiation"
	"github.com/228Labs/negotiator/negotiator/services/prompts"
	"github.com/228Labs/negotiator/negotiator/services/recording"
	"github.com/228Labs/negotiator/negotiator/sources/psql/dao"
	"github.com/228Labs/negotiator/negotiator/sources/psql/models"
	"github.com/228Labs/negotiator/negotiator/utils/logging"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// --- Helpers ---

type captureRecorder struct {
	payloads []recording.Payload
	err      error
}

func (r *captureRecorder) Record(ctx context.Context, payload recording.Payload) error {
	r.payloads = append(r.payloads, payload)
	return r.err
}

type fakeLLM struct {
	completion *ChatCompletion
	err        error
	calls      [][]ChatMessage
}

func (f *fakeLLM) call(ctx context.Context, model string, messages []ChatMessage, tools []Tool, params map[string]interface{}) (*ChatCompletion, error) {
	f.calls = append(f.calls, messages)
	return f.completion, f.err
}

func textCompletion(content string) *ChatCompletion {
	return &ChatCompletion{
		Choices: []Choice{{
			Message:      CompletionMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
	}
}

func toolCompletion(arguments string) *ChatCompletion {
	return &ChatCompletion{
		Choices: []Choice{{
			Message: CompletionMessage{
				Role: "assistant",
				ToolCalls: []ToolCall{{
					ID:       "call_" + uuid.New().String(),
					Type:     "function",
					Function: FunctionCall{Name: ResolveNegotiationToolName, Arguments: arguments},
				}},
			},
			FinishReason: "stop",
		}},
	}
}

type testEnv struct {
	negotiations *negotiation.Service
	recorder     *captureRecorder
	fake         *fakeLLM
	service      *Service
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return setupTestEnvWithPersona(t, prompts.DefaultPersona())
}

func setupTestEnvWithPersona(t *testing.T, persona prompts.PersonaTemplate) *testEnv {
	t.Helper()
	logging.InitLogger()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Negotiation{}, &models.Message{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	negotiations := negotiation.NewService(db, dao.NewNegotiationDAO(db), dao.NewMessageDAO(db), persona)
	recorder := &captureRecorder{}
	fake := &fakeLLM{}
	service := NewService(
		negotiations,
		prompts.NewTemplateProvider(persona),
		fake.call,
		recorder,
		"test-project",
		"negotiator",
		"latest",
	)
	return &testEnv{negotiations: negotiations, recorder: recorder, fake: fake, service: service}
}

func (env *testEnv) createNegotiation(t *testing.T) *negotiation.Negotiation {
	t.Helper()
	id, err := env.negotiations.Create(context.Background())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	neg, err := env.negotiations.Find(context.Background(), id)
	if err != nil || neg == nil {
		t.Fatalf("find failed: %v", err)
	}
	return neg
}

func userMessage(content string) negotiation.Message {
	return negotiation.Message{ID: uuid.New(), Role: models.RoleUser, Content: content}
}

// --- Tests ---

func TestNegotiateTurn_FreeTextReply(t *testing.T) {
	env := setupTestEnv(t)
	env.fake.completion = textCompletion("Assistant response")
	neg := env.createNegotiation(t)

	result, err := env.service.NegotiateTurn(context.Background(), neg, userMessage("A new message!"))
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if result.Resolved != nil {
		t.Error("expected a free-text reply, got a resolution")
	}
	if result.Reply == nil || result.Reply.Content != "Assistant response" {
		t.Fatalf("unexpected reply: %+v", result.Reply)
	}
	if result.Reply.Role != models.RoleAssistant {
		t.Errorf("expected assistant role, got %s", result.Reply.Role)
	}

	// exactly two new messages, user then assistant
	updated, err := env.negotiations.Find(context.Background(), neg.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(updated.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(updated.Messages))
	}
	if updated.Messages[1].Role != models.RoleUser || updated.Messages[1].Content != "A new message!" {
		t.Errorf("unexpected user message: %+v", updated.Messages[1])
	}
	if updated.Messages[2].Role != models.RoleAssistant || updated.Messages[2].Content != "Assistant response" {
		t.Errorf("unexpected assistant message: %+v", updated.Messages[2])
	}
}

func TestNegotiateTurn_ResolveTool(t *testing.T) {
	env := setupTestEnv(t)
	env.fake.completion = toolCompletion(`{"final_price": 15000}`)
	neg := env.createNegotiation(t)

	result, err := env.service.NegotiateTurn(context.Background(), neg, userMessage("Final user message"))
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if result.Reply != nil {
		t.Error("expected a resolution, got a reply")
	}
	if result.Resolved == nil {
		t.Fatal("expected a resolution")
	}
	if !result.Resolved.FinalPrice.Equal(decimal.NewFromInt(15000)) {
		t.Errorf("expected final price 15000, got %s", result.Resolved.FinalPrice)
	}
	if result.Resolved.LeaderboardRank != 0 {
		t.Errorf("expected placeholder rank 0, got %d", result.Resolved.LeaderboardRank)
	}

	// only the user's message is stored; the resolution stands in for
	// the assistant's turn
	updated, err := env.negotiations.Find(context.Background(), neg.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(updated.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(updated.Messages))
	}
	if updated.Messages[1].Role != models.RoleUser || updated.Messages[1].Content != "Final user message" {
		t.Errorf("unexpected stored message: %+v", updated.Messages[1])
	}
}

func TestNegotiateTurn_FullScenario(t *testing.T) {
	env := setupTestEnv(t)
	neg := env.createNegotiation(t)
	if len(neg.Messages) != 1 || neg.Messages[0].Role != models.RoleAssistant {
		t.Fatalf("unexpected seeded transcript: %+v", neg.Messages)
	}

	env.fake.completion = textCompletion("Sure thing")
	if _, err := env.service.NegotiateTurn(context.Background(), neg, userMessage("Tell me more")); err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	neg, err := env.negotiations.Find(context.Background(), neg.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(neg.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(neg.Messages))
	}
	if neg.Messages[1].Content != "Tell me more" || neg.Messages[2].Content != "Sure thing" {
		t.Errorf("unexpected transcript: %+v", neg.Messages)
	}

	env.fake.completion = toolCompletion(`{"final_price": 15000}`)
	result, err := env.service.NegotiateTurn(context.Background(), neg, userMessage("Deal at 15000"))
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if result.Resolved == nil || !result.Resolved.FinalPrice.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("unexpected result: %+v", result)
	}

	neg, err = env.negotiations.Find(context.Background(), neg.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(neg.Messages) != 4 {
		t.Errorf("expected exactly 1 new message from the resolve turn, got %d total", len(neg.Messages))
	}
}

func TestNegotiateTurn_PromptIncludesPersonaAndTranscript(t *testing.T) {
	env := setupTestEnv(t)
	env.fake.completion = textCompletion("reply")
	neg := env.createNegotiation(t)

	if _, err := env.service.NegotiateTurn(context.Background(), neg, userMessage("hello")); err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	if len(env.fake.calls) != 1 {
		t.Fatalf("expected 1 LLM call, got %d", len(env.fake.calls))
	}
	sent := env.fake.calls[0]
	// persona system message, seeded greeting, then the new user message
	if len(sent) != 3 {
		t.Fatalf("expected 3 prompt messages, got %d", len(sent))
	}
	if sent[0].Role != "system" {
		t.Errorf("expected system message first, got %s", sent[0].Role)
	}
	if sent[1].Role != "assistant" || sent[2].Role != "user" || sent[2].Content != "hello" {
		t.Errorf("unexpected prompt tail: %+v", sent[1:])
	}
}

func TestNegotiateTurn_MalformedToolArguments(t *testing.T) {
	env := setupTestEnv(t)
	env.fake.completion = toolCompletion(`{"final_price": `)
	neg := env.createNegotiation(t)

	_, err := env.service.NegotiateTurn(context.Background(), neg, userMessage("Deal"))
	var malformed *MalformedToolArgumentsError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedToolArgumentsError, got %v", err)
	}

	// nothing persisted on a failed parse
	updated, findErr := env.negotiations.Find(context.Background(), neg.ID)
	if findErr != nil {
		t.Fatalf("find failed: %v", findErr)
	}
	if len(updated.Messages) != 1 {
		t.Errorf("expected transcript unchanged, got %d messages", len(updated.Messages))
	}
}

func TestNegotiateTurn_LLMFailureLeavesTranscriptUnchanged(t *testing.T) {
	env := setupTestEnv(t)
	env.fake.err = &InvocationError{Err: errors.New("provider unavailable")}
	neg := env.createNegotiation(t)

	_, err := env.service.NegotiateTurn(context.Background(), neg, userMessage("hello?"))
	var invocation *InvocationError
	if !errors.As(err, &invocation) {
		t.Fatalf("expected InvocationError, got %v", err)
	}

	updated, findErr := env.negotiations.Find(context.Background(), neg.ID)
	if findErr != nil {
		t.Fatalf("find failed: %v", findErr)
	}
	if len(updated.Messages) != 1 {
		t.Errorf("expected transcript unchanged, got %d messages", len(updated.Messages))
	}
}

func TestNegotiateTurn_RecordsFreeTextTurn(t *testing.T) {
	env := setupTestEnv(t)
	env.fake.completion = textCompletion("Sure thing")
	neg := env.createNegotiation(t)

	if _, err := env.service.NegotiateTurn(context.Background(), neg, userMessage("Tell me more")); err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	if len(env.recorder.payloads) != 1 {
		t.Fatalf("expected 1 recorded payload, got %d", len(env.recorder.payloads))
	}
	payload := env.recorder.payloads[0]
	if payload.SessionID != neg.ID.String() {
		t.Errorf("expected session keyed by negotiation id, got %s", payload.SessionID)
	}
	if payload.Output != "Sure thing" {
		t.Errorf("expected output recorded, got %q", payload.Output)
	}
	if payload.ResponseInfo.FunctionCall != nil {
		t.Error("free-text turn should not record a function call")
	}
	if payload.Inputs["initial_assistant_message"] != neg.Messages[0].Content {
		t.Errorf("unexpected inputs: %+v", payload.Inputs)
	}
	last := payload.AllMessages[len(payload.AllMessages)-1]
	if last.Role != "assistant" || last.Content != "Sure thing" {
		t.Errorf("expected reply appended to all_messages, got %+v", last)
	}
	if payload.CallInfo.EndTime.Before(payload.CallInfo.StartTime) {
		t.Error("call end time precedes start time")
	}
}

func TestNegotiateTurn_RecordsGreetingWithSeededPersona(t *testing.T) {
	persona := prompts.DefaultPersona()
	persona.SeedSystemMessage = true
	env := setupTestEnvWithPersona(t, persona)
	env.fake.completion = textCompletion("Sure thing")
	neg := env.createNegotiation(t)
	if len(neg.Messages) != 2 || neg.Messages[0].Role != models.RoleSystem {
		t.Fatalf("unexpected seeded transcript: %+v", neg.Messages)
	}

	if _, err := env.service.NegotiateTurn(context.Background(), neg, userMessage("Tell me more")); err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	if len(env.recorder.payloads) != 1 {
		t.Fatalf("expected 1 recorded payload, got %d", len(env.recorder.payloads))
	}
	// the greeting, not the seeded system instructions
	got := env.recorder.payloads[0].Inputs["initial_assistant_message"]
	if got != persona.Greeting {
		t.Errorf("expected greeting recorded as initial assistant message, got %q", got)
	}
}

func TestNegotiateTurn_RecordsToolCallTurn(t *testing.T) {
	env := setupTestEnv(t)
	arguments := `{"final_price": 15000}`
	env.fake.completion = toolCompletion(arguments)
	neg := env.createNegotiation(t)

	if _, err := env.service.NegotiateTurn(context.Background(), neg, userMessage("Deal")); err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	if len(env.recorder.payloads) != 1 {
		t.Fatalf("expected 1 recorded payload, got %d", len(env.recorder.payloads))
	}
	payload := env.recorder.payloads[0]
	if payload.ResponseInfo.FunctionCall == nil {
		t.Fatal("expected function call recorded")
	}
	if payload.ResponseInfo.FunctionCall.Name != ResolveNegotiationToolName {
		t.Errorf("unexpected function name %q", payload.ResponseInfo.FunctionCall.Name)
	}
	if payload.ResponseInfo.FunctionCall.Arguments != arguments {
		t.Errorf("expected raw arguments recorded, got %q", payload.ResponseInfo.FunctionCall.Arguments)
	}
}

func TestNegotiateTurn_RecorderFailureIsSwallowed(t *testing.T) {
	env := setupTestEnv(t)
	env.fake.completion = textCompletion("reply")
	env.recorder.err = errors.New("sink down")
	neg := env.createNegotiation(t)

	result, err := env.service.NegotiateTurn(context.Background(), neg, userMessage("hello"))
	if err != nil {
		t.Fatalf("recorder failure must not fail the turn: %v", err)
	}
	if result.Reply == nil {
		t.Error("expected a reply despite recorder failure")
	}

	// the append committed before the recorder ran
	updated, findErr := env.negotiations.Find(context.Background(), neg.ID)
	if findErr != nil {
		t.Fatalf("find failed: %v", findErr)
	}
	if len(updated.Messages) != 3 {
		t.Errorf("expected 3 messages, got %d", len(updated.Messages))
	}
}

func TestNegotiateTurn_EmptyChoices(t *testing.T) {
	env := setupTestEnv(t)
	env.fake.completion = &ChatCompletion{}
	neg := env.createNegotiation(t)

	_, err := env.service.NegotiateTurn(context.Background(), neg, userMessage("hello"))
	var invocation *InvocationError
	if !errors.As(err, &invocation) {
		t.Errorf("expected InvocationError for empty choices, got %v", err)
	}
}
