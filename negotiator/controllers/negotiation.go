package controllers

import (
	"context"

	"github.com/228Labs/negotiator/negotiator/services/llm"
	"github.com/228Labs/negotiator/negotiator/services/negotiation"
	"github.com/228Labs/negotiator/negotiator/sources/psql/models"

	"github.com/google/uuid"
)

type NegotiationController struct {
	negotiations *negotiation.Service
	llm          *llm.Service
}

func NewNegotiationController(negotiations *negotiation.Service, llmService *llm.Service) *NegotiationController {
	return &NegotiationController{negotiations: negotiations, llm: llmService}
}

type MessageInfo struct {
	ID      uuid.UUID   `json:"id"`
	Role    models.Role `json:"role"`
	Content string      `json:"content"`
}

// NegotiationInfo is the client-facing transcript view. System persona
// messages never appear here.
type NegotiationInfo struct {
	ID       uuid.UUID     `json:"id"`
	Messages []MessageInfo `json:"messages"`
}

func (c *NegotiationController) Create(ctx context.Context) (uuid.UUID, error) {
	return c.negotiations.Create(ctx)
}

func (c *NegotiationController) Show(ctx context.Context, id uuid.UUID) (*NegotiationInfo, error) {
	neg, err := c.negotiations.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if neg == nil {
		return nil, nil
	}
	return toInfo(neg), nil
}

// NewMessage runs one chat turn. found is false when the negotiation
// does not exist; callers check existence before anything persists.
func (c *NegotiationController) NewMessage(ctx context.Context, id, messageID uuid.UUID, content string) (result *llm.TurnResult, found bool, err error) {
	neg, err := c.negotiations.Find(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if neg == nil {
		return nil, false, nil
	}

	userMessage := negotiation.Message{
		ID:      messageID,
		Role:    models.RoleUser,
		Content: content,
	}

	result, err = c.llm.NegotiateTurn(ctx, neg, userMessage)
	if err != nil {
		return nil, true, err
	}
	return result, true, nil
}

func (c *NegotiationController) Reset(ctx context.Context, id, messageID uuid.UUID) error {
	return c.negotiations.Truncate(ctx, id, messageID)
}

func (c *NegotiationController) ListOutcomes(ctx context.Context) ([]negotiation.NegotiationWithOutcome, error) {
	return c.negotiations.FindAllWithOutcome(ctx)
}

func toInfo(neg *negotiation.Negotiation) *NegotiationInfo {
	visible := neg.UserFacingMessages()
	messages := make([]MessageInfo, 0, len(visible))
	for _, m := range visible {
		messages = append(messages, MessageInfo{ID: m.ID, Role: m.Role, Content: m.Content})
	}
	return &NegotiationInfo{ID: neg.ID, Messages: messages}
}
