package negotiation

import (
	"context"

	"github.com/228Labs/negotiator/negotiator/services/prompts"
	"github.com/228Labs/negotiator/negotiator/sources/psql/dao"
	"github.com/228Labs/negotiator/negotiator/sources/psql/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is one turn of a negotiation transcript.
type Message struct {
	ID      uuid.UUID   `json:"id"`
	Role    models.Role `json:"role"`
	Content string      `json:"content"`
}

// Negotiation is the aggregate of an identity and its ordered
// transcript. Messages are owned exclusively by their negotiation.
type Negotiation struct {
	ID       uuid.UUID `json:"id"`
	Messages []Message `json:"messages"`
}

// WithMessage returns a copy of the negotiation with message appended.
// The stored transcript is untouched.
func (n *Negotiation) WithMessage(message Message) *Negotiation {
	messages := make([]Message, 0, len(n.Messages)+1)
	messages = append(messages, n.Messages...)
	messages = append(messages, message)
	return &Negotiation{ID: n.ID, Messages: messages}
}

// PromptMessages projects the transcript to the {role, content} pairs
// sent to the LLM. Roles outside the prompt-visible set stay in storage
// but are excluded here.
func (n *Negotiation) PromptMessages() []prompts.PromptMessage {
	projected := make([]prompts.PromptMessage, 0, len(n.Messages))
	for _, m := range n.Messages {
		if !m.Role.IsPromptVisible() {
			continue
		}
		projected = append(projected, prompts.PromptMessage{Role: string(m.Role), Content: m.Content})
	}
	return projected
}

// UserFacingMessages filters out system persona messages for API views.
func (n *Negotiation) UserFacingMessages() []Message {
	visible := make([]Message, 0, len(n.Messages))
	for _, m := range n.Messages {
		if m.Role.IsUserFacing() {
			visible = append(visible, m)
		}
	}
	return visible
}

// NegotiationWithOutcome is the summary row for the listing view.
type NegotiationWithOutcome struct {
	ID           uuid.UUID `json:"id"`
	MessageCount int       `json:"message_count"`
	FinalMessage string    `json:"final_message"`
}

// Service composes the negotiation and message stores into consistent
// aggregates. Every public operation runs as one database transaction:
// a creation and its seed messages commit together, or neither does.
type Service struct {
	db           *gorm.DB
	negotiations *dao.NegotiationDAO
	messages     *dao.MessageDAO
	persona      prompts.PersonaTemplate
}

func NewService(db *gorm.DB, negotiations *dao.NegotiationDAO, messages *dao.MessageDAO, persona prompts.PersonaTemplate) *Service {
	return &Service{
		db:           db,
		negotiations: negotiations,
		messages:     messages,
		persona:      persona,
	}
}

// Create allocates a negotiation and seeds its transcript: the system
// persona when the configured persona seeds one, then the fixed
// assistant greeting.
func (s *Service) Create(ctx context.Context) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := s.negotiations.Create(ctx, tx)
		if err != nil {
			return err
		}
		if s.persona.SeedSystemMessage && s.persona.System != "" {
			if _, err := s.messages.Create(ctx, tx, created, uuid.New(), models.RoleSystem, s.persona.System); err != nil {
				return err
			}
		}
		if _, err := s.messages.Create(ctx, tx, created, uuid.New(), models.RoleAssistant, s.persona.Greeting); err != nil {
			return err
		}
		id = created
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Find loads the identity and full transcript. An unknown id yields
// (nil, nil), never an error.
func (s *Service) Find(ctx context.Context, id uuid.UUID) (*Negotiation, error) {
	var result *Negotiation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.negotiations.Find(ctx, tx, id)
		if err != nil {
			return err
		}
		if record == nil {
			return nil
		}
		records, err := s.messages.ListForNegotiation(ctx, tx, record.ID)
		if err != nil {
			return err
		}
		messages := make([]Message, 0, len(records))
		for _, r := range records {
			messages = append(messages, Message{ID: r.ID, Role: r.Role, Content: r.Content})
		}
		result = &Negotiation{ID: record.ID, Messages: messages}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddMessages appends messages in order inside one transaction. Any
// store error rolls the whole batch back; a partial transcript is never
// visible.
func (s *Service) AddMessages(ctx context.Context, id uuid.UUID, messages []Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range messages {
			if _, err := s.messages.Create(ctx, tx, id, m.ID, m.Role, m.Content); err != nil {
				return err
			}
		}
		return nil
	})
}

// Truncate rewinds the transcript to just before atMessageID. Unknown
// message ids are a no-op.
func (s *Service) Truncate(ctx context.Context, id, atMessageID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.messages.TruncateForNegotiation(ctx, tx, id, atMessageID)
	})
}

// FindAllWithOutcome scans every negotiation and loads its messages to
// compute the summary. Linear in negotiations times one message fetch
// each; the listing view is small in practice.
func (s *Service) FindAllWithOutcome(ctx context.Context) ([]NegotiationWithOutcome, error) {
	var outcomes []NegotiationWithOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		records, err := s.negotiations.FindAll(ctx, tx)
		if err != nil {
			return err
		}
		outcomes = make([]NegotiationWithOutcome, 0, len(records))
		for _, record := range records {
			messages, err := s.messages.ListForNegotiation(ctx, tx, record.ID)
			if err != nil {
				return err
			}
			outcome := NegotiationWithOutcome{ID: record.ID, MessageCount: len(messages)}
			if len(messages) > 0 {
				outcome.FinalMessage = messages[len(messages)-1].Content
			}
			outcomes = append(outcomes, outcome)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}
