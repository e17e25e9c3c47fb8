package models

import (
	"github.com/google/uuid"
)

// Role is the closed set of speakers in a negotiation transcript.
type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// IsUserFacing reports whether a message with this role belongs in
// transcript views served to clients. System persona messages do not.
func (r Role) IsUserFacing() bool {
	return r != RoleSystem
}

// IsPromptVisible reports whether a message with this role is projected
// into the LLM prompt context. Unknown roles are stored but never sent.
func (r Role) IsPromptVisible() bool {
	switch r {
	case RoleSystem, RoleAssistant, RoleUser:
		return true
	}
	return false
}

type Message struct {
	ID            uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	NegotiationID uuid.UUID   `json:"negotiation_id" gorm:"type:uuid;not null;uniqueIndex:idx_messages_negotiation_seq,priority:1"`
	Negotiation   Negotiation `json:"-" gorm:"foreignKey:NegotiationID;references:ID;constraint:OnDelete:CASCADE"`
	Role          Role        `json:"role" gorm:"type:varchar(16);not null"`
	Content       string      `json:"content" gorm:"type:text;not null"`
	Seq           int64       `json:"-" gorm:"not null;uniqueIndex:idx_messages_negotiation_seq,priority:2"`
}
