package models

import (
	"time"

	"github.com/google/uuid"
)

type Negotiation struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}
