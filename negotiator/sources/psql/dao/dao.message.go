package dao

import (
	"context"
	"fmt"

	"github.com/228Labs/negotiator/negotiator/sources/psql/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageDAO is the append-only message log. Every method takes the
// transaction handle of the surrounding unit of work so that callers
// decide what commits together.
type MessageDAO struct {
	DB *gorm.DB
}

func NewMessageDAO(db *gorm.DB) *MessageDAO {
	return &MessageDAO{DB: db}
}

func (dao *MessageDAO) Create(ctx context.Context, tx *gorm.DB, negotiationID, id uuid.UUID, role models.Role, content string) (uuid.UUID, error) {
	var known int64
	if err := tx.WithContext(ctx).Model(&models.Negotiation{}).Where("id = ?", negotiationID).Count(&known).Error; err != nil {
		return uuid.Nil, err
	}
	if known == 0 {
		return uuid.Nil, &StorageError{Op: "create message", Err: fmt.Errorf("unknown negotiation %s", negotiationID)}
	}

	// seq is assigned inside the transaction, so creation order is the
	// order the storage engine committed.
	var nextSeq int64
	err := tx.WithContext(ctx).Model(&models.Message{}).
		Where("negotiation_id = ?", negotiationID).
		Select("coalesce(max(seq), 0) + 1").
		Scan(&nextSeq).Error
	if err != nil {
		return uuid.Nil, err
	}

	msg := models.Message{
		ID:            id,
		NegotiationID: negotiationID,
		Role:          role,
		Content:       content,
		Seq:           nextSeq,
	}
	if err := tx.WithContext(ctx).Create(&msg).Error; err != nil {
		return uuid.Nil, &StorageError{Op: "create message", Err: err}
	}
	return id, nil
}

func (dao *MessageDAO) ListForNegotiation(ctx context.Context, tx *gorm.DB, negotiationID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := tx.WithContext(ctx).
		Where("negotiation_id = ?", negotiationID).
		Order("seq asc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// TruncateForNegotiation deletes atMessageID and every message created
// after it within the negotiation. A message id that does not belong to
// the negotiation is a no-op, not an error: truncation backs the UI
// rewind action and must never fail the page.
func (dao *MessageDAO) TruncateForNegotiation(ctx context.Context, tx *gorm.DB, negotiationID, atMessageID uuid.UUID) error {
	var target models.Message
	err := tx.WithContext(ctx).
		Where("id = ? AND negotiation_id = ?", atMessageID, negotiationID).
		First(&target).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return tx.WithContext(ctx).
		Where("negotiation_id = ? AND seq >= ?", negotiationID, target.Seq).
		Delete(&models.Message{}).Error
}
