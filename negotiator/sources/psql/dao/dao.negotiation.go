package dao

import (
	"context"

	"github.com/228Labs/negotiator/negotiator/sources/psql/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NegotiationDAO struct {
	DB *gorm.DB
}

func NewNegotiationDAO(db *gorm.DB) *NegotiationDAO {
	return &NegotiationDAO{DB: db}
}

func (dao *NegotiationDAO) Create(ctx context.Context, tx *gorm.DB) (uuid.UUID, error) {
	record := models.Negotiation{ID: uuid.New()}
	if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
		return uuid.Nil, &StorageError{Op: "create negotiation", Err: err}
	}
	return record.ID, nil
}

// Find is an existence check plus id echo; messages live in their own
// store. Not-found is a nil record, never an error.
func (dao *NegotiationDAO) Find(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Negotiation, error) {
	var record models.Negotiation
	err := tx.WithContext(ctx).First(&record, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (dao *NegotiationDAO) FindAll(ctx context.Context, tx *gorm.DB) ([]models.Negotiation, error) {
	var records []models.Negotiation
	err := tx.WithContext(ctx).Order("created_at asc").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
