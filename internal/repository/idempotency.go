package repository

import (
	"context"
	"errors"

	"parley/internal/models"

	"gorm.io/gorm"
)

// IdempotencyRepository stores idempotency keys and the results they
// produced.
type IdempotencyRepository interface {
	// Get returns nil, nil when the (scope, key) pair has not been seen.
	Get(ctx context.Context, scope, key string) (*models.IdempotencyRecord, error)
	Record(ctx context.Context, scope, key string, resultID uint) error
}

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates a new IdempotencyRepository
func NewIdempotencyRepository(db *gorm.DB) IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) Get(ctx context.Context, scope, key string) (*models.IdempotencyRecord, error) {
	var record models.IdempotencyRecord
	err := r.db.WithContext(ctx).Where("scope = ? AND key = ?", scope, key).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *idempotencyRepository) Record(ctx context.Context, scope, key string, resultID uint) error {
	return r.db.WithContext(ctx).Create(&models.IdempotencyRecord{
		Scope:    scope,
		Key:      key,
		ResultID: resultID,
	}).Error
}
