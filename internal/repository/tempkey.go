package repository

import (
	"context"
	"errors"
	"time"

	"parley/internal/models"

	"gorm.io/gorm"
)

// TempKeyRepository defines interface for temp key records.
type TempKeyRepository interface {
	Create(ctx context.Context, key *models.TempKey) error
	// FindByHash returns nil, nil when no record matches.
	FindByHash(ctx context.Context, hash string) (*models.TempKey, error)
	// FindLive returns the unexpired, unconsumed key for the subject and
	// type, or nil, nil when none exists.
	FindLive(ctx context.Context, subject uint, keyType string, now time.Time) (*models.TempKey, error)
	// Consume marks the key consumed if and only if it is still
	// unconsumed. The rows-affected check makes the first caller win.
	Consume(ctx context.Context, id uint, now time.Time) (bool, error)
	// DeleteExpired hard-deletes keys whose expiry is before the cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type tempKeyRepository struct {
	db *gorm.DB
}

// NewTempKeyRepository creates a new TempKeyRepository
func NewTempKeyRepository(db *gorm.DB) TempKeyRepository {
	return &tempKeyRepository{db: db}
}

func (r *tempKeyRepository) Create(ctx context.Context, key *models.TempKey) error {
	return r.db.WithContext(ctx).Create(key).Error
}

func (r *tempKeyRepository) FindByHash(ctx context.Context, hash string) (*models.TempKey, error) {
	var key models.TempKey
	err := r.db.WithContext(ctx).Where("key_hash = ?", hash).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *tempKeyRepository) FindLive(ctx context.Context, subject uint, keyType string, now time.Time) (*models.TempKey, error) {
	var key models.TempKey
	err := r.db.WithContext(ctx).
		Where("subject = ? AND key_type = ? AND consumed = ? AND expires_at > ?", subject, keyType, false, now).
		First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *tempKeyRepository) Consume(ctx context.Context, id uint, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.TempKey{}).
		Where("id = ? AND consumed = ?", id, false).
		Updates(map[string]interface{}{"consumed": true, "consumed_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *tempKeyRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", cutoff).Delete(&models.TempKey{})
	return res.RowsAffected, res.Error
}
