package repository

import (
	"context"

	"parley/internal/models"

	"gorm.io/gorm"
)

// ReactionRepository defines interface for reaction operations
type ReactionRepository interface {
	// FirstOrCreate persists the reaction unless an identical
	// (resource, reactor, kind) record already exists; repeats are
	// first-write-wins no-ops. It reports whether a new record was
	// created and leaves the surviving record in r.
	FirstOrCreate(ctx context.Context, reaction *models.Reaction) (created bool, err error)
	GetByID(ctx context.Context, id uint) (*models.Reaction, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new ReactionRepository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) FirstOrCreate(ctx context.Context, reaction *models.Reaction) (bool, error) {
	identity := models.Reaction{
		ResourceType: reaction.ResourceType,
		ResourceID:   reaction.ResourceID,
		ReactorID:    reaction.ReactorID,
		ReactionType: reaction.ReactionType,
	}
	res := r.db.WithContext(ctx).
		Where(&identity).
		Attrs(models.Reaction{IdempotencyKey: reaction.IdempotencyKey}).
		FirstOrCreate(reaction)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *reactionRepository) GetByID(ctx context.Context, id uint) (*models.Reaction, error) {
	var reaction models.Reaction
	if err := r.db.WithContext(ctx).First(&reaction, id).Error; err != nil {
		return nil, err
	}
	return &reaction, nil
}
