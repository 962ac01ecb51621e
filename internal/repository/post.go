// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"parley/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines interface for post operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	// GetByID returns the post including soft-deleted records so callers
	// can distinguish gone from not-found.
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	// SoftDeleteCascade soft-deletes the post, every comment under it and
	// every reaction on the post or its comments in one transaction. It
	// reports false when the post was already deleted.
	SoftDeleteCascade(ctx context.Context, id uint) (deleted bool, comments int64, err error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Unscoped().First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) SoftDeleteCascade(ctx context.Context, id uint) (bool, int64, error) {
	var deleted bool
	var comments int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already soft-deleted or absent; nothing to cascade.
			return nil
		}
		deleted = true

		// Reactions on the post itself.
		if err := tx.Where("resource_type = ? AND resource_id = ?", models.ResourcePost, id).
			Delete(&models.Reaction{}).Error; err != nil {
			return err
		}

		// Reactions on any comment under the post. The subquery must see
		// comments regardless of deletion state, so it runs unscoped.
		commentIDs := tx.Unscoped().Model(&models.Comment{}).Select("id").Where("post_id = ?", id)
		if err := tx.Where("resource_type = ? AND resource_id IN (?)", models.ResourceComment, commentIDs).
			Delete(&models.Reaction{}).Error; err != nil {
			return err
		}

		res = tx.Where("post_id = ?", id).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		comments = res.RowsAffected
		return nil
	})

	return deleted, comments, err
}
