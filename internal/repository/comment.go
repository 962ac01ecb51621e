package repository

import (
	"context"

	"parley/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	// GetByID returns the comment including soft-deleted records.
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	// ListTreeByPost returns non-deleted top-level comments with their
	// non-deleted replies attached, both levels newest-first with ID as
	// the tie-break.
	ListTreeByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	// SoftDeleteCascade soft-deletes the comment and, when it is
	// top-level, its direct replies in the same transaction. It reports
	// false when the comment was already deleted.
	SoftDeleteCascade(ctx context.Context, id uint) (deleted bool, replies int64, err error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Unscoped().First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListTreeByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	// Non-nil so the empty tree serializes as [] rather than null.
	top := []*models.Comment{}
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("created_at DESC, id DESC").
		Find(&top).Error
	if err != nil {
		return nil, err
	}
	if len(top) == 0 {
		return top, nil
	}

	ids := make([]uint, 0, len(top))
	byID := make(map[uint]*models.Comment, len(top))
	for _, c := range top {
		ids = append(ids, c.ID)
		byID[c.ID] = c
		c.Replies = []*models.Comment{}
	}

	var replies []*models.Comment
	err = r.db.WithContext(ctx).
		Where("post_id = ? AND parent_id IN ?", postID, ids).
		Order("created_at DESC, id DESC").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}
	for _, reply := range replies {
		if parent, ok := byID[*reply.ParentID]; ok {
			parent.Replies = append(parent.Replies, reply)
		}
	}
	return top, nil
}

func (r *commentRepository) SoftDeleteCascade(ctx context.Context, id uint) (bool, int64, error) {
	var deleted bool
	var replies int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Comment{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true

		res = tx.Where("parent_id = ?", id).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		replies = res.RowsAffected
		return nil
	})

	return deleted, replies, err
}
