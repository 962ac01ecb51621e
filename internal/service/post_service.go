// Package service implements the business rules for posts, comments,
// reactions and the secret-key vault.
package service

import (
	"context"
	"errors"

	"parley/internal/models"
	"parley/internal/observability"
	"parley/internal/repository"

	"gorm.io/gorm"
)

// PostService is the status gate for posts and owns post-level cascading
// deletion.
type PostService struct {
	postRepo repository.PostRepository
}

// NewPostService creates a new PostService
func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

// Status reports existence, deletion and lock state of a post. Deleted
// takes message precedence over locked.
func (s *PostService) Status(ctx context.Context, postID uint) (models.PostStatus, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.PostStatus{Exists: false, Message: "post not found"}, nil
	}
	if err != nil {
		return models.PostStatus{}, models.NewInternalError(err)
	}

	status := models.PostStatus{
		Exists:  true,
		Deleted: post.DeletedAt.Valid,
		Locked:  post.Locked(),
	}
	switch {
	case status.Deleted:
		status.Message = "post has been deleted"
	case status.Locked:
		status.Message = "post is locked"
	default:
		status.Message = "post is available"
	}
	return status, nil
}

// DeletePost soft-deletes the post and cascades over its comments, replies
// and reactions in one transaction. Deleting an already-deleted post fails
// with Gone.
func (s *PostService) DeletePost(ctx context.Context, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("post", postID)
	}
	if err != nil {
		return models.NewInternalError(err)
	}
	if post.DeletedAt.Valid {
		return models.NewGoneError("post", postID)
	}

	deleted, comments, err := s.postRepo.SoftDeleteCascade(ctx, postID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !deleted {
		// A concurrent delete won the race.
		return models.NewGoneError("post", postID)
	}

	observability.GlobalLogger.LogCascade(ctx, "post", postID, comments)
	return nil
}
