package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parley/internal/models"
	"parley/internal/observability"
	"parley/internal/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const maxCommentLen = 10000

// CommentService owns the post -> top-level comment -> reply hierarchy:
// creation with idempotent writes and rate limiting, two-level listing and
// cascading soft-delete.
type CommentService struct {
	commentRepo repository.CommentRepository
	idemRepo    repository.IdempotencyRepository
	gate        *PostService
	rdb         *redis.Client
	interval    time.Duration
}

// CreateCommentInput carries a comment write request.
type CreateCommentInput struct {
	PostID         uint
	AuthorID       uint
	Content        string
	ParentID       *uint
	AtUserID       *uint
	IdempotencyKey string
}

// NewCommentService creates a new CommentService. interval is the
// per-author minimum gap between accepted comments.
func NewCommentService(
	commentRepo repository.CommentRepository,
	idemRepo repository.IdempotencyRepository,
	gate *PostService,
	rdb *redis.Client,
	interval time.Duration,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		idemRepo:    idemRepo,
		gate:        gate,
		rdb:         rdb,
		interval:    interval,
	}
}

// idempotencyScope scopes comment idempotency keys per (author, post).
func commentIdempotencyScope(authorID, postID uint) string {
	return fmt.Sprintf("comment:%d:%d", authorID, postID)
}

// CreateComment persists one comment. Replayed idempotency keys return the
// original comment without a new write.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}
	if in.IdempotencyKey == "" {
		return nil, models.NewValidationError("Idempotency key is required")
	}

	scope := commentIdempotencyScope(in.AuthorID, in.PostID)
	if prior, err := s.idemRepo.Get(ctx, scope, in.IdempotencyKey); err != nil {
		return nil, models.NewInternalError(err)
	} else if prior != nil {
		observability.IdempotentReplays.WithLabelValues("comment").Inc()
		original, err := s.commentRepo.GetByID(ctx, prior.ResultID)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		return original, nil
	}

	status, err := s.gate.Status(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	switch {
	case !status.Exists:
		return nil, models.NewNotFoundError("post", in.PostID)
	case status.Deleted:
		return nil, models.NewGoneError("post", in.PostID)
	case status.Locked:
		return nil, models.NewLockedError("post is locked for new comments")
	}

	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("comment", *in.ParentID)
		}
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if parent.DeletedAt.Valid {
			return nil, models.NewGoneError("comment", *in.ParentID)
		}
		if !parent.TopLevel() {
			return nil, models.NewInvalidNestingError("replies to replies are not allowed")
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("Parent comment belongs to a different post")
		}
	}

	reserved, err := s.reserveRateSlot(ctx, in.AuthorID)
	if err != nil {
		return nil, err
	}
	if !reserved {
		observability.RateLimitHits.Inc()
		return nil, models.NewRateLimitedError("commenting too fast, slow down")
	}

	comment := &models.Comment{
		PostID:   in.PostID,
		AuthorID: in.AuthorID,
		Content:  in.Content,
		ParentID: in.ParentID,
		AtUserID: in.AtUserID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		s.releaseRateSlot(ctx, in.AuthorID)
		return nil, models.NewInternalError(err)
	}

	if err := s.idemRepo.Record(ctx, scope, in.IdempotencyKey, comment.ID); err != nil {
		// The comment is committed; a lost idempotency record only costs
		// dedup on retry.
		observability.GlobalLogger.WarnContext(ctx, "failed to record idempotency key", "error", err)
	}

	return comment, nil
}

// reserveRateSlot atomically claims the author's comment slot for the
// rate-limit interval. SET NX reads the latest committed value, so two
// concurrent writers can never both pass.
func (s *CommentService) reserveRateSlot(ctx context.Context, authorID uint) (bool, error) {
	if s.rdb == nil || s.interval <= 0 {
		return true, nil
	}
	key := fmt.Sprintf("rl:comment:author:%d", authorID)
	ok, err := s.rdb.SetNX(ctx, key, 1, s.interval).Result()
	if err != nil {
		// Degraded limiter: fail open like the rest of the cache layer.
		observability.GlobalLogger.WarnContext(ctx, "rate limiter unavailable", "error", err)
		return true, nil
	}
	return ok, nil
}

// releaseRateSlot frees the reservation when the write it guarded failed.
func (s *CommentService) releaseRateSlot(ctx context.Context, authorID uint) {
	if s.rdb == nil {
		return
	}
	key := fmt.Sprintf("rl:comment:author:%d", authorID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "failed to release rate slot", "error", err)
	}
}

// ListComments returns the two-level comment tree of a post, soft-deleted
// records excluded, both levels newest-first with ID as the tie-break.
// Locked posts still list.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	status, err := s.gate.Status(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !status.Exists {
		return nil, models.NewNotFoundError("post", postID)
	}
	if status.Deleted {
		return nil, models.NewGoneError("post", postID)
	}

	comments, err := s.commentRepo.ListTreeByPost(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// DeleteComment soft-deletes a comment; a top-level delete cascades over
// its direct replies in the same transaction. Repeated deletes fail Gone.
func (s *CommentService) DeleteComment(ctx context.Context, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("comment", commentID)
	}
	if err != nil {
		return models.NewInternalError(err)
	}
	if comment.DeletedAt.Valid {
		return models.NewGoneError("comment", commentID)
	}

	deleted, replies, err := s.commentRepo.SoftDeleteCascade(ctx, commentID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !deleted {
		return models.NewGoneError("comment", commentID)
	}

	observability.GlobalLogger.LogCascade(ctx, "comment", commentID, replies)
	return nil
}
