package service

import (
	"context"
	"errors"
	"fmt"

	"parley/internal/models"
	"parley/internal/observability"
	"parley/internal/repository"

	"gorm.io/gorm"
)

// ReactionService owns the like/favorite ledger against posts and
// comments.
type ReactionService struct {
	reactionRepo repository.ReactionRepository
	commentRepo  repository.CommentRepository
	postRepo     repository.PostRepository
	idemRepo     repository.IdempotencyRepository
}

// AddReactionInput carries a reaction write request.
type AddReactionInput struct {
	ResourceType   int16
	ResourceID     uint
	ReactorID      uint
	ReactionType   int16
	IdempotencyKey string
}

// NewReactionService creates a new ReactionService
func NewReactionService(
	reactionRepo repository.ReactionRepository,
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	idemRepo repository.IdempotencyRepository,
) *ReactionService {
	return &ReactionService{
		reactionRepo: reactionRepo,
		commentRepo:  commentRepo,
		postRepo:     postRepo,
		idemRepo:     idemRepo,
	}
}

// reactionIdempotencyScope scopes reaction idempotency keys per
// (reactor, resource, kind).
func reactionIdempotencyScope(in AddReactionInput) string {
	return fmt.Sprintf("reaction:%d:%d:%d:%d", in.ReactorID, in.ResourceType, in.ResourceID, in.ReactionType)
}

// AddReaction registers a like or favorite. Duplicate (resource, reactor,
// kind) records are first-write-wins no-ops; replayed idempotency keys
// return the prior record.
func (s *ReactionService) AddReaction(ctx context.Context, in AddReactionInput) (*models.Reaction, error) {
	if in.ResourceType != models.ResourcePost && in.ResourceType != models.ResourceComment {
		return nil, models.NewValidationError("Unknown resource type")
	}
	if in.ReactionType != models.ReactionLike && in.ReactionType != models.ReactionFavorite {
		return nil, models.NewValidationError("Unknown reaction type")
	}
	if in.IdempotencyKey == "" {
		return nil, models.NewValidationError("Idempotency key is required")
	}

	scope := reactionIdempotencyScope(in)
	if prior, err := s.idemRepo.Get(ctx, scope, in.IdempotencyKey); err != nil {
		return nil, models.NewInternalError(err)
	} else if prior != nil {
		observability.IdempotentReplays.WithLabelValues("reaction").Inc()
		original, err := s.reactionRepo.GetByID(ctx, prior.ResultID)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		return original, nil
	}

	authorID, err := s.resolveResourceAuthor(ctx, in.ResourceType, in.ResourceID)
	if err != nil {
		return nil, err
	}

	if in.ReactionType == models.ReactionFavorite && in.ReactorID == authorID {
		return nil, models.NewForbiddenError("cannot favorite own content")
	}

	reaction := &models.Reaction{
		ResourceType:   in.ResourceType,
		ResourceID:     in.ResourceID,
		ReactorID:      in.ReactorID,
		ReactionType:   in.ReactionType,
		IdempotencyKey: in.IdempotencyKey,
	}
	if _, err := s.reactionRepo.FirstOrCreate(ctx, reaction); err != nil {
		return nil, models.NewInternalError(err)
	}

	if err := s.idemRepo.Record(ctx, scope, in.IdempotencyKey, reaction.ID); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "failed to record idempotency key", "error", err)
	}

	return reaction, nil
}

// resolveResourceAuthor checks the target resource exists and is live and
// returns its author. Locked posts reject reactions on the post itself;
// comments under a locked post stay reactable.
func (s *ReactionService) resolveResourceAuthor(ctx context.Context, resourceType int16, resourceID uint) (uint, error) {
	switch resourceType {
	case models.ResourcePost:
		post, err := s.postRepo.GetByID(ctx, resourceID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, models.NewNotFoundError("post", resourceID)
		}
		if err != nil {
			return 0, models.NewInternalError(err)
		}
		if post.DeletedAt.Valid {
			return 0, models.NewGoneError("post", resourceID)
		}
		if post.Locked() {
			return 0, models.NewLockedError("post is locked for reactions")
		}
		return post.AuthorID, nil
	default:
		comment, err := s.commentRepo.GetByID(ctx, resourceID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, models.NewNotFoundError("comment", resourceID)
		}
		if err != nil {
			return 0, models.NewInternalError(err)
		}
		if comment.DeletedAt.Valid {
			return 0, models.NewGoneError("comment", resourceID)
		}
		return comment.AuthorID, nil
	}
}
