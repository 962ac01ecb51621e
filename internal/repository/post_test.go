package repository

import (
	"context"
	"testing"

	"parley/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_GetByID_IncludesDeleted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{AuthorID: 1, Title: "t", Content: "c"}
	require.NoError(t, repo.Create(ctx, post))

	deleted, _, err := repo.SoftDeleteCascade(ctx, post.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, got.DeletedAt.Valid)
}

func TestPostRepository_SoftDeleteCascade(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	comments := NewCommentRepository(db)
	reactions := NewReactionRepository(db)
	ctx := context.Background()

	post := &models.Post{AuthorID: 1, Title: "t", Content: "c"}
	require.NoError(t, repo.Create(ctx, post))
	other := &models.Post{AuthorID: 1, Title: "other", Content: "c"}
	require.NoError(t, repo.Create(ctx, other))

	top := &models.Comment{PostID: post.ID, AuthorID: 2, Content: "top"}
	require.NoError(t, comments.Create(ctx, top))
	reply := &models.Comment{PostID: post.ID, AuthorID: 3, Content: "reply", ParentID: &top.ID}
	require.NoError(t, comments.Create(ctx, reply))
	bystander := &models.Comment{PostID: other.ID, AuthorID: 2, Content: "elsewhere"}
	require.NoError(t, comments.Create(ctx, bystander))

	onPost := &models.Reaction{ResourceType: models.ResourcePost, ResourceID: post.ID, ReactorID: 9, ReactionType: models.ReactionLike}
	onComment := &models.Reaction{ResourceType: models.ResourceComment, ResourceID: reply.ID, ReactorID: 9, ReactionType: models.ReactionLike}
	onOther := &models.Reaction{ResourceType: models.ResourcePost, ResourceID: other.ID, ReactorID: 9, ReactionType: models.ReactionLike}
	for _, reaction := range []*models.Reaction{onPost, onComment, onOther} {
		created, err := reactions.FirstOrCreate(ctx, reaction)
		require.NoError(t, err)
		require.True(t, created)
	}

	deleted, cascaded, err := repo.SoftDeleteCascade(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, int64(2), cascaded)

	// everything under the post is soft-deleted
	var liveComments int64
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&liveComments).Error)
	assert.Zero(t, liveComments)

	var liveReactions int64
	require.NoError(t, db.Model(&models.Reaction{}).Count(&liveReactions).Error)
	assert.Equal(t, int64(1), liveReactions, "only the reaction on the other post survives")

	// the sibling post is untouched
	var otherComments int64
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", other.ID).Count(&otherComments).Error)
	assert.Equal(t, int64(1), otherComments)
}

func TestPostRepository_SoftDeleteCascade_AlreadyDeleted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{AuthorID: 1, Title: "t", Content: "c"}
	require.NoError(t, repo.Create(ctx, post))

	deleted, _, err := repo.SoftDeleteCascade(ctx, post.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, _, err = repo.SoftDeleteCascade(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
