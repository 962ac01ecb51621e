package service

import (
	"context"
	"testing"

	"parley/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_Status(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("missing post", func(t *testing.T) {
		status, err := f.postSvc.Status(ctx, 9001)
		require.NoError(t, err)
		assert.False(t, status.Exists)
		assert.Equal(t, "post not found", status.Message)
	})

	t.Run("available post", func(t *testing.T) {
		post := f.createPost(t, 1)
		status, err := f.postSvc.Status(ctx, post.ID)
		require.NoError(t, err)
		assert.True(t, status.Exists)
		assert.False(t, status.Deleted)
		assert.False(t, status.Locked)
		assert.Equal(t, "post is available", status.Message)
	})

	t.Run("locked post", func(t *testing.T) {
		post := f.createPost(t, 1)
		f.lockPost(t, post)
		status, err := f.postSvc.Status(ctx, post.ID)
		require.NoError(t, err)
		assert.True(t, status.Locked)
		assert.Equal(t, "post is locked", status.Message)
	})

	t.Run("deleted wins over locked", func(t *testing.T) {
		post := f.createPost(t, 1)
		f.lockPost(t, post)
		require.NoError(t, f.postSvc.DeletePost(ctx, post.ID))

		status, err := f.postSvc.Status(ctx, post.ID)
		require.NoError(t, err)
		assert.True(t, status.Deleted)
		assert.Equal(t, "post has been deleted", status.Message)
	})
}

func TestPostService_DeletePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("missing post", func(t *testing.T) {
		err := f.postSvc.DeletePost(ctx, 9001)
		assertAppCode(t, err, models.ErrCodeNotFound)
	})

	t.Run("cascades and repeat delete is gone", func(t *testing.T) {
		post := f.createPost(t, 1)
		comment := &models.Comment{PostID: post.ID, AuthorID: 2, Content: "c"}
		require.NoError(t, f.comments.Create(ctx, comment))

		require.NoError(t, f.postSvc.DeletePost(ctx, post.ID))

		got, err := f.comments.GetByID(ctx, comment.ID)
		require.NoError(t, err)
		assert.True(t, got.DeletedAt.Valid)

		err = f.postSvc.DeletePost(ctx, post.ID)
		assertAppCode(t, err, models.ErrCodeGone)
	})
}
