package repository

import (
	"context"
	"testing"
	"time"

	"parley/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTempKey(subject uint, hash string, expiresAt time.Time) *models.TempKey {
	return &models.TempKey{
		Subject:   subject,
		KeyType:   models.TempKeyFileDownload,
		KeyHash:   hash,
		ExpiresAt: expiresAt,
	}
}

func TestTempKeyRepository_FindByHash(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTempKeyRepository(db)
	ctx := context.Background()

	key := newTempKey(1, "abc123", time.Now().Add(time.Minute))
	require.NoError(t, repo.Create(ctx, key))

	got, err := repo.FindByHash(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, key.ID, got.ID)

	missing, err := repo.FindByHash(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTempKeyRepository_FindLive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTempKeyRepository(db)
	ctx := context.Background()
	now := time.Now()

	expired := newTempKey(1, "expired", now.Add(-time.Minute))
	require.NoError(t, repo.Create(ctx, expired))

	got, err := repo.FindLive(ctx, 1, models.TempKeyFileDownload, now)
	require.NoError(t, err)
	assert.Nil(t, got, "expired keys are not live")

	live := newTempKey(1, "live", now.Add(time.Minute))
	require.NoError(t, repo.Create(ctx, live))

	got, err = repo.FindLive(ctx, 1, models.TempKeyFileDownload, now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, live.ID, got.ID)

	// a different key type has no live key
	got, err = repo.FindLive(ctx, 1, models.TempKeyAPIAccess, now)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTempKeyRepository_Consume_SingleUse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTempKeyRepository(db)
	ctx := context.Background()
	now := time.Now()

	key := newTempKey(1, "once", now.Add(time.Minute))
	require.NoError(t, repo.Create(ctx, key))

	ok, err := repo.Consume(ctx, key.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	// second consume finds no unconsumed row
	ok, err = repo.Consume(ctx, key.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByHash(ctx, "once")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Consumed)
	require.NotNil(t, got.ConsumedAt)
}

func TestTempKeyRepository_DeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTempKeyRepository(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, newTempKey(1, "old", now.Add(-time.Hour))))
	require.NoError(t, repo.Create(ctx, newTempKey(2, "fresh", now.Add(time.Hour))))

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	got, err := repo.FindByHash(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, got, "expired keys are hard-deleted")

	got, err = repo.FindByHash(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
