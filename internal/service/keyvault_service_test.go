package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"parley/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyVaultService_GenerateTempKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.vault.GenerateTempKey(ctx, 1, models.TempKeyFileDownload, "")
	require.NoError(t, err)
	assert.Len(t, issued.Value, 128)
	assert.Regexp(t, "^[0-9a-f]+$", issued.Value)
	assert.NotEmpty(t, issued.Obfuscated)
	assert.True(t, issued.ExpiresAt.After(time.Now()))

	t.Run("second key of same type conflicts", func(t *testing.T) {
		_, err := f.vault.GenerateTempKey(ctx, 1, models.TempKeyFileDownload, "")
		assertAppCode(t, err, models.ErrCodeConflict)
	})

	t.Run("other key types are independent", func(t *testing.T) {
		_, err := f.vault.GenerateTempKey(ctx, 1, models.TempKeyAPIAccess, "")
		assert.NoError(t, err)
	})

	t.Run("other subjects are independent", func(t *testing.T) {
		_, err := f.vault.GenerateTempKey(ctx, 2, models.TempKeyFileDownload, "")
		assert.NoError(t, err)
	})

	t.Run("unknown key type", func(t *testing.T) {
		_, err := f.vault.GenerateTempKey(ctx, 1, "master_key", "")
		assertAppCode(t, err, models.ErrCodeValidation)
	})
}

func TestKeyVaultService_GenerateTempKey_ConcurrentCallers(t *testing.T) {
	f := newFixture(t)

	const callers = 8
	start := make(chan struct{})
	results := make(chan error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.vault.GenerateTempKey(context.Background(), 1, models.TempKeyFileDownload, "")
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var issued, conflicted int
	for err := range results {
		if err == nil {
			issued++
			continue
		}
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.ErrCodeConflict, appErr.Code)
		conflicted++
	}
	assert.Equal(t, 1, issued, "exactly one caller may mint the key")
	assert.Equal(t, callers-1, conflicted)

	var count int64
	require.NoError(t, f.db.Model(&models.TempKey{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestKeyVaultService_ValidateTempKey_SingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.vault.GenerateTempKey(ctx, 1, models.TempKeyFileDownload, "report.pdf")
	require.NoError(t, err)

	key, err := f.vault.ValidateTempKey(ctx, issued.Value, 1)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", key.Metadata)

	t.Run("second use fails", func(t *testing.T) {
		_, err := f.vault.ValidateTempKey(ctx, issued.Value, 1)
		assertAppCode(t, err, models.ErrCodeInvalid)
	})

	t.Run("consumption frees the slot for a new key", func(t *testing.T) {
		_, err := f.vault.GenerateTempKey(ctx, 1, models.TempKeyFileDownload, "")
		assert.NoError(t, err)
	})
}

func TestKeyVaultService_ValidateTempKey_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("unknown key", func(t *testing.T) {
		_, err := f.vault.ValidateTempKey(ctx, "deadbeef", 1)
		assertAppCode(t, err, models.ErrCodeInvalid)
	})

	t.Run("wrong subject", func(t *testing.T) {
		issued, err := f.vault.GenerateTempKey(ctx, 1, models.TempKeyFileUpload, "")
		require.NoError(t, err)

		_, err = f.vault.ValidateTempKey(ctx, issued.Value, 2)
		assertAppCode(t, err, models.ErrCodeForbidden)

		// the failed attempt did not consume the key
		_, err = f.vault.ValidateTempKey(ctx, issued.Value, 1)
		assert.NoError(t, err)
	})

	t.Run("expired key", func(t *testing.T) {
		issued, err := f.vault.GenerateTempKey(ctx, 3, models.TempKeyDataExport, "")
		require.NoError(t, err)

		f.vault.now = func() time.Time { return time.Now().Add(4 * time.Minute) }
		defer func() { f.vault.now = time.Now }()

		_, err = f.vault.ValidateTempKey(ctx, issued.Value, 3)
		assertAppCode(t, err, models.ErrCodeInvalid)
	})
}

func TestKeyVaultService_WsKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key, err := f.vault.GenerateWsKey(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, key, 64)

	t.Run("repeat generation reuses the live key", func(t *testing.T) {
		again, err := f.vault.GenerateWsKey(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, key, again)
	})

	t.Run("validates only the live key for the conversation", func(t *testing.T) {
		assert.True(t, f.vault.ValidateWsKey(ctx, 42, key))
		assert.False(t, f.vault.ValidateWsKey(ctx, 42, "bogus"))
		assert.False(t, f.vault.ValidateWsKey(ctx, 43, key))
		assert.False(t, f.vault.ValidateWsKey(ctx, 42, ""))
	})

	t.Run("expired key stops validating", func(t *testing.T) {
		f.mini.FastForward(11 * time.Minute)
		assert.False(t, f.vault.ValidateWsKey(ctx, 42, key))
	})

	t.Run("generation after expiry mints a fresh key", func(t *testing.T) {
		fresh, err := f.vault.GenerateWsKey(ctx, 42)
		require.NoError(t, err)
		assert.Len(t, fresh, 64)
		assert.NotEqual(t, key, fresh)
		assert.True(t, f.vault.ValidateWsKey(ctx, 42, fresh))
	})
}

func TestKeyVaultService_WsKeys_RedisFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mini.Close()

	key, err := f.vault.GenerateWsKey(ctx, 7)
	require.NoError(t, err)

	again, err := f.vault.GenerateWsKey(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, key, again, "fallback store keeps one key per conversation")

	assert.True(t, f.vault.ValidateWsKey(ctx, 7, key))
	assert.False(t, f.vault.ValidateWsKey(ctx, 7, "bogus"))
}

func TestKeyVaultService_SweepExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.vault.GenerateTempKey(ctx, 1, models.TempKeyFileDownload, "")
	require.NoError(t, err)

	// nothing is past expiry plus the grace window yet
	removed, err := f.vault.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	f.vault.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	defer func() { f.vault.now = time.Now }()

	removed, err = f.vault.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestObfuscateKey_RoundTrip(t *testing.T) {
	value := "0123456789abcdef"
	display := ObfuscateKey(value)

	// no raw hex survives in the display form
	assert.NotContains(t, display, "a")
	assert.NotContains(t, display, "0")
	assert.Equal(t, value, DeobfuscateKey(display))
}
