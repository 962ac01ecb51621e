package service

import (
	"testing"
	"time"

	"parley/internal/models"
	"parley/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixture wires the full service stack over in-memory sqlite and miniredis.
type fixture struct {
	db        *gorm.DB
	redis     *redis.Client
	mini      *miniredis.Miniredis
	posts     repository.PostRepository
	comments  repository.CommentRepository
	reactions repository.ReactionRepository
	keys      repository.TempKeyRepository

	postSvc     *PostService
	commentSvc  *CommentService
	reactionSvc *ReactionService
	vault       *KeyVaultService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection so concurrent goroutines share the same :memory:
	// database instead of getting fresh empty ones from the pool.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Post{},
		&models.Comment{},
		&models.Reaction{},
		&models.TempKey{},
		&models.IdempotencyRecord{},
	))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	f := &fixture{
		db:        db,
		redis:     rdb,
		mini:      mr,
		posts:     repository.NewPostRepository(db),
		comments:  repository.NewCommentRepository(db),
		reactions: repository.NewReactionRepository(db),
		keys:      repository.NewTempKeyRepository(db),
	}
	idem := repository.NewIdempotencyRepository(db)

	f.postSvc = NewPostService(f.posts)
	f.commentSvc = NewCommentService(f.comments, idem, f.postSvc, rdb, 3*time.Second)
	f.reactionSvc = NewReactionService(f.reactions, f.comments, f.posts, idem)
	f.vault = NewKeyVaultService(f.keys, rdb, 3*time.Minute, 10*time.Minute)
	return f
}

func (f *fixture) createPost(t *testing.T, authorID uint) *models.Post {
	t.Helper()
	post := &models.Post{AuthorID: authorID, Title: "post", Content: "body"}
	require.NoError(t, f.db.Create(post).Error)
	return post
}

func (f *fixture) lockPost(t *testing.T, post *models.Post) {
	t.Helper()
	lockedAt := time.Now()
	require.NoError(t, f.db.Model(post).Update("locked_at", &lockedAt).Error)
	post.LockedAt = &lockedAt
}

// clearRateLimit expires every live rate slot so sequential test writes do
// not trip the limiter.
func (f *fixture) clearRateLimit() {
	f.mini.FastForward(5 * time.Second)
}

func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}
