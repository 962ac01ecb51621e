// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"parley/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumPosts        int
	CommentsPerPost int
	NumAuthors      int
	ShouldClean     bool
}

// Seeder builds domain entities and persists them to the database.
type Seeder struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewSeeder creates a new Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:   db,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll wipes seeded data, including soft-deleted rows.
func (s *Seeder) ClearAll() error {
	tables := []interface{}{
		&models.Reaction{},
		&models.Comment{},
		&models.Post{},
		&models.TempKey{},
		&models.IdempotencyRecord{},
	}
	for _, table := range tables {
		if err := s.db.Unscoped().Where("1 = 1").Delete(table).Error; err != nil {
			return fmt.Errorf("failed to clear table: %w", err)
		}
	}
	return nil
}

// Seed populates posts, a two-level comment tree, and reactions.
func (s *Seeder) Seed(opts Options) error {
	if opts.NumAuthors <= 0 {
		opts.NumAuthors = 20
	}
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	posts, err := s.createPosts(opts.NumPosts, opts.NumAuthors)
	if err != nil {
		return err
	}
	comments, err := s.createComments(posts, opts.CommentsPerPost, opts.NumAuthors)
	if err != nil {
		return err
	}
	if err := s.createReactions(posts, comments, opts.NumAuthors); err != nil {
		return err
	}

	log.Printf("seeded %d posts, %d comments", len(posts), len(comments))
	return nil
}

func (s *Seeder) randomAuthor(numAuthors int) uint {
	return uint(s.rand.Intn(numAuthors) + 1)
}

// ageSpread gives rows a realistic created_at spread over the last 30 days.
func (s *Seeder) ageSpread() time.Time {
	daysBack := s.rand.Intn(30)
	minsBack := s.rand.Intn(24 * 60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(minsBack)*time.Minute)
}

func (s *Seeder) createPosts(count, numAuthors int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		post := &models.Post{
			AuthorID:  s.randomAuthor(numAuthors),
			Title:     gofakeit.Sentence(5),
			Content:   gofakeit.Paragraph(1, 3, 6, "\n"),
			CreatedAt: s.ageSpread(),
		}
		// a few posts start out locked
		if s.rand.Intn(10) == 0 {
			lockedAt := time.Now().Add(-time.Duration(s.rand.Intn(48)) * time.Hour)
			post.LockedAt = &lockedAt
		}
		posts = append(posts, post)
	}
	if len(posts) == 0 {
		return posts, nil
	}
	if err := s.db.Create(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	return posts, nil
}

func (s *Seeder) createComments(posts []*models.Post, perPost, numAuthors int) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0, len(posts)*perPost)
	for _, post := range posts {
		var topLevel []*models.Comment
		for i := 0; i < perPost; i++ {
			comment := &models.Comment{
				PostID:    post.ID,
				AuthorID:  s.randomAuthor(numAuthors),
				Content:   gofakeit.Sentence(s.rand.Intn(12) + 3),
				CreatedAt: s.ageSpread(),
			}
			// replies attach to an existing top-level comment, never deeper
			if len(topLevel) > 0 && s.rand.Intn(3) == 0 {
				parent := topLevel[s.rand.Intn(len(topLevel))]
				comment.ParentID = &parent.ID
				if s.rand.Intn(2) == 0 {
					comment.AtUserID = &parent.AuthorID
				}
			}
			if err := s.db.Create(comment).Error; err != nil {
				return nil, fmt.Errorf("failed to create comment: %w", err)
			}
			if comment.TopLevel() {
				topLevel = append(topLevel, comment)
			}
			comments = append(comments, comment)
		}
	}
	return comments, nil
}

func (s *Seeder) createReactions(posts []*models.Post, comments []*models.Comment, numAuthors int) error {
	for _, post := range posts {
		for i := 0; i < s.rand.Intn(5); i++ {
			reactor := s.randomAuthor(numAuthors)
			kind := int16(models.ReactionLike)
			// favorites skip the author's own posts
			if reactor != post.AuthorID && s.rand.Intn(3) == 0 {
				kind = models.ReactionFavorite
			}
			reaction := &models.Reaction{
				ResourceType:   models.ResourcePost,
				ResourceID:     post.ID,
				ReactorID:      reactor,
				ReactionType:   kind,
				IdempotencyKey: uuid.NewString(),
			}
			if err := s.db.Where(&models.Reaction{
				ResourceType: reaction.ResourceType,
				ResourceID:   reaction.ResourceID,
				ReactorID:    reaction.ReactorID,
				ReactionType: reaction.ReactionType,
			}).FirstOrCreate(reaction).Error; err != nil {
				return fmt.Errorf("failed to create reaction: %w", err)
			}
		}
	}
	for _, comment := range comments {
		if s.rand.Intn(4) != 0 {
			continue
		}
		reaction := &models.Reaction{
			ResourceType:   models.ResourceComment,
			ResourceID:     comment.ID,
			ReactorID:      s.randomAuthor(numAuthors),
			ReactionType:   models.ReactionLike,
			IdempotencyKey: uuid.NewString(),
		}
		if err := s.db.Where(&models.Reaction{
			ResourceType: reaction.ResourceType,
			ResourceID:   reaction.ResourceID,
			ReactorID:    reaction.ReactorID,
			ReactionType: reaction.ReactionType,
		}).FirstOrCreate(reaction).Error; err != nil {
			return fmt.Errorf("failed to create reaction: %w", err)
		}
	}
	return nil
}
