// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a shareable post that comments and reactions attach to. Posts are
// created by an upstream service; this service only reads their state and
// soft-deletes them together with their comment tree.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Title    string `json:"title"`
	Content  string `gorm:"type:text" json:"content"`
	// LockedAt is set when the post is closed for new comments and
	// reactions. Listing stays open on locked posts.
	LockedAt  *time.Time     `json:"locked_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Locked reports whether the post is closed for writes.
func (p *Post) Locked() bool {
	return p.LockedAt != nil
}

// PostStatus is the gate verdict consulted before any comment or reaction
// write. Deleted takes message precedence over locked.
type PostStatus struct {
	Exists  bool   `json:"exists"`
	Deleted bool   `json:"deleted"`
	Locked  bool   `json:"locked"`
	Message string `json:"message"`
}
