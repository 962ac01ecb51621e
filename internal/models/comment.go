package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a comment on a post. ParentID is nil for top-level comments
// and references a top-level comment for replies; nesting never goes
// deeper than two levels. AtUserID optionally mentions another user.
type Comment struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PostID   uint   `gorm:"not null;index" json:"post_id"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Content  string `gorm:"type:text;not null" json:"content"`
	ParentID *uint  `gorm:"index" json:"parent_id,omitempty"`
	AtUserID *uint  `json:"at_user_id,omitempty"`
	// Replies is populated at query time for top-level comments.
	Replies   []*Comment     `gorm:"-" json:"replies,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TopLevel reports whether the comment attaches directly to its post.
func (c *Comment) TopLevel() bool {
	return c.ParentID == nil
}
