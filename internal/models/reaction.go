package models

import (
	"time"

	"gorm.io/gorm"
)

// Resource kinds a reaction can target.
const (
	ResourcePost    int16 = 1
	ResourceComment int16 = 2
)

// Reaction kinds.
const (
	ReactionLike     int16 = 1
	ReactionFavorite int16 = 2
)

// Reaction records a like or favorite against a post or comment. The
// composite (resource_type, resource_id, reactor_id, reaction_type) is
// unique; repeated writes are first-write-wins.
type Reaction struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ResourceType   int16          `gorm:"not null;uniqueIndex:idx_reaction_identity" json:"resource_type"`
	ResourceID     uint           `gorm:"not null;uniqueIndex:idx_reaction_identity" json:"resource_id"`
	ReactorID      uint           `gorm:"not null;uniqueIndex:idx_reaction_identity" json:"reactor_id"`
	ReactionType   int16          `gorm:"not null;uniqueIndex:idx_reaction_identity" json:"reaction_type"`
	IdempotencyKey string         `gorm:"size:64;index" json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
