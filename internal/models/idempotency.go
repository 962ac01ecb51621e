package models

import (
	"time"
)

// IdempotencyRecord pins a caller-supplied idempotency key to the result it
// produced so retried writes return the original outcome instead of a
// duplicate. Scope is part of the identity: comment keys are scoped per
// (author, post), reaction keys per (reactor, resource, kind).
type IdempotencyRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Scope     string    `gorm:"size:128;not null;uniqueIndex:idx_idempotency_scope_key" json:"scope"`
	Key       string    `gorm:"size:64;not null;uniqueIndex:idx_idempotency_scope_key" json:"key"`
	ResultID  uint      `gorm:"not null" json:"result_id"`
	CreatedAt time.Time `json:"created_at"`
}
