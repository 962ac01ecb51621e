package models

import (
	"time"
)

// Temp key types issued by the vault.
const (
	TempKeyFileDownload = "file_download"
	TempKeyFileUpload   = "file_upload"
	TempKeyAPIAccess    = "api_access"
	TempKeyDataExport   = "data_export"
)

// TempKey is a single-use, short-lived authorization token. Only the
// SHA-512 hash of the key value is persisted; the value itself is returned
// to the caller once at issuance. At most one unexpired, unconsumed key
// may exist per (subject, key type).
type TempKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Subject    uint       `gorm:"not null;index:idx_temp_key_subject" json:"subject"`
	KeyType    string     `gorm:"size:32;not null;index:idx_temp_key_subject" json:"key_type"`
	KeyHash    string     `gorm:"size:128;uniqueIndex;not null" json:"-"`
	Consumed   bool       `gorm:"not null;default:false" json:"consumed"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	ExpiresAt  time.Time  `gorm:"not null;index" json:"expires_at"`
	Metadata   string     `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Live reports whether the key can still be consumed at the given instant.
func (k *TempKey) Live(now time.Time) bool {
	return !k.Consumed && now.Before(k.ExpiresAt)
}

// IssuedTempKey is the issuance result handed back to the caller: the raw
// value, its obfuscated display form and the expiry.
type IssuedTempKey struct {
	Value      string    `json:"key_value"`
	Obfuscated string    `json:"obfuscated"`
	ExpiresAt  time.Time `json:"expires_at"`
}
