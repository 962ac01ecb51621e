package service

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"parley/internal/models"
	"parley/internal/observability"
	"parley/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// tempKeyHexLen is the length of the issued key value in hex chars.
	tempKeyHexLen = 128
	// wsKeyHexLen is the length of a per-conversation transport key.
	wsKeyHexLen = 64
	// sweepGrace is how long expired keys linger before the sweeper
	// removes them.
	sweepGrace = time.Minute
	// lockStripes is the size of the striped mutex table serializing key
	// issuance per (subject, key type).
	lockStripes = 64
)

// KeyVaultService issues and consumes ephemeral secret keys: single-use
// temp keys persisted by hash, and per-conversation ws keys kept in Redis
// with a TTL.
type KeyVaultService struct {
	keyRepo repository.TempKeyRepository
	rdb     *redis.Client
	tempTTL time.Duration
	wsTTL   time.Duration
	now     func() time.Time

	locks [lockStripes]sync.Mutex

	// In-memory ws-key fallback when Redis is unavailable.
	wsMu   sync.Mutex
	wsKeys map[uint]wsEntry
}

type wsEntry struct {
	value     string
	expiresAt time.Time
}

// NewKeyVaultService creates a new KeyVaultService
func NewKeyVaultService(keyRepo repository.TempKeyRepository, rdb *redis.Client, tempTTL, wsTTL time.Duration) *KeyVaultService {
	return &KeyVaultService{
		keyRepo: keyRepo,
		rdb:     rdb,
		tempTTL: tempTTL,
		wsTTL:   wsTTL,
		now:     time.Now,
		wsKeys:  make(map[uint]wsEntry),
	}
}

func validTempKeyType(keyType string) bool {
	switch keyType {
	case models.TempKeyFileDownload, models.TempKeyFileUpload, models.TempKeyAPIAccess, models.TempKeyDataExport:
		return true
	}
	return false
}

// lockFor returns the stripe serializing issuance for one
// (subject, keyType) pair; unrelated subjects stay non-blocking.
func (s *KeyVaultService) lockFor(subject uint, keyType string) *sync.Mutex {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d:%s", subject, keyType)
	return &s.locks[h.Sum32()%lockStripes]
}

// GenerateTempKey mints a single-use key for the subject. While an
// unexpired, unconsumed key of the same type exists the call fails with
// Conflict; issuance per (subject, keyType) is serialized so concurrent
// callers cannot both succeed.
func (s *KeyVaultService) GenerateTempKey(ctx context.Context, subject uint, keyType, metadata string) (*models.IssuedTempKey, error) {
	if !validTempKeyType(keyType) {
		return nil, models.NewValidationError("Unknown key type")
	}

	mu := s.lockFor(subject, keyType)
	mu.Lock()
	defer mu.Unlock()

	now := s.now()
	existing, err := s.keyRepo.FindLive(ctx, subject, keyType, now)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if existing != nil {
		return nil, models.NewConflictError("an active key of this type already exists, wait for it to expire or be used")
	}

	raw := fmt.Sprintf("%d|%s|%d|%s", subject, keyType, now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", ""))
	sum := sha512.Sum512([]byte(raw))
	value := hex.EncodeToString(sum[:])[:tempKeyHexLen]

	expiresAt := now.Add(s.tempTTL)
	key := &models.TempKey{
		Subject:   subject,
		KeyType:   keyType,
		KeyHash:   hashKey(value),
		ExpiresAt: expiresAt,
		Metadata:  metadata,
	}
	if err := s.keyRepo.Create(ctx, key); err != nil {
		return nil, models.NewInternalError(err)
	}

	observability.TempKeysIssued.WithLabelValues(keyType).Inc()
	return &models.IssuedTempKey{
		Value:      value,
		Obfuscated: ObfuscateKey(value),
		ExpiresAt:  expiresAt,
	}, nil
}

// ValidateTempKey consumes a key: it succeeds exactly once, for the
// subject the key was issued to, before expiry. Every other call fails.
func (s *KeyVaultService) ValidateTempKey(ctx context.Context, value string, subject uint) (*models.TempKey, error) {
	key, err := s.keyRepo.FindByHash(ctx, hashKey(value))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if key == nil {
		return nil, models.NewInvalidError("unknown key")
	}
	if s.now().After(key.ExpiresAt) {
		return nil, models.NewInvalidError("key has expired")
	}
	if key.Subject != subject {
		return nil, models.NewForbiddenError("key belongs to a different subject")
	}

	// The conditional update is the consume: first caller wins.
	consumed, err := s.keyRepo.Consume(ctx, key.ID, s.now())
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !consumed {
		return nil, models.NewInvalidError("key already used")
	}

	observability.TempKeysConsumed.Inc()
	return key, nil
}

// GenerateWsKey returns the conversation's transport key, reusing the
// existing value until it expires. SETNX makes concurrent callers converge
// on one value.
func (s *KeyVaultService) GenerateWsKey(ctx context.Context, conversationID uint) (string, error) {
	raw := fmt.Sprintf("ws|%d|%d|%s", conversationID, s.now().UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", ""))
	sum := sha512.Sum512([]byte(raw))
	candidate := hex.EncodeToString(sum[:])[:wsKeyHexLen]

	if s.rdb == nil {
		return s.wsKeyFallback(conversationID, candidate), nil
	}

	redisKey := fmt.Sprintf("wskey:conv:%d", conversationID)
	if err := s.rdb.SetNX(ctx, redisKey, candidate, s.wsTTL).Err(); err != nil {
		return s.wsKeyFallback(conversationID, candidate), nil
	}
	value, err := s.rdb.Get(ctx, redisKey).Result()
	if err != nil {
		return s.wsKeyFallback(conversationID, candidate), nil
	}
	return value, nil
}

// ValidateWsKey reports whether value is the live transport key for the
// conversation.
func (s *KeyVaultService) ValidateWsKey(ctx context.Context, conversationID uint, value string) bool {
	if value == "" {
		return false
	}
	if s.rdb != nil {
		redisKey := fmt.Sprintf("wskey:conv:%d", conversationID)
		stored, err := s.rdb.Get(ctx, redisKey).Result()
		if err == nil {
			return stored == value
		}
	}

	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	entry, ok := s.wsKeys[conversationID]
	return ok && entry.value == value && s.now().Before(entry.expiresAt)
}

func (s *KeyVaultService) wsKeyFallback(conversationID uint, candidate string) string {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	now := s.now()
	if entry, ok := s.wsKeys[conversationID]; ok && now.Before(entry.expiresAt) {
		return entry.value
	}
	s.wsKeys[conversationID] = wsEntry{value: candidate, expiresAt: now.Add(s.wsTTL)}
	return candidate
}

// SweepExpired hard-deletes temp keys past expiry plus a grace window.
// Called periodically from the server's background loop.
func (s *KeyVaultService) SweepExpired(ctx context.Context) (int64, error) {
	removed, err := s.keyRepo.DeleteExpired(ctx, s.now().Add(-sweepGrace))
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return removed, nil
}

// hashKey derives the storable lookup hash for a key value. Only the hash
// ever reaches the database.
func hashKey(value string) string {
	sum := sha512.Sum512([]byte(value))
	return hex.EncodeToString(sum[:])
}

// ObfuscateKey maps a hex key value onto circled glyphs for display. It is
// a cosmetic, reversible transform, not a security boundary.
func ObfuscateKey(value string) string {
	var b strings.Builder
	for _, c := range value {
		switch {
		case c >= '0' && c <= '9':
			b.WriteRune(rune(0x2460 + (c - '0')))
		case c >= 'a' && c <= 'f':
			b.WriteRune(rune(0x24B6 + (c - 'a')))
		default:
			b.WriteRune('�')
		}
	}
	return b.String()
}

// DeobfuscateKey reverses ObfuscateKey.
func DeobfuscateKey(display string) string {
	var b strings.Builder
	for _, c := range display {
		switch {
		case c >= 0x2460 && c <= 0x2469:
			b.WriteRune('0' + (c - 0x2460))
		case c >= 0x24B6 && c <= 0x24BB:
			b.WriteRune('a' + (c - 0x24B6))
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}
