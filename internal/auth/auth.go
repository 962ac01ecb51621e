// Package auth implements the signed-request protocol: canonical-string
// HMAC signatures with clock-skew and replay-nonce checks.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"parley/internal/models"
	"parley/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AuthContext is the per-request authentication tuple carried alongside a
// signed call. UIDHash is a caller-chosen correlation token: it binds the
// signature to the request but is never treated as a verified identity.
type AuthContext struct {
	Timestamp int64
	Nonce     string
	UIDHash   string
	Signature string
}

// Service verifies signed requests against the shared secret and keeps the
// replay-nonce cache. The cache is Redis-backed so retention stays bounded
// by TTL regardless of arrival rate.
type Service struct {
	secret []byte
	skew   time.Duration
	rdb    *redis.Client
	now    func() time.Time
}

// NewService creates an authenticator for the given shared secret and
// clock-skew window.
func NewService(secret string, skew time.Duration, rdb *redis.Client) *Service {
	return &Service{
		secret: []byte(secret),
		skew:   skew,
		rdb:    rdb,
		now:    time.Now,
	}
}

// CanonicalString renders the canonical signing string: business params
// sorted by key as k=v pairs, then ts, nonce and uid_hash appended in that
// fixed order, all joined by "&". Both ends of the protocol must produce
// this byte sequence exactly.
func CanonicalString(params map[string]string, ts int64, nonce, uidHash string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+3)
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	parts = append(parts,
		fmt.Sprintf("ts=%d", ts),
		"nonce="+nonce,
		"uid_hash="+uidHash,
	)
	return strings.Join(parts, "&")
}

// Sign computes the hex-encoded HMAC-SHA256 of the canonical string.
func Sign(secret []byte, canonical string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signed request. It rejects signature mismatches,
// timestamps outside the skew window and replayed nonces; on acceptance
// the nonce is recorded for the duration of the window.
func (s *Service) Verify(ctx context.Context, params map[string]string, ac AuthContext) error {
	canonical := CanonicalString(params, ac.Timestamp, ac.Nonce, ac.UIDHash)
	expected := Sign(s.secret, canonical)
	if !hmac.Equal([]byte(expected), []byte(ac.Signature)) {
		observability.AuthRejections.WithLabelValues("signature").Inc()
		return models.NewInvalidError("invalid signature")
	}

	now := s.now()
	reqTime := time.Unix(ac.Timestamp, 0)
	if reqTime.Before(now.Add(-s.skew)) || reqTime.After(now.Add(s.skew)) {
		observability.AuthRejections.WithLabelValues("skew").Inc()
		return models.NewInvalidError("timestamp outside allowed window")
	}

	if ac.Nonce == "" {
		observability.AuthRejections.WithLabelValues("nonce").Inc()
		return models.NewInvalidError("missing nonce")
	}

	if s.rdb != nil {
		ok, err := s.rdb.SetNX(ctx, "auth:nonce:"+ac.Nonce, 1, s.skew).Result()
		if err != nil {
			// Degraded cache: the request is signed and inside the
			// window, so let it through rather than hard-fail.
			observability.GlobalLogger.WarnContext(ctx, "replay cache unavailable", "error", err)
			return nil
		}
		if !ok {
			observability.AuthRejections.WithLabelValues("replay").Inc()
			return models.NewInvalidError("nonce already used")
		}
	}

	return nil
}

// SignRequest is the client half of the protocol: it mints ts, nonce and
// uid_hash for the given params and returns the four auth fields. Used by
// probe tooling and tests.
func SignRequest(secret string, params map[string]string) map[string]string {
	ts := time.Now().Unix()
	nonce := uuid.NewString()
	uidHash := strings.ReplaceAll(uuid.NewString(), "-", "")

	canonical := CanonicalString(params, ts, nonce, uidHash)
	return map[string]string{
		"ts":       fmt.Sprintf("%d", ts),
		"nonce":    nonce,
		"uid_hash": uidHash,
		"sig":      Sign([]byte(secret), canonical),
	}
}
