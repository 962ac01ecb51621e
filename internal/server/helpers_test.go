package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"parley/internal/auth"
	"parley/internal/config"
	"parley/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

func testConfig() *config.Config {
	return &config.Config{
		Port:                   "0",
		AuthSecret:             testSecret,
		AuthSkewSeconds:        300,
		CommentIntervalSeconds: 0, // rate limiting exercised in service tests
		TempKeyTTLMinutes:      3,
		WsKeyTTLMinutes:        10,
	}
}

// newTestServer wires the handler stack over in-memory sqlite and miniredis
// and returns a routed Fiber app.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
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

	srv := newServerWith(testConfig(), db, rdb)
	t.Cleanup(srv.shutdownFn)

	app := fiber.New()
	srv.SetupRoutes(app)
	return srv, app
}

// signedRequest builds a request whose query string carries a valid
// signature over params.
func signedRequest(t *testing.T, method, path string, params map[string]string, body interface{}) *http.Request {
	t.Helper()

	signed := auth.SignRequest(testSecret, params)
	query := url.Values{}
	for _, field := range []string{"ts", "nonce", "uid_hash", "sig"} {
		query.Set(field, signed[field])
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path+"?"+query.Encode(), reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// decodeEnvelope parses a response body into the envelope plus a decoded
// data payload.
func decodeEnvelope(t *testing.T, resp *http.Response) (models.Envelope, map[string]interface{}) {
	t.Helper()

	var envelope models.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	data, _ := envelope.Data.(map[string]interface{})
	return envelope, data
}

func (s *Server) seedPost(t *testing.T, authorID uint) *models.Post {
	t.Helper()
	post := &models.Post{AuthorID: authorID, Title: "post", Content: "body"}
	require.NoError(t, s.db.Create(post).Error)
	return post
}
