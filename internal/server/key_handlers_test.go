package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"parley/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempKeyLifecycle(t *testing.T) {
	_, app := newTestServer(t)

	genParams := map[string]string{"subject": "1", "key_type": models.TempKeyFileDownload}
	genBody := map[string]interface{}{"subject": 1, "key_type": models.TempKeyFileDownload}

	req := signedRequest(t, http.MethodPost, "/api/keys/temp/generate", genParams, genBody)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope, data := decodeEnvelope(t, resp)
	require.Equal(t, 0, envelope.Code)
	value, _ := data["key_value"].(string)
	require.Len(t, value, 128)
	assert.NotEmpty(t, data["obfuscated"])

	t.Run("second generate conflicts", func(t *testing.T) {
		req := signedRequest(t, http.MethodPost, "/api/keys/temp/generate", genParams, genBody)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	valParams := map[string]string{"key_value": value, "subject": "1"}
	valBody := map[string]interface{}{"key_value": value, "subject": 1}

	t.Run("validate consumes the key", func(t *testing.T) {
		req := signedRequest(t, http.MethodPost, "/api/keys/temp/validate", valParams, valBody)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		envelope, data := decodeEnvelope(t, resp)
		assert.Equal(t, 0, envelope.Code)
		assert.Equal(t, true, data["valid"])
		assert.Equal(t, models.TempKeyFileDownload, data["key_type"])
	})

	t.Run("second validate fails", func(t *testing.T) {
		req := signedRequest(t, http.MethodPost, "/api/keys/temp/validate", valParams, valBody)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		envelope, _ := decodeEnvelope(t, resp)
		assert.Equal(t, "key already used", envelope.Message)
	})
}

func TestGenerateWsKey(t *testing.T) {
	_, app := newTestServer(t)

	params := map[string]string{"conversation_id": "5"}
	body := map[string]interface{}{"conversation_id": 5}

	req := signedRequest(t, http.MethodPost, "/api/keys/ws/generate", params, body)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope, data := decodeEnvelope(t, resp)
	assert.Equal(t, 0, envelope.Code)
	key, _ := data["key"].(string)
	assert.Len(t, key, 64)

	// repeat calls reuse the conversation's live key
	req = signedRequest(t, http.MethodPost, "/api/keys/ws/generate", params, body)
	resp, err = app.Test(req)
	require.NoError(t, err)
	_, data = decodeEnvelope(t, resp)
	assert.Equal(t, key, data["key"])
}

func TestEventStream_RequiresUpgrade(t *testing.T) {
	_, app := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ws/events/1?key=whatever", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestGenerateTempKey_UnknownType(t *testing.T) {
	_, app := newTestServer(t)

	params := map[string]string{"subject": "1", "key_type": "master"}
	body := map[string]interface{}{"subject": 1, "key_type": "master"}

	req := signedRequest(t, http.MethodPost, "/api/keys/temp/generate", params, body)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	envelope, _ := decodeEnvelope(t, resp)
	assert.Equal(t, 422, envelope.Code)
}
