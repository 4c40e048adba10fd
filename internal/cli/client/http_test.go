package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_Post_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "standup", body["query"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"total_results": 2}}`))
	}))
	defer srv.Close()

	api := NewAPIClientWithConfig(srv.URL)

	resp, err := api.Post("/search", map[string]string{"query": "standup"})
	require.NoError(t, err)

	var data map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, float64(2), data["total_results"])
}

func TestAPIClient_Get_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "content not found"}`))
	}))
	defer srv.Close()

	api := NewAPIClientWithConfig(srv.URL)

	_, err := api.Get("/content/missing")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "content not found", apiErr.Message)
}

func TestAPIClient_Get_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	api := NewAPIClientWithConfig(srv.URL)

	_, err := api.Get("/health")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream unavailable", apiErr.Message)
}

func TestAPIClient_Delete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DELETE", r.Method)
		assert.Equal(t, "c-1", r.URL.Query().Get("content_id"))
		w.Write([]byte(`{"data": {"success": true, "deleted_count": 1}}`))
	}))
	defer srv.Close()

	api := NewAPIClientWithConfig(srv.URL)

	resp, err := api.Delete("/content?content_id=c-1")
	require.NoError(t, err)
	assert.NotNil(t, resp.Data)
}

func TestNewAPIClientWithCmd_EnvFallback(t *testing.T) {
	t.Setenv(envAPIURL, "http://example.test:9999")

	api := NewAPIClientWithCmd(nil)
	assert.Equal(t, "http://example.test:9999", api.baseURL)
}

func TestNewAPIClientWithCmd_Default(t *testing.T) {
	t.Setenv(envAPIURL, "")

	api := NewAPIClientWithCmd(nil)
	assert.Equal(t, defaultAPIURL, api.baseURL)
}

func TestParseKeyValues(t *testing.T) {
	m, err := parseKeyValues([]string{"channel=engineering", "sender=alice"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"channel": "engineering", "sender": "alice"}, m)
}

func TestParseKeyValues_Invalid(t *testing.T) {
	_, err := parseKeyValues([]string{"not-a-pair"})
	assert.Error(t, err)
}

func TestParseKeyValues_Empty(t *testing.T) {
	m, err := parseKeyValues(nil)
	require.NoError(t, err)
	assert.Nil(t, m)
}
