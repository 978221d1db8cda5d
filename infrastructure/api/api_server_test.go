package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stylo-app/stylo"
	"github.com/stylo-app/stylo/infrastructure/api"
	"github.com/stylo-app/stylo/infrastructure/api/middleware"
	"github.com/stylo-app/stylo/infrastructure/provider"
	"github.com/stylo-app/stylo/internal/config"
	"github.com/stylo-app/stylo/internal/log"
)

const (
	testSecret = "test-secret"
	testOwner  = "owner-1"
)

// hashEmbedder is a deterministic stand-in for the sentence model.
type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, req provider.EmbeddingRequest) (provider.EmbeddingResponse, error) {
	texts := req.Texts()
	vecs := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, 8)
		for j, r := range text {
			vec[j%8] += float64(r % 13)
		}
		vecs[i] = vec
	}
	return provider.NewEmbeddingResponse(vecs, provider.Usage{}), nil
}

func (hashEmbedder) Capacity() int  { return 16 }
func (hashEmbedder) Dimension() int { return 8 }
func (hashEmbedder) Close() error   { return nil }

func newTestServer(t *testing.T) (*api.APIServer, *stylo.Client) {
	t.Helper()

	client, err := stylo.New(
		stylo.WithSQLite(filepath.Join(t.TempDir(), "stylo.db")),
		stylo.WithEmbeddingProvider(hashEmbedder{}),
		stylo.WithLogger(log.NewLoggerWithWriter(io.Discard, config.LogFormatJSON, "error")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	server := api.NewAPIServer(client, api.Config{
		AuthSecret:       testSecret,
		SuggestPerMinute: 100,
		MutatePerMinute:  100,
	})
	return server, client
}

func authedRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	token, err := middleware.SignToken(testSecret, testOwner, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyEndpoint_AfterWarmup(t *testing.T) {
	server, client := newTestServer(t)
	handler := server.Handler()

	require.Eventually(t, client.Ready, 5*time.Second, 10*time.Millisecond)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestV2RequiresAuth(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/v2/suggestions"},
		{http.MethodGet, "/v2/items"},
		{http.MethodGet, "/v2/outfits"},
		{http.MethodPost, "/v2/admin/embeddings/refresh"},
	}
	for _, p := range paths {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(p.method, p.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", p.method, p.path)
	}
}

func TestItemLifecycleAndSuggestion(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	// Seed one item per required slot.
	seed := []map[string]string{
		{"slot": "top", "type": "Dress Shirt", "color": "white"},
		{"slot": "bottom", "type": "Chinos", "color": "navy"},
		{"slot": "footwear", "type": "Loafers", "color": "brown"},
	}
	var created []string
	for _, item := range seed {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest(t, http.MethodPost, "/v2/items", item))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		created = append(created, resp.ID)
	}

	// Listing reports the total.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(t, http.MethodGet, "/v2/items", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", w.Header().Get("X-Total-Count"))

	// Suggestion assembles a complete outfit from the catalog.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(t, http.MethodPost, "/v2/suggestions",
		map[string]any{"text": "business meeting"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var suggestion struct {
		Intent  string `json:"intent"`
		Outfits []struct {
			Top      *struct{ ID string } `json:"top"`
			Bottom   *struct{ ID string } `json:"bottom"`
			Footwear *struct{ ID string } `json:"footwear"`
			Score    float64              `json:"score"`
		} `json:"outfits"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &suggestion))
	require.NotEmpty(t, suggestion.Outfits)
	for _, outfit := range suggestion.Outfits {
		assert.NotNil(t, outfit.Top)
		assert.NotNil(t, outfit.Bottom)
		assert.NotNil(t, outfit.Footwear)
	}

	// Save one of the suggested combinations as an outfit.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(t, http.MethodPost, "/v2/outfits", map[string]any{
		"name": "interview look",
		"items": map[string]string{
			"top":      created[0],
			"bottom":   created[1],
			"footwear": created[2],
		},
	}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Deleting an item returns 204; a second delete is a 404.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(t, http.MethodDelete, "/v2/items/"+created[0], nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(t, http.MethodDelete, "/v2/items/"+created[0], nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSuggestion_EmptyTextRejected(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(t, http.MethodPost, "/v2/suggestions",
		map[string]any{"text": "   "}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSuggestion_EmptyWardrobe(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(t, http.MethodPost, "/v2/suggestions",
		map[string]any{"text": "business meeting"}))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Intent  string            `json:"intent"`
		Outfits []json.RawMessage `json:"outfits"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "none", resp.Intent)
	assert.Empty(t, resp.Outfits)
}

func TestAdminRefresh_Idempotent(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(t, http.MethodPost, "/v2/items",
		map[string]string{"slot": "top", "type": "T-Shirt"}))
	require.Equal(t, http.StatusCreated, w.Code)

	var first struct {
		Refreshed int `json:"refreshed"`
	}
	// A fresh item may already have been embedded by the worker; what
	// must hold is that a second refresh finds nothing left to do.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(t, http.MethodPost, "/v2/admin/embeddings/refresh", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

	var second struct {
		Refreshed int `json:"refreshed"`
	}
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(t, http.MethodPost, "/v2/admin/embeddings/refresh", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Zero(t, second.Refreshed)
}

func TestRateLimit_Surfaces429(t *testing.T) {
	client, err := stylo.New(
		stylo.WithSQLite(filepath.Join(t.TempDir(), "stylo.db")),
		stylo.WithEmbeddingProvider(hashEmbedder{}),
		stylo.WithLogger(log.NewLoggerWithWriter(io.Discard, config.LogFormatJSON, "error")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	server := api.NewAPIServer(client, api.Config{
		AuthSecret:       testSecret,
		SuggestPerMinute: 2,
		MutatePerMinute:  100,
	})
	handler := server.Handler()

	var last int
	for i := 0; i < 3; i++ {
		req := authedRequest(t, http.MethodPost, "/v2/suggestions",
			map[string]any{"text": "weekend brunch"})
		req.RemoteAddr = "10.1.1.1:9999"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		last = w.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
}
