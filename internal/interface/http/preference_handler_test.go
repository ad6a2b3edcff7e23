package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/scent-recommender/internal/application"
	"github.com/oksasatya/scent-recommender/internal/domain/entity"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/llm"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/memory"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/search"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/userstore"
	"github.com/oksasatya/scent-recommender/internal/interface/middleware"
	"github.com/oksasatya/scent-recommender/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

const threeSuggestions = `[
  {"name": "Alpha", "manufacturer": "A House", "price": 100, "similarity": 0.95, "description": "a"},
  {"name": "Bravo", "manufacturer": "B House", "price": 50, "similarity": 0.85, "description": "b"},
  {"name": "Charlie", "manufacturer": "C House", "price": 200, "similarity": 0.6, "description": "c"}
]`

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// stubSearcher holds every user's document and filters by the username it is given.
type stubSearcher struct {
	docs []search.Document
}

func (s stubSearcher) Search(_ context.Context, username, _ string, _ int) ([]search.Document, error) {
	var out []search.Document
	for _, d := range s.docs {
		if d.Username == username {
			out = append(out, d)
		}
	}
	return out, nil
}

type testServer struct {
	engine *gin.Engine
	calls  *int
}

// newServer mounts the preference routes for user "alice" with a model
// answering resp/err.
func newServer(t *testing.T, resp string, modelErr error, searcher PreferenceSearcher) *testServer {
	t.Helper()
	repo := userstore.NewUserRepository(memory.NewKVStore(), userstore.DefaultKey)
	require.NoError(t, repo.Create(context.Background(), &entity.User{
		Username:    "alice",
		Password:    "hash",
		Preferences: entity.NewPreferenceRecord(),
	}))

	calls := 0
	model := application.InvokerFunc(func(context.Context, string) (string, error) {
		calls++
		return resp, modelErr
	})
	svc := application.NewPreferenceService(repo, application.NewRecommender(model, nil), application.NewExpander(model, nil), nil, nil)
	h := NewPreferenceHandler(svc, searcher, nil)

	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		if u := c.GetHeader("X-Test-User"); u != "" {
			c.Set(middleware.CtxUsername, u)
		} else {
			c.Set(middleware.CtxUsername, "alice")
		}
		c.Next()
	})
	api.GET("/preferences", h.Get)
	api.PUT("/preferences/scents", h.SaveScents)
	api.GET("/preferences/search", h.SearchPreferences)
	api.POST("/recommendations", h.Recommend)
	api.GET("/recommendations", h.Suggestions)
	api.POST("/scents/expand", h.ExpandScents)
	api.POST("/suggestions/like", h.Like)
	api.POST("/favorites/toggle", h.ToggleFavorite)
	api.GET("/favorites", h.Favorites)
	api.DELETE("/session", h.ClearSession)
	return &testServer{engine: r, calls: &calls}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers ...string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

// decodeViews reads a suggestion list; empty lists are omitted from the envelope.
func decodeViews(t *testing.T, env envelope) []suggestionView {
	t.Helper()
	if len(env.Data) == 0 {
		return nil
	}
	var out []suggestionView
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestRecommendThenFilteredView(t *testing.T) {
	s := newServer(t, threeSuggestions, nil, nil)

	code, env := s.do(t, http.MethodPost, "/api/recommendations", `{"scents":"rose, oud"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	created := decodeViews(t, env)
	require.Len(t, created, 3)
	assert.Equal(t, entity.TierHigh, created[0].Tier)
	assert.Contains(t, created[0].ProductURL, "Alpha")

	code, env = s.do(t, http.MethodGet, "/api/recommendations?min_similarity=0.8&sort=price&order=asc", "")
	require.Equal(t, http.StatusOK, code)
	items := decodeViews(t, env)
	require.Len(t, items, 2)
	assert.Equal(t, "Bravo", items[0].Name)
	assert.Equal(t, entity.TierMedium, items[0].Tier)
	assert.Equal(t, "Alpha", items[1].Name)

	code, env = s.do(t, http.MethodGet, "/api/preferences", "")
	require.Equal(t, http.StatusOK, code)
	var prefs entity.PreferenceRecord
	require.NoError(t, json.Unmarshal(env.Data, &prefs))
	assert.Equal(t, "rose, oud", prefs.Scents)
	assert.Len(t, prefs.Suggestions, 3)
}

func TestRecommendBlankScentsIsNoop(t *testing.T) {
	s := newServer(t, threeSuggestions, nil, nil)

	code, env := s.do(t, http.MethodPost, "/api/recommendations", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, 0, *s.calls)
}

func TestRecommendChunkedEmptyBodyUsesSavedScents(t *testing.T) {
	s := newServer(t, threeSuggestions, nil, nil)
	code, _ := s.do(t, http.MethodPut, "/api/preferences/scents", `{"scents":"fig, cedar"}`)
	require.Equal(t, http.StatusOK, code)

	req := httptest.NewRequest(http.MethodPost, "/api/recommendations", http.NoBody)
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, *s.calls)

	code, _ = s.do(t, http.MethodPost, "/api/recommendations", `{"scents":`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestModelFailureStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		resp string
		err  error
		want int
	}{
		{"circuit open", "", llm.ErrCircuitOpen, http.StatusServiceUnavailable},
		{"invocation", "", errors.New("connection reset"), http.StatusBadGateway},
		{"unparseable", "sorry, I cannot help with that", nil, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newServer(t, tc.resp, tc.err, nil)
			code, env := s.do(t, http.MethodPost, "/api/recommendations", `{"scents":"vetiver"}`)
			assert.Equal(t, tc.want, code)
			assert.False(t, env.Success)

			// Suggestions stay untouched after a failed synthesis.
			_, env = s.do(t, http.MethodGet, "/api/recommendations", "")
			assert.Empty(t, decodeViews(t, env))
		})
	}
}

func TestUnknownUserIsNotFound(t *testing.T) {
	s := newServer(t, threeSuggestions, nil, nil)
	code, _ := s.do(t, http.MethodGet, "/api/preferences", "", "X-Test-User", "bob")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestInvalidViewQuery(t *testing.T) {
	s := newServer(t, threeSuggestions, nil, nil)

	code, _ := s.do(t, http.MethodGet, "/api/recommendations?sort=rating", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/api/recommendations?min_similarity=2", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLikeAndToggleFavorite(t *testing.T) {
	s := newServer(t, threeSuggestions, nil, nil)
	item := `{"name":"Alpha","manufacturer":"A House","price":100,"similarity":0.95}`

	code, _ := s.do(t, http.MethodPost, "/api/suggestions/like", item)
	require.Equal(t, http.StatusOK, code)

	code, env := s.do(t, http.MethodPost, "/api/favorites/toggle", item)
	require.Equal(t, http.StatusOK, code)
	var toggled struct {
		Favorite bool `json:"favorite"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &toggled))
	assert.True(t, toggled.Favorite)

	code, _ = s.do(t, http.MethodPost, "/api/suggestions/like", `{"similarity":0.5}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodDelete, "/api/session", "")
	require.Equal(t, http.StatusOK, code)
	_, env = s.do(t, http.MethodGet, "/api/favorites", "")
	assert.Empty(t, decodeViews(t, env))
}

func TestSearchPreferences(t *testing.T) {
	s := newServer(t, threeSuggestions, nil, nil)
	code, _ := s.do(t, http.MethodGet, "/api/preferences/search?q=oud", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	s = newServer(t, threeSuggestions, nil, stubSearcher{docs: []search.Document{
		{Username: "alice", Scents: "oud"},
		{Username: "bob", Scents: "oud, saffron"},
	}})
	code, env := s.do(t, http.MethodGet, "/api/preferences/search?q=oud", "")
	require.Equal(t, http.StatusOK, code)
	var docs []search.Document
	require.NoError(t, json.Unmarshal(env.Data, &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "alice", docs[0].Username)

	code, env = s.do(t, http.MethodGet, "/api/preferences/search?q=saffron", "", "X-Test-User", "carol")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, env.Data)

	code, _ = s.do(t, http.MethodGet, "/api/preferences/search", "")
	assert.Equal(t, http.StatusBadRequest, code)
}
