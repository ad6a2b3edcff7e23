package search

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/scent-recommender/internal/domain/entity"
)

func newTestIndex(t *testing.T, h http.HandlerFunc) *PreferenceIndex {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewPreferenceIndex(es, "preferences", nil)
}

func sampleEvent() entity.PreferenceEvent {
	prefs := entity.NewPreferenceRecord()
	prefs.Scents = "rose, oud"
	prefs.Suggestions = []entity.Suggestion{{Name: "Rose Noir", Similarity: 0.9}}
	prefs.Like(entity.Suggestion{Name: "Oud Wood"})
	return entity.PreferenceEvent{
		ID:          "ev-1",
		Username:    "alice",
		Action:      entity.ActionLiked,
		Item:        "Oud Wood",
		Preferences: prefs,
		OccurredAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestDocumentFrom(t *testing.T) {
	doc := DocumentFrom(sampleEvent())
	assert.Equal(t, "alice", doc.Username)
	assert.Equal(t, []string{"Rose Noir"}, doc.Suggestions)
	assert.Equal(t, []string{"Oud Wood"}, doc.Liked)
	assert.Empty(t, doc.Disliked)
	assert.Equal(t, "liked", doc.LastAction)
}

func TestPutUsesExternalVersion(t *testing.T) {
	var gotPath, gotQuery string
	var gotDoc Document
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotDoc)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	require.NoError(t, idx.Put(context.Background(), sampleEvent()))
	assert.Equal(t, "/preferences/_doc/alice", gotPath)
	assert.Contains(t, gotQuery, "version_type=external")
	assert.Equal(t, "rose, oud", gotDoc.Scents)
}

func TestPutStaleSnapshotIsSkipped(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"type":"version_conflict_engine_exception"}}`))
	})
	assert.NoError(t, idx.Put(context.Background(), sampleEvent()))
}

func TestPutServerError(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad"}`))
	})
	assert.Error(t, idx.Put(context.Background(), sampleEvent()))
}

func TestSearchIsScopedToCaller(t *testing.T) {
	var gotBody []byte
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/preferences/_search"))
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_id":"alice","_source":{"username":"alice","liked":["Oud Wood"]}},
			{"_id":"bob","_source":{"username":"bob","liked":["Oud Satin"]}}
		]}}`))
	})

	docs, err := idx.Search(context.Background(), "alice", "oud", 0)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "alice", docs[0].Username)
	assert.Equal(t, []string{"Oud Wood"}, docs[0].Liked)

	var body struct {
		Query struct {
			Bool struct {
				Must struct {
					MultiMatch struct {
						Query string `json:"query"`
					} `json:"multi_match"`
				} `json:"must"`
				Filter struct {
					Term map[string]string `json:"term"`
				} `json:"filter"`
			} `json:"bool"`
		} `json:"query"`
		Size int `json:"size"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &body), string(gotBody))
	assert.Equal(t, "oud", body.Query.Bool.Must.MultiMatch.Query)
	assert.Equal(t, map[string]string{"username": "alice"}, body.Query.Bool.Filter.Term)
	assert.Equal(t, 10, body.Size)
}
