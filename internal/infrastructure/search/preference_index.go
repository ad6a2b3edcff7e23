// Package search keeps a searchable copy of each user's latest preference
// snapshot in Elasticsearch.
package search

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/scent-recommender/internal/domain/entity"
	"github.com/oksasatya/scent-recommender/pkg/helpers"
)

// Mapping is the index mapping used by EnsureIndex.
const Mapping = `{
  "mappings": {
    "properties": {
      "username":    {"type": "keyword"},
      "scents":      {"type": "text"},
      "favorites":   {"type": "text"},
      "liked":       {"type": "text"},
      "disliked":    {"type": "text"},
      "suggestions": {"type": "text"},
      "last_action": {"type": "keyword"},
      "updated_at":  {"type": "date"}
    }
  }
}`

// Document is the indexed form of a preference snapshot. Suggestions are
// reduced to their names.
type Document struct {
	Username    string    `json:"username"`
	Scents      string    `json:"scents"`
	Favorites   []string  `json:"favorites"`
	Liked       []string  `json:"liked"`
	Disliked    []string  `json:"disliked"`
	Suggestions []string  `json:"suggestions"`
	LastAction  string    `json:"last_action"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func DocumentFrom(ev entity.PreferenceEvent) Document {
	p := ev.Preferences
	names := make([]string, 0, len(p.Suggestions))
	for _, s := range p.Suggestions {
		names = append(names, s.Name)
	}
	return Document{
		Username:    ev.Username,
		Scents:      p.Scents,
		Favorites:   p.FavoriteNames(),
		Liked:       p.LikedNames(),
		Disliked:    p.DislikedNames(),
		Suggestions: names,
		LastAction:  string(ev.Action),
		UpdatedAt:   ev.OccurredAt,
	}
}

type PreferenceIndex struct {
	ES     *elasticsearch.Client
	Index  string
	Logger *logrus.Logger
}

func NewPreferenceIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *PreferenceIndex {
	return &PreferenceIndex{ES: es, Index: index, Logger: logger}
}

// Ensure creates the index when missing.
func (p *PreferenceIndex) Ensure(ctx context.Context) error {
	return helpers.EnsureIndex(ctx, p.ES, p.Index, Mapping)
}

// Put replaces the user's document with the snapshot carried by ev. The
// event time is used as an external version so a snapshot delivered late
// never overwrites a newer one.
func (p *PreferenceIndex) Put(ctx context.Context, ev entity.PreferenceEvent) error {
	b, err := json.Marshal(DocumentFrom(ev))
	if err != nil {
		return err
	}
	version := int(ev.OccurredAt.UnixNano())
	req := esapi.IndexRequest{
		Index:       p.Index,
		DocumentID:  ev.Username,
		Body:        bytes.NewReader(b),
		Version:     &version,
		VersionType: "external",
		Refresh:     "false",
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, p.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode == http.StatusConflict {
		if p.Logger != nil {
			p.Logger.WithField("username", ev.Username).Debug("stale preference snapshot skipped")
		}
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("index %s/%s: %s", p.Index, ev.Username, res.Status())
	}
	if p.Logger != nil {
		p.Logger.WithFields(logrus.Fields{"username": ev.Username, "action": ev.Action}).Debug("preference snapshot indexed")
	}
	return nil
}

// Search runs a multi_match over scents and fragrance names within the
// caller's own snapshot. Favorites and liked names weigh more than plain
// suggestions.
func (p *PreferenceIndex) Search(ctx context.Context, username, q string, size int) ([]Document, error) {
	if size <= 0 || size > 50 {
		size = 10
	}
	query := searchQuery(username, q, size)
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := p.ES.Search(p.ES.Search.WithContext(c), p.ES.Search.WithIndex(p.Index), p.ES.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", p.Index, res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string   `json:"_id"`
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]Document, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		if h.Source.Username != username {
			continue
		}
		out = append(out, h.Source)
	}
	return out, nil
}

func searchQuery(username, q string, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  q,
						"fields": []string{"scents", "favorites^2", "liked^2", "suggestions"},
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"username": username},
				},
			},
		},
		"size": size,
	}
}
