package application

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/scent-recommender/internal/domain/entity"
	"github.com/oksasatya/scent-recommender/internal/domain/scent"
)

// ModelInvoker sends a prompt to the generative model and returns its text.
type ModelInvoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// InvokerFunc adapts a function to ModelInvoker.
type InvokerFunc func(ctx context.Context, prompt string) (string, error)

func (f InvokerFunc) Invoke(ctx context.Context, prompt string) (string, error) { return f(ctx, prompt) }

// Recommender turns scents plus like/dislike history into validated suggestions.
type Recommender struct {
	Model  ModelInvoker
	Logger *logrus.Logger
}

func NewRecommender(model ModelInvoker, logger *logrus.Logger) *Recommender {
	return &Recommender{Model: model, Logger: logger}
}

// Recommend returns suggestions in model order with similarity at or above
// the floor. Blank scents yield ErrEmptyScents without calling the model.
func (r *Recommender) Recommend(ctx context.Context, scents string, liked, disliked []string) ([]entity.Suggestion, error) {
	if scent.IsBlank(scents) {
		return nil, ErrEmptyScents
	}

	raw, err := r.Model.Invoke(ctx, RecommendationPrompt(scents, liked, disliked))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelInvocation, err)
	}

	all, err := ParseSuggestions(raw)
	if err != nil {
		if r.Logger != nil {
			r.Logger.WithError(err).WithField("response", truncate(raw, 200)).Warn("discarding recommendation response")
		}
		return nil, err
	}

	kept := FilterByFloor(all)
	if r.Logger != nil {
		r.Logger.WithFields(logrus.Fields{"returned": len(all), "kept": len(kept)}).Debug("recommendations parsed")
	}
	return kept, nil
}

// FilterByFloor keeps suggestions with similarity >= entity.SimilarityFloor.
func FilterByFloor(items []entity.Suggestion) []entity.Suggestion {
	out := make([]entity.Suggestion, 0, len(items))
	for _, it := range items {
		if it.Similarity >= entity.SimilarityFloor {
			out = append(out, it)
		}
	}
	return out
}

// ParseSuggestions validates a model response. The whole response is
// rejected with ErrRecommendationParse if it is not a JSON array or any
// element lacks a required field.
func ParseSuggestions(raw string) ([]entity.Suggestion, error) {
	body := stripCodeFence(raw)
	if !strings.HasPrefix(body, "[") {
		if json.Valid([]byte(body)) {
			return nil, fmt.Errorf("%w: expected a JSON array", ErrRecommendationParse)
		}
		return nil, fmt.Errorf("%w: invalid JSON", ErrRecommendationParse)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(body), &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecommendationParse, err)
	}

	out := make([]entity.Suggestion, 0, len(elems))
	for i, elem := range elems {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(elem, &fields); err != nil || fields == nil {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrRecommendationParse, i)
		}
		s, err := suggestionFromFields(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrRecommendationParse, i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func suggestionFromFields(fields map[string]json.RawMessage) (entity.Suggestion, error) {
	var (
		s   entity.Suggestion
		err error
	)
	if s.Name, err = stringField(fields, "name"); err != nil {
		return s, err
	}
	if strings.TrimSpace(s.Name) == "" {
		return s, fmt.Errorf("name is empty")
	}
	if s.Manufacturer, err = stringField(fields, "manufacturer"); err != nil {
		return s, err
	}
	if s.Description, err = stringField(fields, "description"); err != nil {
		return s, err
	}
	if s.Price, err = numberField(fields, "price"); err != nil {
		return s, err
	}
	if s.Price < 0 {
		return s, fmt.Errorf("price is negative")
	}
	if s.Similarity, err = numberField(fields, "similarity"); err != nil {
		return s, err
	}
	if s.Similarity < 0 || s.Similarity > 1 {
		return s, fmt.Errorf("similarity %v outside [0,1]", s.Similarity)
	}
	return s, nil
}

func stringField(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok || isJSONNull(raw) {
		return "", fmt.Errorf("missing %s", key)
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("%s is not a string", key)
	}
	return v, nil
}

// numberField accepts JSON numbers and numeric strings such as "0.8" or "$120".
func numberField(fields map[string]json.RawMessage, key string) (float64, error) {
	raw, ok := fields[key]
	if !ok || isJSONNull(raw) {
		return 0, fmt.Errorf("missing %s", key)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0, fmt.Errorf("%s is not numeric", key)
	}
	f, err := parseNumeric(str)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not numeric", key, str)
	}
	return f, nil
}

func parseNumeric(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "USD"))
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not finite")
	}
	return f, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
