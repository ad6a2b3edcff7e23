package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/scent-recommender/internal/domain/entity"
)

func staticModel(resp string, err error) (ModelInvoker, *[]string) {
	var prompts []string
	return InvokerFunc(func(_ context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return resp, err
	}), &prompts
}

const validResponse = `[
  {"name": "Rose Noir", "manufacturer": "Byredo", "price": 180, "similarity": 0.92, "description": "Dark rose."},
  {"name": "Musk Lite", "manufacturer": "Acme", "price": "45.50", "similarity": "0.4", "description": "Soft."},
  {"name": "Amber Oud", "manufacturer": "Kilian", "price": "$250", "similarity": 0.5, "description": "Resinous."}
]`

func TestRecommendationPrompt(t *testing.T) {
	p := RecommendationPrompt(" jasmine, oud ", []string{"A", "B"}, nil)
	assert.Contains(t, p, "Given the list of scents: jasmine, oud,")
	assert.Contains(t, p, "liked the following fragrances: A, B,")
	assert.Contains(t, p, "disliked the following fragrances: , recommend")
	assert.Contains(t, p, "0.5 or higher")
	assert.Contains(t, p, `"name", "manufacturer", "price", "similarity", and "description"`)
}

func TestRecommend_FiltersBelowFloorAndKeepsOrder(t *testing.T) {
	model, prompts := staticModel(validResponse, nil)
	r := NewRecommender(model, nil)

	got, err := r.Recommend(context.Background(), "rose, oud", []string{"Oud Wood"}, []string{"Cheap Musk"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Rose Noir", got[0].Name)
	assert.Equal(t, "Amber Oud", got[1].Name)
	assert.Equal(t, 250.0, got[1].Price)
	for _, s := range got {
		assert.GreaterOrEqual(t, s.Similarity, entity.SimilarityFloor)
	}
	require.Len(t, *prompts, 1)
	assert.Contains(t, (*prompts)[0], "Oud Wood")
	assert.Contains(t, (*prompts)[0], "Cheap Musk")
}

func TestRecommend_BlankScentsSkipsModel(t *testing.T) {
	model, prompts := staticModel(validResponse, nil)
	r := NewRecommender(model, nil)

	_, err := r.Recommend(context.Background(), "  ", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyScents)
	assert.Empty(t, *prompts)
}

func TestRecommend_InvocationError(t *testing.T) {
	transport := errors.New("connection reset")
	model, _ := staticModel("", transport)
	r := NewRecommender(model, nil)

	_, err := r.Recommend(context.Background(), "rose", nil, nil)
	assert.ErrorIs(t, err, ErrModelInvocation)
	assert.ErrorIs(t, err, transport)
}

func TestParseSuggestions_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "Here are some perfumes you might like"},
		{"object not array", `{"name": "Rose Noir"}`},
		{"truncated array", `[{"name": "Rose Noir"`},
		{"element not object", `[1, 2]`},
		{"null element", `[null]`},
		{"missing field", `[{"name": "A", "manufacturer": "B", "price": 1, "similarity": 0.9}]`},
		{"empty name", `[{"name": " ", "manufacturer": "B", "price": 1, "similarity": 0.9, "description": ""}]`},
		{"non numeric similarity", `[{"name": "A", "manufacturer": "B", "price": 1, "similarity": "high", "description": ""}]`},
		{"similarity out of range", `[{"name": "A", "manufacturer": "B", "price": 1, "similarity": 1.5, "description": ""}]`},
		{"negative price", `[{"name": "A", "manufacturer": "B", "price": -3, "similarity": 0.7, "description": ""}]`},
		{"one bad among good", `[
			{"name": "A", "manufacturer": "B", "price": 1, "similarity": 0.9, "description": ""},
			{"name": "C", "manufacturer": "D", "similarity": 0.9, "description": ""}
		]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSuggestions(tt.raw)
			assert.ErrorIs(t, err, ErrRecommendationParse)
		})
	}
}

func TestParseSuggestions_CodeFenceAndEmptyArray(t *testing.T) {
	got, err := ParseSuggestions("```json\n[{\"name\":\"A\",\"manufacturer\":\"B\",\"price\":\"1,200 USD\",\"similarity\":0.7,\"description\":\"d\"}]\n```")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1200.0, got[0].Price)

	got, err = ParseSuggestions("[]")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilterByFloor(t *testing.T) {
	in := []entity.Suggestion{{Name: "a", Similarity: 0.49}, {Name: "b", Similarity: 0.5}, {Name: "c", Similarity: 1}}
	got := FilterByFloor(in)
	assert.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Name)
}
