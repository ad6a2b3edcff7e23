package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	roseNoir = Suggestion{Name: "Rose Noir", Manufacturer: "Byredo", Price: 180, Similarity: 0.8}
	amberOud = Suggestion{Name: "Amber Oud", Manufacturer: "Kilian", Price: 250, Similarity: 0.7}
)

func TestLikeThenDislike(t *testing.T) {
	p := NewPreferenceRecord()
	p.Like(roseNoir)
	p.Dislike(roseNoir)

	assert.False(t, p.IsLiked(roseNoir.Name))
	assert.True(t, p.IsDisliked(roseNoir.Name))
}

func TestLikeIsIdempotent(t *testing.T) {
	p := NewPreferenceRecord()
	p.Like(roseNoir)
	p.Like(roseNoir)
	assert.Len(t, p.Liked, 1)
}

func TestDislikeThenLike(t *testing.T) {
	p := NewPreferenceRecord()
	p.Dislike(amberOud)
	p.Like(amberOud)
	assert.Equal(t, []string{"Amber Oud"}, p.LikedNames())
	assert.Empty(t, p.Disliked)
}

func TestToggleFavoriteTwiceRestores(t *testing.T) {
	p := NewPreferenceRecord()
	p.ToggleFavorite(amberOud)
	before := p.Clone()

	assert.True(t, p.ToggleFavorite(roseNoir))
	assert.False(t, p.ToggleFavorite(roseNoir))
	assert.Equal(t, before.Favorites, p.Favorites)
}

func TestToggleFavoriteMatchesByName(t *testing.T) {
	p := NewPreferenceRecord()
	p.ToggleFavorite(roseNoir)
	other := roseNoir
	other.Manufacturer = "Someone Else"
	assert.False(t, p.ToggleFavorite(other))
	assert.Empty(t, p.Favorites)
}

func TestRemoveFavorite(t *testing.T) {
	p := NewPreferenceRecord()
	p.ToggleFavorite(roseNoir)
	p.RemoveFavorite("missing")
	assert.Len(t, p.Favorites, 1)
	p.RemoveFavorite(roseNoir.Name)
	assert.Empty(t, p.Favorites)
}

func TestClear(t *testing.T) {
	p := NewPreferenceRecord()
	p.Scents = "oud"
	p.ReplaceSuggestions([]Suggestion{roseNoir})
	p.ToggleFavorite(roseNoir)
	p.Like(roseNoir)
	p.Dislike(amberOud)

	p.Clear()
	assert.Equal(t, NewPreferenceRecord(), p)
}

func TestCloneIsDeep(t *testing.T) {
	p := NewPreferenceRecord()
	p.ReplaceSuggestions([]Suggestion{roseNoir})
	c := p.Clone()
	c.Suggestions[0].Name = "changed"
	assert.Equal(t, "Rose Noir", p.Suggestions[0].Name)
}

func TestNormalizeFillsNilSlices(t *testing.T) {
	var p PreferenceRecord
	p.Normalize()
	assert.NotNil(t, p.Suggestions)
	assert.NotNil(t, p.Favorites)
	assert.NotNil(t, p.Liked)
	assert.NotNil(t, p.Disliked)
}

func TestSuggestionTierAndURL(t *testing.T) {
	assert.Equal(t, TierHigh, Suggestion{Similarity: 0.9}.Tier())
	assert.Equal(t, TierMedium, Suggestion{Similarity: 0.85}.Tier())
	assert.Equal(t, TierLow, Suggestion{Similarity: 0.79}.Tier())
	assert.Equal(t, "https://www.google.com/search?q=Rose+Noir+Byredo+perfume", roseNoir.ProductURL())
}
