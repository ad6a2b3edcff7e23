package entity

import "net/url"

// SimilarityFloor is the minimum similarity a model-returned suggestion needs
// to be kept at ingestion.
const SimilarityFloor = 0.5

// Suggestion is a candidate fragrance recommendation.
// Identity is Name (case-sensitive); two products sharing a name from
// different manufacturers are treated as the same suggestion.
type Suggestion struct {
	Name         string  `json:"name"`
	Manufacturer string  `json:"manufacturer"`
	Price        float64 `json:"price"`
	Similarity   float64 `json:"similarity"`
	Description  string  `json:"description"`
}

// SimilarityTier buckets a similarity score for display.
type SimilarityTier string

const (
	TierHigh   SimilarityTier = "high"
	TierMedium SimilarityTier = "medium"
	TierLow    SimilarityTier = "low"
)

// Tier returns high for >= 0.9, medium for >= 0.8, low otherwise.
func (s Suggestion) Tier() SimilarityTier {
	switch {
	case s.Similarity >= 0.9:
		return TierHigh
	case s.Similarity >= 0.8:
		return TierMedium
	default:
		return TierLow
	}
}

// ProductURL returns a web search link for the product.
func (s Suggestion) ProductURL() string {
	return "https://www.google.com/search?q=" + url.QueryEscape(s.Name+" "+s.Manufacturer+" perfume")
}
