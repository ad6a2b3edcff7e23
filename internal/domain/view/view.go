// Package view computes the displayed ordering of suggestions.
package view

import (
	"cmp"
	"errors"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/oksasatya/scent-recommender/internal/domain/entity"
)

type SortKey string

const (
	SortBySimilarity   SortKey = "similarity"
	SortByPrice        SortKey = "price"
	SortByName         SortKey = "name"
	SortByManufacturer SortKey = "manufacturer"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// DefaultMinSimilarity matches the ingestion floor.
const DefaultMinSimilarity = entity.SimilarityFloor

var (
	ErrUnknownSortKey   = errors.New("unknown sort key")
	ErrUnknownDirection = errors.New("unknown sort direction")
)

// Options controls filtering and ordering.
type Options struct {
	MinSimilarity float64
	SortKey       SortKey
	Direction     Direction
	// Locale used for name and manufacturer collation. Defaults to English.
	Locale language.Tag
}

// DefaultOptions sorts by similarity, highest first, from the ingestion floor.
func DefaultOptions() Options {
	return Options{
		MinSimilarity: DefaultMinSimilarity,
		SortKey:       SortBySimilarity,
		Direction:     Desc,
		Locale:        language.English,
	}
}

// ParseSortKey maps a case-insensitive string to a SortKey; empty yields similarity.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortBySimilarity, nil
	case SortBySimilarity, SortByPrice, SortByName, SortByManufacturer:
		return k, nil
	default:
		return "", ErrUnknownSortKey
	}
}

// ParseDirection maps a case-insensitive string to a Direction; empty yields desc.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return Desc, nil
	case Asc, Desc:
		return d, nil
	default:
		return "", ErrUnknownDirection
	}
}

// Apply filters suggestions below opts.MinSimilarity and sorts the rest.
// The input slice is never modified. Equal elements keep their input order.
func Apply(suggestions []entity.Suggestion, opts Options) []entity.Suggestion {
	out := make([]entity.Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Similarity >= opts.MinSimilarity {
			out = append(out, s)
		}
	}

	compare := comparator(opts)
	if opts.Direction == Desc {
		asc := compare
		compare = func(a, b entity.Suggestion) int { return -asc(a, b) }
	}
	slices.SortStableFunc(out, compare)
	return out
}

func comparator(opts Options) func(a, b entity.Suggestion) int {
	switch opts.SortKey {
	case SortByPrice:
		return func(a, b entity.Suggestion) int { return cmp.Compare(a.Price, b.Price) }
	case SortByName:
		c := newCollator(opts.Locale)
		return func(a, b entity.Suggestion) int { return c.CompareString(a.Name, b.Name) }
	case SortByManufacturer:
		c := newCollator(opts.Locale)
		return func(a, b entity.Suggestion) int { return c.CompareString(a.Manufacturer, b.Manufacturer) }
	default:
		return func(a, b entity.Suggestion) int { return cmp.Compare(a.Similarity, b.Similarity) }
	}
}

// A Collator is not safe for concurrent use, so each Apply builds its own.
func newCollator(tag language.Tag) *collate.Collator {
	if tag == language.Und {
		tag = language.English
	}
	return collate.New(tag)
}
