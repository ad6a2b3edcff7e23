// Package scent turns comma-separated scent-note text into an ordered,
// de-duplicated set and back.
package scent

import "strings"

// Separator is used when serializing a Set.
const Separator = ", "

// Set is an ordered collection of distinct scent notes. Comparison is
// case-sensitive.
type Set []string

// Normalize splits text on commas, trims each note, drops empty notes and
// keeps the first occurrence of each.
func Normalize(text string) Set {
	return Merge(nil, Split(text))
}

// Split splits on commas and trims, keeping empties and duplicates.
func Split(text string) []string {
	parts := strings.Split(text, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Merge appends the notes of additions not already present, after the
// notes of existing.
func Merge(existing Set, additions []string) Set {
	out := make(Set, 0, len(existing)+len(additions))
	seen := make(map[string]struct{}, cap(out))
	add := func(note string) {
		note = strings.TrimSpace(note)
		if note == "" {
			return
		}
		if _, ok := seen[note]; ok {
			return
		}
		seen[note] = struct{}{}
		out = append(out, note)
	}
	for _, n := range existing {
		add(n)
	}
	for _, n := range additions {
		add(n)
	}
	return out
}

// Serialize joins the set with ", ".
func Serialize(s Set) string {
	return strings.Join(s, Separator)
}

// Contains reports whether note is in the set.
func (s Set) Contains(note string) bool {
	for _, n := range s {
		if n == note {
			return true
		}
	}
	return false
}

// IsBlank reports whether text has no content after trimming.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
