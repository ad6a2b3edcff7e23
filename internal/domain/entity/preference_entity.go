package entity

// PreferenceRecord is the persisted per-user bundle of scent input and
// curated suggestions. JSON field names are the stored wire format.
//
// Favorites, Liked and Disliked are sets keyed by Suggestion.Name, kept in
// insertion order. Mutate them only through the methods below so that a
// name never appears twice in one set and never in both Liked and Disliked.
type PreferenceRecord struct {
	Scents      string       `json:"scents"`
	Suggestions []Suggestion `json:"suggestions"`
	Favorites   []Suggestion `json:"favorites"`
	Liked       []Suggestion `json:"likedFragrances"`
	Disliked    []Suggestion `json:"dislikedFragrances"`
}

// NewPreferenceRecord returns a record with every field in its empty form.
func NewPreferenceRecord() PreferenceRecord {
	return PreferenceRecord{
		Suggestions: []Suggestion{},
		Favorites:   []Suggestion{},
		Liked:       []Suggestion{},
		Disliked:    []Suggestion{},
	}
}

// Normalize replaces nil slices with empty ones so a stored record always
// serializes its collections as arrays.
func (p *PreferenceRecord) Normalize() {
	if p.Suggestions == nil {
		p.Suggestions = []Suggestion{}
	}
	if p.Favorites == nil {
		p.Favorites = []Suggestion{}
	}
	if p.Liked == nil {
		p.Liked = []Suggestion{}
	}
	if p.Disliked == nil {
		p.Disliked = []Suggestion{}
	}
}

// Clone returns a deep copy.
func (p PreferenceRecord) Clone() PreferenceRecord {
	return PreferenceRecord{
		Scents:      p.Scents,
		Suggestions: cloneSuggestions(p.Suggestions),
		Favorites:   cloneSuggestions(p.Favorites),
		Liked:       cloneSuggestions(p.Liked),
		Disliked:    cloneSuggestions(p.Disliked),
	}
}

func (p *PreferenceRecord) IsFavorite(name string) bool { return indexByName(p.Favorites, name) >= 0 }
func (p *PreferenceRecord) IsLiked(name string) bool    { return indexByName(p.Liked, name) >= 0 }
func (p *PreferenceRecord) IsDisliked(name string) bool { return indexByName(p.Disliked, name) >= 0 }

// ToggleFavorite removes item from favorites when its name is present,
// otherwise appends it. It reports whether the item is a favorite afterwards.
func (p *PreferenceRecord) ToggleFavorite(item Suggestion) bool {
	if indexByName(p.Favorites, item.Name) >= 0 {
		p.Favorites = removeByName(p.Favorites, item.Name)
		return false
	}
	p.Favorites = append(p.Favorites, item)
	return true
}

// RemoveFavorite drops item.Name from favorites; absent names are a no-op.
func (p *PreferenceRecord) RemoveFavorite(name string) {
	p.Favorites = removeByName(p.Favorites, name)
}

// Like moves item into Liked, dropping it from Disliked.
func (p *PreferenceRecord) Like(item Suggestion) {
	p.Disliked = removeByName(p.Disliked, item.Name)
	if indexByName(p.Liked, item.Name) < 0 {
		p.Liked = append(p.Liked, item)
	}
}

// Dislike moves item into Disliked, dropping it from Liked.
func (p *PreferenceRecord) Dislike(item Suggestion) {
	p.Liked = removeByName(p.Liked, item.Name)
	if indexByName(p.Disliked, item.Name) < 0 {
		p.Disliked = append(p.Disliked, item)
	}
}

// ReplaceSuggestions discards the current suggestions in favor of next.
func (p *PreferenceRecord) ReplaceSuggestions(next []Suggestion) {
	p.Suggestions = cloneSuggestions(next)
}

// Clear resets every field to its empty form.
func (p *PreferenceRecord) Clear() {
	*p = NewPreferenceRecord()
}

// LikedNames and DislikedNames return names in insertion order.
func (p *PreferenceRecord) LikedNames() []string    { return names(p.Liked) }
func (p *PreferenceRecord) DislikedNames() []string { return names(p.Disliked) }
func (p *PreferenceRecord) FavoriteNames() []string { return names(p.Favorites) }

func indexByName(items []Suggestion, name string) int {
	for i := range items {
		if items[i].Name == name {
			return i
		}
	}
	return -1
}

// removeByName returns a new slice; callers may hold the old one.
func removeByName(items []Suggestion, name string) []Suggestion {
	out := make([]Suggestion, 0, len(items))
	for _, it := range items {
		if it.Name != name {
			out = append(out, it)
		}
	}
	return out
}

func cloneSuggestions(items []Suggestion) []Suggestion {
	out := make([]Suggestion, len(items))
	copy(out, items)
	return out
}

func names(items []Suggestion) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}
