package entity

import "time"

// PreferenceAction names the state transition that produced an event.
type PreferenceAction string

const (
	ActionRegistered     PreferenceAction = "registered"
	ActionScentsSaved    PreferenceAction = "scents_saved"
	ActionRecommended    PreferenceAction = "recommended"
	ActionScentsExpanded PreferenceAction = "scents_expanded"
	ActionFavoriteToggle PreferenceAction = "favorite_toggled"
	ActionFavoriteRemove PreferenceAction = "favorite_removed"
	ActionLiked          PreferenceAction = "liked"
	ActionDisliked       PreferenceAction = "disliked"
	ActionCleared        PreferenceAction = "cleared"
)

// PreferenceEvent is published after a preference record is committed.
type PreferenceEvent struct {
	ID          string           `json:"id"`
	Username    string           `json:"username"`
	Action      PreferenceAction `json:"action"`
	Item        string           `json:"item,omitempty"`
	Preferences PreferenceRecord `json:"preferences"`
	OccurredAt  time.Time        `json:"occurred_at"`
}
