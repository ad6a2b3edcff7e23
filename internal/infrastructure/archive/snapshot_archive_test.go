package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/scent-recommender/internal/domain/entity"
)

func TestObjectPath(t *testing.T) {
	ev := entity.PreferenceEvent{
		ID:         "e1",
		Username:   "alice",
		OccurredAt: time.Date(2026, 3, 4, 5, 6, 7, 8, time.FixedZone("X", 3600)),
	}
	assert.Equal(t, "preferences/alice/20260304T040607.000000008-e1.json", ObjectPath(ev))
}

func TestUserPrefixDoesNotMatchLongerNames(t *testing.T) {
	assert.Equal(t, "preferences/al/", UserPrefix("al"))
	assert.NotContains(t, ObjectPath(entity.PreferenceEvent{ID: "e", Username: "alice"}), UserPrefix("al"))
}
