package scent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Set
	}{
		{"duplicates dropped", "jasmine, sandalwood, jasmine", Set{"jasmine", "sandalwood"}},
		{"empties dropped", " , vanilla,,  amber ,", Set{"vanilla", "amber"}},
		{"case sensitive", "Rose, rose", Set{"Rose", "rose"}},
		{"blank", "   ", Set{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestMerge(t *testing.T) {
	got := Merge(Set{"jasmine", "sandalwood"}, []string{"sandalwood", "vanilla"})
	assert.Equal(t, Set{"jasmine", "sandalwood", "vanilla"}, got)
}

func TestMerge_DoesNotMutateExisting(t *testing.T) {
	existing := Set{"jasmine"}
	_ = Merge(existing, []string{"oud"})
	assert.Equal(t, Set{"jasmine"}, existing)
}

func TestSerialize(t *testing.T) {
	assert.Equal(t, "jasmine, sandalwood", Serialize(Set{"jasmine", "sandalwood"}))
	assert.Equal(t, "", Serialize(Set{}))
}

func TestSerializeNormalizeRoundTrip(t *testing.T) {
	s := Normalize("oud,  musk , oud, iris")
	assert.Equal(t, s, Normalize(Serialize(s)))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(" \t\n"))
	assert.False(t, IsBlank(" musk "))
}
