package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand_MergesWithoutDuplicates(t *testing.T) {
	model, prompts := staticModel("sandalwood, vanilla , tonka", nil)
	e := NewExpander(model, nil)

	got, err := e.Expand(context.Background(), "jasmine, sandalwood, jasmine")
	require.NoError(t, err)
	assert.Equal(t, "jasmine, sandalwood, vanilla, tonka", got)
	require.Len(t, *prompts, 1)
	assert.Contains(t, (*prompts)[0], "Given the list of scents: jasmine, sandalwood, jasmine,")
}

func TestExpand_EmptyResponseIsDegenerateSuccess(t *testing.T) {
	model, _ := staticModel("   ", nil)
	e := NewExpander(model, nil)

	got, err := e.Expand(context.Background(), "oud,amber")
	require.NoError(t, err)
	assert.Equal(t, "oud, amber", got)
}

func TestExpand_BlankScents(t *testing.T) {
	model, prompts := staticModel("musk", nil)
	e := NewExpander(model, nil)

	got, err := e.Expand(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyScents)
	assert.Equal(t, " ", got)
	assert.Empty(t, *prompts)
}

func TestExpand_Failures(t *testing.T) {
	model, _ := staticModel("", errors.New("timeout"))
	_, err := NewExpander(model, nil).Expand(context.Background(), "oud")
	assert.ErrorIs(t, err, ErrModelInvocation)

	model, _ = staticModel("Sure! Since you enjoy oud I would gently suggest leaning into warmer resinous accords:\nmusk, amber", nil)
	_, err = NewExpander(model, nil).Expand(context.Background(), "oud")
	assert.ErrorIs(t, err, ErrScentExpansionParse)
}

func TestParseScentNotes(t *testing.T) {
	notes, err := ParseScentNotes("```\nbergamot, , neroli\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"bergamot", "neroli"}, notes)

	notes, err = ParseScentNotes("bergamot\nneroli, vetiver\r\n\namber")
	require.NoError(t, err)
	assert.Equal(t, []string{"bergamot", "neroli", "vetiver", "amber"}, notes)

	_, err = ParseScentNotes("a note that goes on and on and on describing every facet of the composition in prose")
	assert.ErrorIs(t, err, ErrScentExpansionParse)
}
