package application

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/scent-recommender/internal/domain/scent"
)

// maxNoteLength bounds a single scent note; anything longer is prose, not a list.
const maxNoteLength = 64

// Expander asks the model for scent notes similar to the current set.
type Expander struct {
	Model  ModelInvoker
	Logger *logrus.Logger
}

func NewExpander(model ModelInvoker, logger *logrus.Logger) *Expander {
	return &Expander{Model: model, Logger: logger}
}

// Expand returns scents merged with the model's additions, serialized with
// ", ". An empty or fully duplicate response returns the normalized input.
func (e *Expander) Expand(ctx context.Context, scents string) (string, error) {
	if scent.IsBlank(scents) {
		return scents, ErrEmptyScents
	}

	raw, err := e.Model.Invoke(ctx, ExpansionPrompt(scents))
	if err != nil {
		return scents, fmt.Errorf("%w: %w", ErrModelInvocation, err)
	}

	additions, err := ParseScentNotes(raw)
	if err != nil {
		if e.Logger != nil {
			e.Logger.WithError(err).WithField("response", truncate(raw, 200)).Warn("discarding expansion response")
		}
		return scents, err
	}

	existing := scent.Normalize(scents)
	merged := scent.Merge(existing, additions)
	if e.Logger != nil {
		e.Logger.WithFields(logrus.Fields{"before": len(existing), "after": len(merged)}).Debug("scents expanded")
	}
	return scent.Serialize(merged), nil
}

// lineBreaks turns a one-note-per-line reply into a comma list.
var lineBreaks = strings.NewReplacer("\r\n", ",", "\n", ",", "\r", ",")

// ParseScentNotes splits a comma- or line-separated response into trimmed
// notes. A note longer than maxNoteLength means the model answered in prose,
// which is rejected with ErrScentExpansionParse.
func ParseScentNotes(raw string) ([]string, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, nil
	}
	notes := scent.Split(lineBreaks.Replace(body))
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		if n == "" {
			continue
		}
		if utf8.RuneCountInString(n) > maxNoteLength {
			return nil, fmt.Errorf("%w: note %q too long", ErrScentExpansionParse, truncate(n, 40))
		}
		out = append(out, n)
	}
	return out, nil
}
