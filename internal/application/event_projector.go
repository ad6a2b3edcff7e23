package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/scent-recommender/internal/domain/entity"
)

// ErrBadEvent marks a message that can never be processed.
var ErrBadEvent = errors.New("malformed preference event")

// SnapshotIndexer stores the latest snapshot per user for search.
type SnapshotIndexer interface {
	Put(ctx context.Context, ev entity.PreferenceEvent) error
}

// SnapshotArchiver keeps every snapshot and returns where it was written.
// Purge drops all snapshots of a user.
type SnapshotArchiver interface {
	Put(ctx context.Context, ev entity.PreferenceEvent) (string, error)
	Purge(ctx context.Context, username string) (int, error)
}

// EventProjector applies published preference events to the search index
// and the archive. Either sink may be nil.
type EventProjector struct {
	Index   SnapshotIndexer
	Archive SnapshotArchiver
	Logger  *logrus.Logger
}

func NewEventProjector(index SnapshotIndexer, archive SnapshotArchiver, logger *logrus.Logger) *EventProjector {
	return &EventProjector{Index: index, Archive: archive, Logger: logger}
}

// Handle decodes one message body and projects it. ErrBadEvent means the
// message should be dropped; any other error means it may be retried.
func (p *EventProjector) Handle(ctx context.Context, body []byte) error {
	var ev entity.PreferenceEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	if ev.Username == "" || ev.Action == "" {
		return fmt.Errorf("%w: missing username or action", ErrBadEvent)
	}
	ev.Preferences.Normalize()

	fields := logrus.Fields{"event_id": ev.ID, "username": ev.Username, "action": ev.Action}
	if p.Index != nil {
		if err := p.Index.Put(ctx, ev); err != nil {
			return fmt.Errorf("index snapshot: %w", err)
		}
	}
	switch {
	case p.Archive == nil:
	case ev.Action == entity.ActionCleared:
		// A cleared session leaves no history behind.
		n, err := p.Archive.Purge(ctx, ev.Username)
		if err != nil {
			return fmt.Errorf("purge snapshots: %w", err)
		}
		fields["purged"] = n
	default:
		url, err := p.Archive.Put(ctx, ev)
		if err != nil {
			return fmt.Errorf("archive snapshot: %w", err)
		}
		fields["object"] = url
	}
	if p.Logger != nil {
		p.Logger.WithFields(fields).Info("preference event projected")
	}
	return nil
}
