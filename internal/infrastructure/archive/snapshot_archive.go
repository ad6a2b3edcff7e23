// Package archive writes preference snapshots to Google Cloud Storage.
package archive

import (
	"bytes"
	"context"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/goccy/go-json"

	"github.com/oksasatya/scent-recommender/internal/domain/entity"
	"github.com/oksasatya/scent-recommender/pkg/helpers"
)

type SnapshotArchive struct {
	Client *storage.Client
	Bucket string
}

func NewSnapshotArchive(client *storage.Client, bucket string) *SnapshotArchive {
	return &SnapshotArchive{Client: client, Bucket: bucket}
}

// UserPrefix is the folder holding every snapshot of username.
func UserPrefix(username string) string {
	return path.Join("preferences", username) + "/"
}

// ObjectPath is preferences/<username>/<yyyymmddThhmmss>-<event id>.json, so
// a user's snapshots list in time order.
func ObjectPath(ev entity.PreferenceEvent) string {
	stamp := ev.OccurredAt.UTC().Format("20060102T150405.000000000")
	return UserPrefix(ev.Username) + stamp + "-" + ev.ID + ".json"
}

// Put uploads ev as JSON and returns the object URL.
func (a *SnapshotArchive) Put(ctx context.Context, ev entity.PreferenceEvent) (string, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return helpers.UploadObject(c, a.Client, a.Bucket, ObjectPath(ev), "application/json", bytes.NewReader(b))
}

// Purge deletes every archived snapshot of username.
func (a *SnapshotArchive) Purge(ctx context.Context, username string) (int, error) {
	c, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return helpers.DeletePrefix(c, a.Client, a.Bucket, UserPrefix(username))
}
