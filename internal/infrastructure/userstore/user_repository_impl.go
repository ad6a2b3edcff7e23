// Package userstore keeps every user record inside one KV value: a JSON map
// from username to {password, preferences}.
package userstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/oksasatya/scent-recommender/internal/domain/entity"
	"github.com/oksasatya/scent-recommender/internal/domain/repository"
)

// DefaultKey is the KV key holding the users map.
const DefaultKey = "users"

// ErrCorruptRecord means the stored users value is not a JSON object.
var ErrCorruptRecord = errors.New("corrupt users record")

type usersDoc map[string]json.RawMessage

// UserRepository implements both the credential and the preference
// repositories on top of a KVStore. Writes go through KVStore.Update, so each
// change is a read-modify-write of the whole users value.
type UserRepository struct {
	kv  repository.KVStore
	key string
}

func NewUserRepository(kv repository.KVStore, key string) *UserRepository {
	if key == "" {
		key = DefaultKey
	}
	return &UserRepository{kv: kv, key: key}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	u.Preferences.Normalize()
	return r.kv.Update(ctx, r.key, func(current []byte, found bool) ([]byte, error) {
		doc, err := decodeUsers(current, found)
		if err != nil {
			return nil, err
		}
		if _, exists := doc[u.Username]; exists {
			return nil, repository.ErrAlreadyExists
		}
		entry, err := json.Marshal(u)
		if err != nil {
			return nil, err
		}
		doc[u.Username] = entry
		return json.Marshal(doc)
	})
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	raw, found, err := r.kv.Get(ctx, r.key)
	if err != nil {
		return nil, err
	}
	doc, err := decodeUsers(raw, found)
	if err != nil {
		return nil, err
	}
	entry, ok := doc[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := &entity.User{}
	if err := json.Unmarshal(entry, u); err != nil {
		return nil, fmt.Errorf("%w: user %q: %v", ErrCorruptRecord, username, err)
	}
	u.Username = username
	u.Preferences.Normalize()
	return u, nil
}

func (r *UserRepository) Load(ctx context.Context, username string) (entity.PreferenceRecord, error) {
	u, err := r.GetByUsername(ctx, username)
	if err != nil {
		return entity.PreferenceRecord{}, err
	}
	return u.Preferences, nil
}

// Update rewrites only the preferences field of username's entry; the
// credential field and other users are carried over byte for byte.
func (r *UserRepository) Update(ctx context.Context, username string, fn func(*entity.PreferenceRecord) error) (entity.PreferenceRecord, error) {
	var committed entity.PreferenceRecord
	err := r.kv.Update(ctx, r.key, func(current []byte, found bool) ([]byte, error) {
		doc, err := decodeUsers(current, found)
		if err != nil {
			return nil, err
		}
		entry, ok := doc[username]
		if !ok {
			return nil, repository.ErrNotFound
		}
		fields := map[string]json.RawMessage{}
		if err := json.Unmarshal(entry, &fields); err != nil {
			return nil, fmt.Errorf("%w: user %q: %v", ErrCorruptRecord, username, err)
		}

		prefs := entity.NewPreferenceRecord()
		if raw, ok := fields["preferences"]; ok && !isNull(raw) {
			if err := json.Unmarshal(raw, &prefs); err != nil {
				return nil, fmt.Errorf("%w: preferences of %q: %v", ErrCorruptRecord, username, err)
			}
		}
		prefs.Normalize()

		if err := fn(&prefs); err != nil {
			return nil, err
		}
		prefs.Normalize()

		encoded, err := json.Marshal(prefs)
		if err != nil {
			return nil, err
		}
		fields["preferences"] = encoded
		if doc[username], err = json.Marshal(fields); err != nil {
			return nil, err
		}
		committed = prefs
		return json.Marshal(doc)
	})
	if err != nil {
		return entity.PreferenceRecord{}, err
	}
	return committed, nil
}

func decodeUsers(raw []byte, found bool) (usersDoc, error) {
	doc := usersDoc{}
	if !found || isNull(raw) {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if doc == nil {
		doc = usersDoc{}
	}
	return doc, nil
}

func isNull(raw []byte) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

var (
	_ repository.UserRepository       = (*UserRepository)(nil)
	_ repository.PreferenceRepository = (*UserRepository)(nil)
)
