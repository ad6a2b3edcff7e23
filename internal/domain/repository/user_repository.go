package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/scent-recommender/internal/domain/entity"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// UserRepository defines the credential-side operations on user records.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
}

// PreferenceRepository reads and writes the preferences sub-record of a user.
// Update is a read-modify-write transaction: fn receives the committed record
// and the whole record is written back when fn returns nil.
type PreferenceRepository interface {
	Load(ctx context.Context, username string) (entity.PreferenceRecord, error)
	Update(ctx context.Context, username string, fn func(*entity.PreferenceRecord) error) (entity.PreferenceRecord, error)
}
