package application

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/scent-recommender/internal/domain/entity"
	repo "github.com/oksasatya/scent-recommender/internal/domain/repository"
	"github.com/oksasatya/scent-recommender/pkg/helpers"
)

// AuthService is the credential collaborator: it owns the password field of
// a user record and issues session tokens. It never touches preferences
// beyond creating the empty record at registration.
type AuthService struct {
	Repo   repo.UserRepository
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Events EventPublisher
	Logger *logrus.Logger
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

const sessionTTL = 24 * time.Hour

func SessionKey(username string) string {
	return "user:session:" + username
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func NewAuthService(r repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, events EventPublisher, logger *logrus.Logger) *AuthService {
	return &AuthService{Repo: r, JWT: jwt, Redis: rdb, Events: events, Logger: logger}
}

const minUsernameLength = 3

// Register creates a user with a bcrypt-hashed password and an empty
// preference record.
func (s *AuthService) Register(ctx context.Context, username, password, confirm string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	if utf8.RuneCountInString(username) < minUsernameLength {
		return nil, ErrInvalidUsername
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{Username: username, Password: hash, Preferences: entity.NewPreferenceRecord()}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			return nil, ErrUsernameTaken
		}
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("username", username).Error("create user failed")
		}
		return nil, err
	}
	if s.Events != nil {
		ev := entity.PreferenceEvent{
			ID:          uuid.NewString(),
			Username:    username,
			Action:      entity.ActionRegistered,
			Preferences: u.Preferences,
			OccurredAt:  time.Now().UTC(),
		}
		if err := s.Events.PublishJSON(ctx, ev); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("username", username).Warn("publish registration event failed")
		}
	}
	return u, nil
}

// Authenticate validates username/password without issuing tokens.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	u, err := s.Repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records the session in Redis.
func (s *AuthService) IssueTokens(ctx context.Context, username string) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.generatePair(username, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("username", username).Error("generate tokens failed")
		}
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := SessionKey(username)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"username":   username,
			"sid":        sid,
			"logged_in":  true,
			"created_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, sessionTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}
	return pair, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u.Username)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh validates a refresh token against the live session and rotates both tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if _, err := s.Repo.GetByUsername(ctx, claims.Username); err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	key := SessionKey(claims.Username)
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, key).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}

	sid := uuid.NewString()
	pair, err := s.generatePair(claims.Username, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"updated_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, sessionTTL)
		_, _ = pipe.Exec(ctx)
	}
	return pair, claims.Username, nil
}

// Logout drops the server-side session so outstanding tokens stop working.
func (s *AuthService) Logout(ctx context.Context, username string) error {
	if s.Redis == nil {
		return nil
	}
	return helpers.RedisDel(ctx, s.Redis, SessionKey(username))
}

func (s *AuthService) generatePair(username, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(username, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(username, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}
