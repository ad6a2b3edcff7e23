package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/scent-recommender/internal/domain/entity"
	repo "github.com/oksasatya/scent-recommender/internal/domain/repository"
)

// EventPublisher receives a JSON-encodable event after each committed change.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Session is the explicit per-user context every preference operation runs
// against. Prefs mirrors the last committed record.
type Session struct {
	Username string
	Prefs    entity.PreferenceRecord
	OpenedAt time.Time
}

// PreferenceService owns the preference state transitions. Every mutation is
// committed through PreferenceRepository.Update before Session.Prefs changes.
type PreferenceService struct {
	Repo        repo.PreferenceRepository
	Recommender *Recommender
	Expander    *Expander
	Events      EventPublisher
	Logger      *logrus.Logger

	inflight sync.Map
	now      func() time.Time
}

func NewPreferenceService(r repo.PreferenceRepository, rec *Recommender, exp *Expander, events EventPublisher, logger *logrus.Logger) *PreferenceService {
	return &PreferenceService{
		Repo:        r,
		Recommender: rec,
		Expander:    exp,
		Events:      events,
		Logger:      logger,
		now:         time.Now,
	}
}

// Open loads the committed record for username.
func (s *PreferenceService) Open(ctx context.Context, username string) (*Session, error) {
	prefs, err := s.Repo.Load(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &Session{Username: username, Prefs: prefs, OpenedAt: s.now().UTC()}, nil
}

// SaveScents persists raw scent text as typed.
func (s *PreferenceService) SaveScents(ctx context.Context, sess *Session, text string) error {
	return s.commit(ctx, sess, entity.ActionScentsSaved, "", func(p *entity.PreferenceRecord) error {
		p.Scents = text
		return nil
	})
}

// Recommend replaces suggestions with a fresh model result for sess.Prefs.Scents.
// Blank scents are a no-op returning the current suggestions. On any failure
// the committed record is untouched.
func (s *PreferenceService) Recommend(ctx context.Context, sess *Session) ([]entity.Suggestion, error) {
	release, err := s.acquire(sess.Username)
	if err != nil {
		return nil, err
	}
	defer release()

	scents := sess.Prefs.Scents
	next, err := s.Recommender.Recommend(ctx, scents, sess.Prefs.LikedNames(), sess.Prefs.DislikedNames())
	if errors.Is(err, ErrEmptyScents) {
		return sess.Prefs.Suggestions, nil
	}
	if err != nil {
		s.logFailure(err, sess, "recommendation failed")
		return nil, err
	}

	err = s.commit(ctx, sess, entity.ActionRecommended, "", func(p *entity.PreferenceRecord) error {
		p.Scents = scents
		p.ReplaceSuggestions(next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess.Prefs.Suggestions, nil
}

// ExpandScents merges model-suggested notes into sess.Prefs.Scents.
// Blank scents are a no-op.
func (s *PreferenceService) ExpandScents(ctx context.Context, sess *Session) (string, error) {
	release, err := s.acquire(sess.Username)
	if err != nil {
		return "", err
	}
	defer release()

	updated, err := s.Expander.Expand(ctx, sess.Prefs.Scents)
	if errors.Is(err, ErrEmptyScents) {
		return sess.Prefs.Scents, nil
	}
	if err != nil {
		s.logFailure(err, sess, "scent expansion failed")
		return "", err
	}

	err = s.commit(ctx, sess, entity.ActionScentsExpanded, "", func(p *entity.PreferenceRecord) error {
		p.Scents = updated
		return nil
	})
	if err != nil {
		return "", err
	}
	return sess.Prefs.Scents, nil
}

// ToggleFavorite reports whether item is a favorite after the toggle.
func (s *PreferenceService) ToggleFavorite(ctx context.Context, sess *Session, item entity.Suggestion) (bool, error) {
	var favorite bool
	err := s.commit(ctx, sess, entity.ActionFavoriteToggle, item.Name, func(p *entity.PreferenceRecord) error {
		favorite = p.ToggleFavorite(item)
		return nil
	})
	return favorite, err
}

func (s *PreferenceService) RemoveFavorite(ctx context.Context, sess *Session, name string) error {
	return s.commit(ctx, sess, entity.ActionFavoriteRemove, name, func(p *entity.PreferenceRecord) error {
		p.RemoveFavorite(name)
		return nil
	})
}

func (s *PreferenceService) Like(ctx context.Context, sess *Session, item entity.Suggestion) error {
	return s.commit(ctx, sess, entity.ActionLiked, item.Name, func(p *entity.PreferenceRecord) error {
		p.Like(item)
		return nil
	})
}

func (s *PreferenceService) Dislike(ctx context.Context, sess *Session, item entity.Suggestion) error {
	return s.commit(ctx, sess, entity.ActionDisliked, item.Name, func(p *entity.PreferenceRecord) error {
		p.Dislike(item)
		return nil
	})
}

// ClearSession empties all five preference fields.
func (s *PreferenceService) ClearSession(ctx context.Context, sess *Session) error {
	return s.commit(ctx, sess, entity.ActionCleared, "", func(p *entity.PreferenceRecord) error {
		p.Clear()
		return nil
	})
}

func (s *PreferenceService) commit(ctx context.Context, sess *Session, action entity.PreferenceAction, item string, fn func(*entity.PreferenceRecord) error) error {
	prefs, err := s.Repo.Update(ctx, sess.Username, fn)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{"username": sess.Username, "action": action}).Error("persist preferences failed")
		}
		return err
	}
	sess.Prefs = prefs
	s.publish(ctx, sess.Username, action, item, prefs)
	return nil
}

func (s *PreferenceService) publish(ctx context.Context, username string, action entity.PreferenceAction, item string, prefs entity.PreferenceRecord) {
	if s.Events == nil {
		return
	}
	ev := entity.PreferenceEvent{
		ID:          uuid.NewString(),
		Username:    username,
		Action:      action,
		Item:        item,
		Preferences: prefs,
		OccurredAt:  s.now().UTC(),
	}
	c, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.Events.PublishJSON(c, ev); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"username": username, "action": action}).Warn("publish preference event failed")
	}
}

// acquire allows one synthesis per user; overlapping requests are rejected.
func (s *PreferenceService) acquire(username string) (func(), error) {
	if _, busy := s.inflight.LoadOrStore(username, struct{}{}); busy {
		return nil, ErrSynthesisInFlight
	}
	return func() { s.inflight.Delete(username) }, nil
}

func (s *PreferenceService) logFailure(err error, sess *Session, msg string) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithError(err).WithField("username", sess.Username).Warn(msg)
}
