package session

import (
	"context"
	"errors"
	"time"

	"tesig/console/internal/models"
)

var ErrNotFound = errors.New("session not found")

// Record is the persisted form of a session: the bearer token and the
// serialized user record, stored side by side under one session id.
type Record struct {
	Token     string
	User      []byte
	ExpiresAt time.Time
}

type Store interface {
	Save(ctx context.Context, id string, record Record) error
	Load(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
}

// Sweeper is implemented by stores that do not expire records on their own.
type Sweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Session struct {
	ID        string
	Token     string
	User      models.User
	ExpiresAt time.Time
}

func (s *Session) IsAuthenticated() bool {
	if s == nil || s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || time.Now().Before(s.ExpiresAt)
}

func (s *Session) CurrentUser() (models.User, bool) {
	if !s.IsAuthenticated() {
		return models.User{}, false
	}
	return s.User, true
}

func (s *Session) HasRole(role models.Role) bool {
	return s.IsAuthenticated() && s.User.HasRole(role)
}

func (s *Session) HasAnyRole(roles ...models.Role) bool {
	return s.IsAuthenticated() && s.User.HasAnyRole(roles...)
}

type contextKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	if !ok || s == nil {
		return nil, false
	}
	return s, true
}
