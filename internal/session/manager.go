package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tesig/console/internal/gateway"
	"tesig/console/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Authenticator interface {
	Login(ctx context.Context, creds gateway.Credentials) (gateway.LoginResult, error)
}

type Options struct {
	TTL    time.Duration
	Logger *zap.Logger
}

// Manager is the only writer of sessions. Request handlers receive
// read-only snapshots through the request context.
type Manager struct {
	store  Store
	auth   Authenticator
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewManager(store Store, auth Authenticator, opts Options) *Manager {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  store,
		auth:   auth,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

func (m *Manager) Login(ctx context.Context, creds gateway.Credentials) (*Session, error) {
	result, err := m.auth.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if !result.Usuario.Rol.Valid() {
		return nil, fmt.Errorf("login: unknown role %q", result.Usuario.Rol)
	}

	userRecord, err := json.Marshal(result.Usuario)
	if err != nil {
		return nil, fmt.Errorf("login: encode user: %w", err)
	}

	s := &Session{
		ID:        uuid.NewString(),
		Token:     result.Token,
		User:      result.Usuario,
		ExpiresAt: m.expiry(result.Token),
	}
	if err := m.store.Save(ctx, s.ID, Record{Token: s.Token, User: userRecord, ExpiresAt: s.ExpiresAt}); err != nil {
		return nil, fmt.Errorf("login: save session: %w", err)
	}
	m.logger.Info("session opened", zap.String("session_id", s.ID), zap.Int64("user_id", s.User.ID), zap.String("role", string(s.User.Rol)))
	return s, nil
}

// expiry caps the session lifetime at the token's exp claim. The token
// signature is not checked here.
func (m *Manager) expiry(token string) time.Time {
	limit := m.now().Add(m.ttl)
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return limit
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return limit
	}
	if exp.Time.Before(limit) {
		return exp.Time
	}
	return limit
}

func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	record, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !record.ExpiresAt.IsZero() && !m.now().Before(record.ExpiresAt) {
		_ = m.store.Delete(ctx, id)
		return nil, ErrNotFound
	}
	var user models.User
	if err := json.Unmarshal(record.User, &user); err != nil {
		_ = m.store.Delete(ctx, id)
		return nil, fmt.Errorf("load session: decode user: %w", err)
	}
	return &Session{ID: id, Token: record.Token, User: user, ExpiresAt: record.ExpiresAt}, nil
}

func (m *Manager) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("logout: %w", err)
	}
	m.logger.Info("session closed", zap.String("session_id", id))
	return nil
}

// Expire drops a session the API no longer accepts.
func (m *Manager) Expire(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	m.logger.Info("session rejected by api", zap.String("session_id", id))
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("expire session: %w", err)
	}
	return nil
}

// Sweep removes expired records from stores that keep them around.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	sweeper, ok := m.store.(Sweeper)
	if !ok {
		return 0, nil
	}
	return sweeper.DeleteExpired(ctx, m.now())
}
