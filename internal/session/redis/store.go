package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tesig/console/internal/session"

	goredis "github.com/redis/go-redis/v9"
)

const (
	tokenPrefix = "tesig_token:"
	userPrefix  = "tesig_user:"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

func NewClient(ctx context.Context, cfg Config) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// Store keeps the token and the user record under two keys that share
// the session's expiry.
type Store struct {
	client goredis.UniversalClient
}

func NewStore(client goredis.UniversalClient) *Store {
	return &Store{client: client}
}

func (s *Store) Save(ctx context.Context, id string, record session.Record) error {
	ttl := time.Until(record.ExpiresAt)
	if record.ExpiresAt.IsZero() {
		ttl = 0
	} else if ttl <= 0 {
		return s.Delete(ctx, id)
	}
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, tokenPrefix+id, record.Token, ttl)
		pipe.Set(ctx, userPrefix+id, record.User, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id string) (session.Record, error) {
	var tokenCmd, userCmd *goredis.StringCmd
	var ttlCmd *goredis.DurationCmd
	_, err := s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		tokenCmd = pipe.Get(ctx, tokenPrefix+id)
		userCmd = pipe.Get(ctx, userPrefix+id)
		ttlCmd = pipe.PTTL(ctx, tokenPrefix+id)
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return session.Record{}, fmt.Errorf("redis load session: %w", err)
	}

	token, err := tokenCmd.Result()
	if errors.Is(err, goredis.Nil) {
		return session.Record{}, session.ErrNotFound
	}
	if err != nil {
		return session.Record{}, fmt.Errorf("redis load token: %w", err)
	}
	user, err := userCmd.Bytes()
	if errors.Is(err, goredis.Nil) {
		return session.Record{}, session.ErrNotFound
	}
	if err != nil {
		return session.Record{}, fmt.Errorf("redis load user: %w", err)
	}

	record := session.Record{Token: token, User: user}
	if ttl, err := ttlCmd.Result(); err == nil && ttl > 0 {
		record.ExpiresAt = time.Now().Add(ttl)
	}
	return record, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, tokenPrefix+id, userPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
