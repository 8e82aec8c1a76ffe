package memory

import (
	"context"
	"sync"
	"time"

	"tesig/console/internal/session"
)

type Store struct {
	mu      sync.RWMutex
	records map[string]session.Record
}

func NewStore() *Store {
	return &Store{records: make(map[string]session.Record)}
}

func (s *Store) Save(_ context.Context, id string, record session.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.User = append([]byte(nil), record.User...)
	s.records[id] = record
	return nil
}

func (s *Store) Load(_ context.Context, id string) (session.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return session.Record{}, session.ErrNotFound
	}
	record.User = append([]byte(nil), record.User...)
	return record, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *Store) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, record := range s.records {
		if !record.ExpiresAt.IsZero() && !now.Before(record.ExpiresAt) {
			delete(s.records, id)
			removed++
		}
	}
	return removed, nil
}
