package search

import (
	"sync"
	"time"
)

// Sequencer remembers the newest request number seen per key so that a
// slow, older search can be recognised and dropped.
type Sequencer struct {
	mu     sync.Mutex
	latest map[string]entry
	idle   time.Duration
	now    func() time.Time
}

type entry struct {
	seq  uint64
	seen time.Time
}

func NewSequencer(idle time.Duration) *Sequencer {
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &Sequencer{
		latest: make(map[string]entry),
		idle:   idle,
		now:    time.Now,
	}
}

// Key scopes sequence numbers to one page load of a screen. Every page
// load numbers its requests from 1, so a reload must not inherit the high
// mark of the page it replaced.
func Key(session, screen, view string) string {
	key := session + ":" + screen
	if view != "" {
		key += ":" + view
	}
	return key
}

// Begin registers seq for key. It returns false when a newer request for
// the same key has already been registered.
func (s *Sequencer) Begin(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.latest[key]
	if ok && current.seq > seq {
		return false
	}
	s.latest[key] = entry{seq: seq, seen: s.now()}
	return true
}

// Current reports whether seq is still the newest request for key.
func (s *Sequencer) Current(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.latest[key]
	return !ok || current.seq == seq
}

func (s *Sequencer) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.idle)
	removed := 0
	for key, e := range s.latest {
		if e.seen.Before(cutoff) {
			delete(s.latest, key)
			removed++
		}
	}
	return removed
}
