package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	session  Session
	lastSeen time.Time
}

// MemoryStore keeps sessions in process memory. Sessions idle longer
// than the configured TTL are evicted by a background janitor so
// abandoned flows do not accumulate.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]*memoryEntry
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates the store and starts its eviction janitor.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[int64]*memoryEntry),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) Begin(ctx context.Context, userID int64, flow, step string, seed map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = &memoryEntry{
		session: Session{
			Flow:    flow,
			Step:    step,
			Answers: seedAnswers(seed),
		},
		lastSeen: time.Now(),
	}
	return nil
}

func (s *MemoryStore) SetAnswer(ctx context.Context, userID int64, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[userID]
	if !ok {
		return ErrNoActiveFlow()
	}
	entry.session.Answers[field] = value
	entry.lastSeen = time.Now()
	return nil
}

func (s *MemoryStore) Advance(ctx context.Context, userID int64, step string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[userID]
	if !ok {
		return ErrNoActiveFlow()
	}
	entry.session.Step = step
	entry.lastSeen = time.Now()
	return nil
}

func (s *MemoryStore) Snapshot(ctx context.Context, userID int64) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[userID]
	if !ok {
		return Session{}, ErrNoActiveFlow()
	}
	snap := Session{
		Flow:    entry.session.Flow,
		Step:    entry.session.Step,
		Answers: seedAnswers(entry.session.Answers),
	}
	return snap, nil
}

func (s *MemoryStore) Clear(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

// Close stops the eviction janitor.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) janitor() {
	interval := s.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictIdle(time.Now())
		}
	}
}

func (s *MemoryStore) evictIdle(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, entry := range s.sessions {
		if now.Sub(entry.lastSeen) > s.ttl {
			delete(s.sessions, userID)
		}
	}
}
