package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	profile   Profile
	expiresAt time.Time
}

// MemoryStore is an in-process Store for local runs and tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	byUser   map[int]map[string]struct{}
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		byUser:   make(map[int]map[string]struct{}),
		now:      time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, id string, profile Profile, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = memoryEntry{profile: profile, expiresAt: s.now().Add(ttl)}
	ids, ok := s.byUser[profile.ID]
	if !ok {
		ids = make(map[string]struct{})
		s.byUser[profile.ID] = ids
	}
	ids[id] = struct{}{}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return Profile{}, ErrNoSession
	}
	if s.now().After(entry.expiresAt) {
		s.remove(id)
		return Profile{}, ErrNoSession
	}
	return entry.profile, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remove(id)
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.byUser[userID] {
		delete(s.sessions, id)
	}
	delete(s.byUser, userID)
	return nil
}

// remove drops id from both maps. Callers hold mu.
func (s *MemoryStore) remove(id string) {
	entry, ok := s.sessions[id]
	if !ok {
		return
	}
	delete(s.sessions, id)
	if ids := s.byUser[entry.profile.ID]; ids != nil {
		delete(ids, id)
		if len(ids) == 0 {
			delete(s.byUser, entry.profile.ID)
		}
	}
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of live entries, expired ones included until next Load.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
