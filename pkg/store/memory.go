package store

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process memory. It backs tests and
// single-node deployments that do not need durable profiles.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*UserRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*UserRecord)}
}

func (s *MemoryStore) FindOrCreateUser(ctx context.Context, identity string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[identity]
	if !ok {
		u = &UserRecord{Identity: identity, Bean: DefaultBean}
		s.users[identity] = u
	}
	out := *u
	return &out, nil
}

func (s *MemoryStore) UpdateStats(ctx context.Context, identity string, won bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(identity)
	if won {
		u.Wins++
	} else {
		u.Losses++
	}
	return nil
}

func (s *MemoryStore) UpdateBalance(ctx context.Context, identity string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(identity).Bean += delta
	return nil
}

func (s *MemoryStore) UpdateNickname(ctx context.Context, identity, nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(identity).Nickname = nickname
	return nil
}

func (s *MemoryStore) user(identity string) *UserRecord {
	u, ok := s.users[identity]
	if !ok {
		u = &UserRecord{Identity: identity, Bean: DefaultBean}
		s.users[identity] = u
	}
	return u
}
