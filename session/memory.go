package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore keeps sessions in a process-local map. Suitable for single
// instance deployments and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = sess
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok || sess.Expired(s.now()) {
		return nil, ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *MemoryStore) Complete(ctx context.Context, id string, proof json.RawMessage, proofHash string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.Expired(s.now()) {
		return nil, ErrNotFound
	}
	if sess.Status == StatusCompleted {
		if sess.ProofHash == proofHash {
			return nil, ErrDuplicateProof
		}
		return nil, ErrAlreadyCompleted
	}

	sess.Status = StatusCompleted
	sess.Proof = proof
	sess.ProofHash = proofHash

	cp := *sess
	return &cp, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) DeleteExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	deleted := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}
