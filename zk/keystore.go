package zk

import (
	"context"
	"sync"
)

// VerificationKey is a groth16 verification key in the snarkjs export shape.
type VerificationKey struct {
	Protocol string     `json:"protocol"`
	Curve    string     `json:"curve"`
	NPublic  int        `json:"nPublic"`
	VkAlpha1 []string   `json:"vk_alpha_1"`
	VkBeta2  [][]string `json:"vk_beta_2"`
	VkGamma2 [][]string `json:"vk_gamma_2"`
	VkDelta2 [][]string `json:"vk_delta_2"`
	IC       [][]string `json:"IC"`
}

// KeyStore is the backing store the registry loads verification keys from,
// one key per credential type.
type KeyStore interface {
	ListCredentialTypes(ctx context.Context) ([]string, error)
	GetVerificationKey(ctx context.Context, credentialType string) (*VerificationKey, error)
}

// MemoryKeyStore is a KeyStore over a plain map.
type MemoryKeyStore struct {
	mu   sync.RWMutex
	keys map[string]*VerificationKey
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{
		keys: make(map[string]*VerificationKey),
	}
}

func (s *MemoryKeyStore) Put(credentialType string, key *VerificationKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[credentialType] = key
}

func (s *MemoryKeyStore) ListCredentialTypes(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.keys))
	for t := range s.keys {
		types = append(types, t)
	}
	return types, nil
}

func (s *MemoryKeyStore) GetVerificationKey(ctx context.Context, credentialType string) (*VerificationKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.keys[credentialType], nil
}
