package wallet

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

var ErrCredentialNotFound = errors.New("credential not found")

// Vault is the opaque secret store credentials live in. Implementations are
// expected to encrypt at rest; the wallet only sees opaque bytes per key.
type Vault interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Keys() ([]string, error)
}

// MemoryVault is an in-process Vault for tests and the demo CLI.
type MemoryVault struct {
	mu      sync.RWMutex
	entries map[string][]byte
	order   []string
}

func NewMemoryVault() *MemoryVault {
	return &MemoryVault{entries: make(map[string][]byte)}
}

func (v *MemoryVault) Get(key string) ([]byte, bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	b, ok := v.entries[key]
	return b, ok, nil
}

func (v *MemoryVault) Set(key string, value []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.entries[key]; !ok {
		v.order = append(v.order, key)
	}
	v.entries[key] = value
	return nil
}

func (v *MemoryVault) Delete(key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.entries[key]; ok {
		delete(v.entries, key)
		for i, k := range v.order {
			if k == key {
				v.order = append(v.order[:i], v.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (v *MemoryVault) Keys() ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	keys := make([]string, len(v.order))
	copy(keys, v.order)
	return keys, nil
}

// CredentialStore persists credentials as CBOR records inside a Vault,
// preserving insertion order across listings.
type CredentialStore struct {
	vault Vault
}

func NewCredentialStore(vault Vault) *CredentialStore {
	return &CredentialStore{vault: vault}
}

func (s *CredentialStore) Add(cred *Credential) error {
	b, err := cbor.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %v", err)
	}
	return s.vault.Set(credentialKey(cred.ID), b)
}

func (s *CredentialStore) Get(id string) (*Credential, error) {
	b, ok, err := s.vault.Get(credentialKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCredentialNotFound
	}

	cred := &Credential{}
	if err := cbor.Unmarshal(b, cred); err != nil {
		return nil, fmt.Errorf("failed to decode credential: %v", err)
	}
	return cred, nil
}

func (s *CredentialStore) Remove(id string) error {
	return s.vault.Delete(credentialKey(id))
}

// List returns all stored credentials in insertion order.
func (s *CredentialStore) List() ([]*Credential, error) {
	keys, err := s.vault.Keys()
	if err != nil {
		return nil, err
	}

	creds := make([]*Credential, 0, len(keys))
	for _, key := range keys {
		b, ok, err := s.vault.Get(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		cred := &Credential{}
		if err := cbor.Unmarshal(b, cred); err != nil {
			return nil, fmt.Errorf("failed to decode credential %s: %v", key, err)
		}
		creds = append(creds, cred)
	}
	return creds, nil
}

func credentialKey(id string) string {
	return "credential_" + id
}
