package zk

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// EnvVerificationKey names the environment variable holding the fallback
// verification key: either base64-encoded JSON or a file:// path.
const EnvVerificationKey = "ZK_VERIFICATION_KEY"

// Registry holds one verification key per credential type, loaded once per
// process from a backing store. A single environment-supplied key may serve
// as a fallback for any type in single-circuit deployments.
type Registry struct {
	mu     sync.RWMutex
	store  KeyStore
	logger *zap.Logger

	keys   map[string]*VerificationKey
	loaded bool

	fallback       *VerificationKey
	fallbackLoaded bool
}

func NewRegistry(store KeyStore, logger *zap.Logger) *Registry {
	return &Registry{
		store:  store,
		logger: logger,
		keys:   make(map[string]*VerificationKey),
	}
}

// LoadFromStore populates the in-memory map from the backing store. It is a
// no-op after the first successful population; call Reset to force a reload.
func (r *Registry) LoadFromStore(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked(ctx)
}

func (r *Registry) loadLocked(ctx context.Context) error {
	if r.loaded {
		return nil
	}

	types, err := r.store.ListCredentialTypes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list credential types: %w", err)
	}
	for _, credType := range types {
		key, err := r.store.GetVerificationKey(ctx, credType)
		if err != nil {
			return fmt.Errorf("failed to load verification key for %q: %w", credType, err)
		}
		if key != nil {
			r.keys[credType] = key
			r.logger.Info("loaded verification key", zap.String("credential_type", credType))
		}
	}

	r.loaded = true
	r.logger.Info("verification key registry initialized", zap.Int("keys", len(r.keys)))
	return nil
}

// GetKey returns the verification key for a credential type, falling back to
// the environment-supplied key when the store has none. A nil key with a nil
// error means verification is disabled for that type.
func (r *Registry) GetKey(ctx context.Context, credentialType string) (*VerificationKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		if err := r.loadLocked(ctx); err != nil {
			return nil, err
		}
	}
	if key, ok := r.keys[credentialType]; ok {
		return key, nil
	}

	if err := r.loadFallbackLocked(); err != nil {
		return nil, err
	}
	return r.fallback, nil
}

func (r *Registry) loadFallbackLocked() error {
	if r.fallbackLoaded {
		return nil
	}

	source := os.Getenv(EnvVerificationKey)
	if source == "" {
		r.fallbackLoaded = true
		return nil
	}

	var data []byte
	if strings.HasPrefix(source, "file://") {
		b, err := os.ReadFile(strings.TrimPrefix(source, "file://"))
		if err != nil {
			return fmt.Errorf("failed to read fallback verification key file: %v", err)
		}
		data = b
	} else {
		b, err := base64.StdEncoding.DecodeString(source)
		if err != nil {
			return fmt.Errorf("failed to decode fallback verification key: %v", err)
		}
		data = b
	}

	key := &VerificationKey{}
	if err := json.Unmarshal(data, key); err != nil {
		return fmt.Errorf("failed to parse fallback verification key: %v", err)
	}
	// Marked loaded only on success; a transient failure above keeps
	// erroring on later calls instead of silently disabling verification.
	r.fallback = key
	r.fallbackLoaded = true
	r.logger.Info("fallback verification key loaded from environment")
	return nil
}

// SupportedTypes lists the credential types with a registry-backed key,
// sorted. Fallback coverage is deliberately excluded; this reports
// verification readiness, not reachability.
func (r *Registry) SupportedTypes(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		if err := r.loadLocked(ctx); err != nil {
			return nil, err
		}
	}

	types := make([]string, 0, len(r.keys))
	for t := range r.keys {
		types = append(types, t)
	}
	sort.Strings(types)
	return types, nil
}

// Enabled reports whether a key is available for the credential type,
// fallback included.
func (r *Registry) Enabled(ctx context.Context, credentialType string) (bool, error) {
	key, err := r.GetKey(ctx, credentialType)
	if err != nil {
		return false, err
	}
	return key != nil, nil
}

// Reset drops all cached keys so the next access reloads. Intended for tests
// and operational key rotation.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.keys = make(map[string]*VerificationKey)
	r.loaded = false
	r.fallback = nil
	r.fallbackLoaded = false
}
