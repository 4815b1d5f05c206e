package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRegistry struct {
	calls   int
	revoked bool
	err     error
}

func (r *fakeRegistry) CheckRevocation(ctx context.Context, revocationID string) (bool, error) {
	r.calls++
	return r.revoked, r.err
}

func revocableCredential(id string) *Credential {
	return &Credential{ID: id, Type: "Age Verification", RevocationID: "rev-" + id}
}

func TestRevocationChecker_NoRevocationID(t *testing.T) {
	registry := &fakeRegistry{}
	checker := NewRevocationChecker(registry, zap.NewNop())

	result := checker.Check(context.Background(), &Credential{ID: "plain"})
	require.Equal(t, RevocationValid, result.Status)
	require.False(t, result.IsRevoked)
	require.Zero(t, registry.calls)
}

func TestRevocationChecker_CacheHitSkipsRegistry(t *testing.T) {
	registry := &fakeRegistry{}
	checker := NewRevocationChecker(registry, zap.NewNop())
	cred := revocableCredential("c1")

	first := checker.Check(context.Background(), cred)
	require.Equal(t, RevocationValid, first.Status)
	require.Equal(t, 1, registry.calls)

	second := checker.Check(context.Background(), cred)
	require.Equal(t, first.CheckedAt, second.CheckedAt)
	require.Equal(t, 1, registry.calls)
}

func TestRevocationChecker_RefreshAfterWindow(t *testing.T) {
	registry := &fakeRegistry{}
	checker := NewRevocationChecker(registry, zap.NewNop())
	cred := revocableCredential("c1")

	now := time.Now()
	checker.now = func() time.Time { return now }
	checker.Check(context.Background(), cred)
	require.Equal(t, 1, registry.calls)

	checker.now = func() time.Time { return now.Add(RevocationCacheTTL + time.Minute) }
	result := checker.Check(context.Background(), cred)
	require.Equal(t, 2, registry.calls)
	require.Equal(t, RevocationValid, result.Status)
}

func TestRevocationChecker_Revoked(t *testing.T) {
	registry := &fakeRegistry{revoked: true}
	checker := NewRevocationChecker(registry, zap.NewNop())

	result := checker.Check(context.Background(), revocableCredential("c1"))
	require.Equal(t, RevocationRevoked, result.Status)
	require.True(t, result.IsRevoked)
}

func TestRevocationChecker_FailureIsUnknownNotRevoked(t *testing.T) {
	registry := &fakeRegistry{err: errors.New("registry unreachable")}
	checker := NewRevocationChecker(registry, zap.NewNop())
	cred := revocableCredential("c1")

	result := checker.Check(context.Background(), cred)
	require.Equal(t, RevocationUnknown, result.Status)
	require.False(t, result.IsRevoked)

	// Failures are not cached; the next check consults the registry again.
	registry.err = nil
	result = checker.Check(context.Background(), cred)
	require.Equal(t, RevocationValid, result.Status)
	require.Equal(t, 2, registry.calls)
}

func TestRevocationChecker_StaleEntryDeletedOnRead(t *testing.T) {
	registry := &fakeRegistry{}
	checker := NewRevocationChecker(registry, zap.NewNop())
	cred := revocableCredential("c1")

	now := time.Now()
	checker.now = func() time.Time { return now }
	checker.Check(context.Background(), cred)

	// Expired entry plus a failing registry: the stale result must not be
	// resurrected.
	registry.err = errors.New("down")
	checker.now = func() time.Time { return now.Add(2 * RevocationCacheTTL) }
	result := checker.Check(context.Background(), cred)
	require.Equal(t, RevocationUnknown, result.Status)

	checker.mu.Lock()
	_, cached := checker.cache[cred.ID]
	checker.mu.Unlock()
	require.False(t, cached)
}

func TestRevocationChecker_ClearCache(t *testing.T) {
	registry := &fakeRegistry{}
	checker := NewRevocationChecker(registry, zap.NewNop())
	cred := revocableCredential("c1")

	checker.Check(context.Background(), cred)
	checker.ClearCache()
	checker.Check(context.Background(), cred)
	require.Equal(t, 2, registry.calls)
}
