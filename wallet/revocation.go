package wallet

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type RevocationStatus string

const (
	RevocationValid   RevocationStatus = "valid"
	RevocationRevoked RevocationStatus = "revoked"
	RevocationUnknown RevocationStatus = "unknown"
)

// RevocationCacheTTL is how long a registry answer stays fresh.
const RevocationCacheTTL = time.Hour

// RevocationResult is the outcome of a revocation check. Callers must gate on
// Status, not solely on IsRevoked: an unknown status also reports
// IsRevoked=false but is not a clean bill of health.
type RevocationResult struct {
	IsRevoked bool
	Status    RevocationStatus
	CheckedAt time.Time
}

// RevocationRegistry is the external authority on credential validity.
type RevocationRegistry interface {
	CheckRevocation(ctx context.Context, revocationID string) (revoked bool, err error)
}

type revocationCacheEntry struct {
	result RevocationResult
}

// RevocationChecker answers valid/revoked/unknown for a credential with a
// time-bounded cache in front of the registry.
type RevocationChecker struct {
	registry RevocationRegistry
	logger   *zap.Logger

	mu    sync.Mutex
	cache map[string]revocationCacheEntry
	now   func() time.Time
}

func NewRevocationChecker(registry RevocationRegistry, logger *zap.Logger) *RevocationChecker {
	return &RevocationChecker{
		registry: registry,
		logger:   logger,
		cache:    make(map[string]revocationCacheEntry),
		now:      time.Now,
	}
}

// Check resolves the revocation status of a credential. A credential without
// a revocation ID has no registry to consult and is unconditionally valid. A
// registry failure yields unknown, never revoked.
func (c *RevocationChecker) Check(ctx context.Context, cred *Credential) RevocationResult {
	now := c.now()

	if cred.RevocationID == "" {
		return RevocationResult{IsRevoked: false, Status: RevocationValid, CheckedAt: now}
	}

	c.mu.Lock()
	if entry, ok := c.cache[cred.ID]; ok {
		if now.Sub(entry.result.CheckedAt) < RevocationCacheTTL {
			c.mu.Unlock()
			return entry.result
		}
		// Stale entries are removed, not just overwritten, so a failed
		// refresh does not leave them behind.
		delete(c.cache, cred.ID)
	}
	c.mu.Unlock()

	revoked, err := c.registry.CheckRevocation(ctx, cred.RevocationID)
	if err != nil {
		c.logger.Warn("revocation check failed",
			zap.String("credential_id", cred.ID),
			zap.Error(err))
		return RevocationResult{IsRevoked: false, Status: RevocationUnknown, CheckedAt: now}
	}

	result := RevocationResult{
		IsRevoked: revoked,
		Status:    RevocationValid,
		CheckedAt: now,
	}
	if revoked {
		result.Status = RevocationRevoked
	}

	c.mu.Lock()
	c.cache[cred.ID] = revocationCacheEntry{result: result}
	c.mu.Unlock()

	return result
}

// ClearCache drops every cached entry.
func (c *RevocationChecker) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]revocationCacheEntry)
}
