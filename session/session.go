// Package session holds the relay-side verification session model and its
// stores. A session records one verification attempt from creation until
// completion, cancellation, or TTL expiry.
package session

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"
)

// DefaultTTL is how long a session stays usable after creation.
const DefaultTTL = 5 * time.Minute

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

type Session struct {
	ID             string          `json:"session_id"`
	Nonce          string          `json:"nonce"`
	VerifierName   string          `json:"verifier_name,omitempty"`
	CredentialType string          `json:"credential_type"`
	RequiredClaims []string        `json:"required_claims"`
	Status         Status          `json:"status"`
	Proof          json.RawMessage `json:"proof,omitempty"`
	ProofHash      string          `json:"proof_hash,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
}

// Expired reports whether the session's deadline has passed. Expired sessions
// are treated as absent by every read path, swept or not.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// NormalizeClaims resolves a stored required-claims value into an ordered set
// of claim names. Backing stores may hold the claims as a native list or as a
// JSON-encoded string; both are accepted here so nothing deeper in the
// pipeline branches on the encoding. An unparsable value yields an empty set.
func NormalizeClaims(raw interface{}) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case []string:
		return lo.Uniq(v)
	case []interface{}:
		claims := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil
			}
			claims = append(claims, s)
		}
		return lo.Uniq(claims)
	case string:
		if v == "" {
			return nil
		}
		var claims []string
		if err := json.Unmarshal([]byte(v), &claims); err != nil {
			return nil
		}
		return lo.Uniq(claims)
	default:
		return nil
	}
}
