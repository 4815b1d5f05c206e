// Package wallet implements the holder-side counterpart of the verification
// protocol: credential storage and matching, revocation checking, and the
// orchestration state machine that drives proof generation and submission.
package wallet

import (
	"fmt"
	"time"
)

// Credential is a holder-owned bundle of attested attributes. The relay never
// sees raw attributes, only proofs over the commitments.
type Credential struct {
	ID           string            `json:"id" cbor:"1,keyasint"`
	Issuer       string            `json:"issuer" cbor:"2,keyasint"`
	IssuerDID    string            `json:"issuer_did,omitempty" cbor:"3,keyasint,omitempty"`
	Type         string            `json:"type" cbor:"4,keyasint"`
	IssuedAt     time.Time         `json:"issued_at" cbor:"5,keyasint"`
	ExpiresAt    *time.Time        `json:"expires_at,omitempty" cbor:"6,keyasint,omitempty"`
	Attributes   map[string]string `json:"attributes" cbor:"7,keyasint"`
	Commitments  map[string]string `json:"commitments,omitempty" cbor:"8,keyasint,omitempty"`
	RevocationID string            `json:"revocation_id,omitempty" cbor:"9,keyasint,omitempty"`
}

// ValidateUsable rejects a credential whose own expiry has passed. Run before
// spending proving time on it.
func (c *Credential) ValidateUsable(now time.Time) error {
	if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
		return fmt.Errorf("credential %s expired at %s", c.ID, c.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}
