// Package protocol defines the QR challenge payload exchanged between the
// relay and the wallet, and its validation rules. The payload is immutable
// once issued; consumers re-validate every field before acting on it.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// Version is the only protocol version currently understood.
	Version = 1

	// ActionVerify is the only action defined for QR challenges.
	ActionVerify = "verify"
)

type UseCase string

const (
	UseCaseLogin        UseCase = "LOGIN"
	UseCaseVerification UseCase = "VERIFICATION"
	UseCaseTrialLicense UseCase = "TRIAL_LICENSE"
)

var (
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	ErrInvalidAction      = errors.New("invalid action")
	ErrExpiredRequest     = errors.New("verification request expired")
)

// VerifierInfo describes the party requesting verification.
type VerifierInfo struct {
	Name     string `json:"name"`
	DID      string `json:"did"`
	Callback string `json:"callback"`
}

// VerificationRequest is the QR challenge payload scanned by the wallet.
type VerificationRequest struct {
	Version        int          `json:"v"`
	Action         string       `json:"action"`
	SessionID      string       `json:"session_id"`
	Nonce          string       `json:"nonce"`
	Verifier       VerifierInfo `json:"verifier"`
	RequiredClaims []string     `json:"required_claims"`
	CredentialType string       `json:"credential_type"`
	UseCase        UseCase      `json:"use_case,omitempty"`
	ExpiresAt      int64        `json:"expires_at"`
	Signature      string       `json:"signature,omitempty"`
}

// ParseVerificationRequest decodes and validates a scanned QR payload. Any
// missing or malformed field, or a past expiry, rejects the whole payload.
func ParseVerificationRequest(data []byte) (*VerificationRequest, error) {
	var req VerificationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse verification request: %v", err)
	}
	if err := req.Validate(time.Now()); err != nil {
		return nil, err
	}
	return &req, nil
}

// Validate checks every field of the request against the protocol rules.
func (r *VerificationRequest) Validate(now time.Time) error {
	if r.Version != Version {
		return ErrUnsupportedVersion
	}
	if r.Action != ActionVerify {
		return ErrInvalidAction
	}
	if r.SessionID == "" {
		return errors.New("missing session_id")
	}
	if r.Nonce == "" {
		return errors.New("missing nonce")
	}
	if r.Verifier.DID == "" {
		return errors.New("missing verifier did")
	}
	if r.Verifier.Callback == "" {
		return errors.New("missing verifier callback")
	}
	if r.RequiredClaims == nil {
		return errors.New("missing required_claims")
	}
	if r.CredentialType == "" {
		return errors.New("missing credential_type")
	}
	switch r.UseCase {
	case "", UseCaseLogin, UseCaseVerification, UseCaseTrialLicense:
	default:
		return fmt.Errorf("unknown use_case: %s", r.UseCase)
	}
	if r.ExpiresAt == 0 {
		return errors.New("missing expires_at")
	}
	if r.ExpiresAt < now.Unix() {
		return ErrExpiredRequest
	}
	return nil
}

// Expired reports whether the request's deadline has passed.
func (r *VerificationRequest) Expired(now time.Time) bool {
	return r.ExpiresAt < now.Unix()
}
