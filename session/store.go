package session

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrNotFound         = errors.New("session not found")
	ErrAlreadyCompleted = errors.New("session already completed")
	ErrDuplicateProof   = errors.New("duplicate proof submission")
)

// Store is a keyed session record store with TTL semantics. Get treats a
// session past its deadline as absent. Complete performs the one
// PENDING to COMPLETED transition atomically per session; under concurrent
// submissions exactly one caller wins and the others observe
// ErrAlreadyCompleted or ErrDuplicateProof.
type Store interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Complete(ctx context.Context, id string, proof json.RawMessage, proofHash string) (*Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int, error)
}
