package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kokukuma/zero-auth/protocol"
	"github.com/kokukuma/zero-auth/zk"
)

// State names one step of the proof orchestration flow.
type State string

const (
	StateIdle               State = "idle"
	StateMatching           State = "matching"
	StateAuthenticating     State = "authenticating"
	StateCheckingRevocation State = "checking_revocation"
	StateProving            State = "proving"
	StateSubmitting         State = "submitting"
	StateCompleted          State = "completed"
	StateError              State = "error"
	StateExpired            State = "expired"
)

// ProveTimeout bounds proof generation; a slow prover fails the step rather
// than hanging the flow.
const ProveTimeout = 90 * time.Second

var (
	ErrNoMatchingCredential = errors.New("no stored credential satisfies the request")
	ErrCredentialRevoked    = errors.New("credential is revoked")
	ErrProceedDeclined      = errors.New("holder declined to proceed with unknown revocation status")
	ErrRequestExpired       = errors.New("verification request expired")
)

// Authenticator unlocks the holder's vault (biometric, PIN); opaque here.
type Authenticator interface {
	Authenticate(ctx context.Context) error
}

// Prover is the opaque proving primitive.
type Prover interface {
	Prove(ctx context.Context, request *protocol.VerificationRequest, cred *Credential) (*zk.Proof, error)
}

// ProofSubmitter delivers a generated proof to the relay.
type ProofSubmitter interface {
	SubmitProof(ctx context.Context, callback string, proof *zk.Proof, claims []string) error
}

// Orchestrator drives one verification request end to end: match a
// credential, authenticate, check revocation, prove, submit. The request's
// expires_at acts as a wall-clock deadline that pre-empts any in-flight step;
// a submission the relay accepted before the deadline stays completed, since
// the relay is the authority on completion.
type Orchestrator struct {
	auth       Authenticator
	revocation *RevocationChecker
	prover     Prover
	relay      ProofSubmitter
	logger     *zap.Logger

	// SelectCredential picks among multiple matches; defaults to the first.
	SelectCredential func(matches []*Credential) *Credential

	// ConfirmProceed is the explicit continuation signal required when the
	// revocation status is unknown. Nil means decline; the flow never
	// auto-proceeds past an unknown status.
	ConfirmProceed func(ctx context.Context, result RevocationResult) bool

	// OnTransition observes state changes, e.g. for UI updates.
	OnTransition func(State)

	mu    sync.RWMutex
	state State
}

func NewOrchestrator(auth Authenticator, revocation *RevocationChecker, prover Prover, relay ProofSubmitter, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		auth:       auth,
		revocation: revocation,
		prover:     prover,
		relay:      relay,
		logger:     logger,
		state:      StateIdle,
	}
}

func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

func (o *Orchestrator) transition(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()

	o.logger.Debug("orchestrator transition", zap.String("state", string(s)))
	if o.OnTransition != nil {
		o.OnTransition(s)
	}
}

// Run executes the flow for an already-validated request against the holder's
// credentials. It returns nil only from the completed state.
func (o *Orchestrator) Run(ctx context.Context, request *protocol.VerificationRequest, credentials []*Credential) error {
	deadline := time.Unix(request.ExpiresAt, 0)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	err := o.run(ctx, request, credentials)
	if err == nil {
		// A submission the relay accepted stands even if the deadline
		// passed while the response was in flight.
		o.transition(StateCompleted)
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		o.transition(StateExpired)
		return ErrRequestExpired
	}
	o.transition(StateError)
	return err
}

func (o *Orchestrator) run(ctx context.Context, request *protocol.VerificationRequest, credentials []*Credential) error {
	o.transition(StateMatching)
	matches := FindMatches(credentials, request)
	if len(matches) == 0 {
		return ErrNoMatchingCredential
	}

	cred := matches[0]
	if o.SelectCredential != nil {
		if chosen := o.SelectCredential(matches); chosen != nil {
			cred = chosen
		}
	}
	if err := cred.ValidateUsable(time.Now()); err != nil {
		return err
	}

	o.transition(StateAuthenticating)
	if err := o.auth.Authenticate(ctx); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	o.transition(StateCheckingRevocation)
	result := o.revocation.Check(ctx, cred)
	switch result.Status {
	case RevocationRevoked:
		return ErrCredentialRevoked
	case RevocationUnknown:
		if o.ConfirmProceed == nil || !o.ConfirmProceed(ctx, result) {
			return ErrProceedDeclined
		}
	}

	o.transition(StateProving)
	proveCtx, cancel := context.WithTimeout(ctx, ProveTimeout)
	proof, err := o.prover.Prove(proveCtx, request, cred)
	cancel()
	if err != nil {
		return fmt.Errorf("proof generation failed: %w", err)
	}

	o.transition(StateSubmitting)
	if err := o.relay.SubmitProof(ctx, request.Verifier.Callback, proof, request.RequiredClaims); err != nil {
		return err
	}
	return nil
}
