package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kokukuma/zero-auth/protocol"
	"github.com/kokukuma/zero-auth/zk"
)

type fakeAuth struct {
	err error
}

func (a *fakeAuth) Authenticate(ctx context.Context) error { return a.err }

type fakeProver struct {
	err   error
	delay time.Duration
}

func (p *fakeProver) Prove(ctx context.Context, request *protocol.VerificationRequest, cred *Credential) (*zk.Proof, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return &zk.Proof{
		PiA:      []string{"1", "2", "1"},
		PiB:      [][]string{{"3", "4"}, {"5", "6"}},
		PiC:      []string{"7", "8", "1"},
		Protocol: "groth16",
		Curve:    "bn128",
	}, nil
}

type fakeSubmitter struct {
	err      error
	calls    int
	callback string
	claims   []string
}

func (s *fakeSubmitter) SubmitProof(ctx context.Context, callback string, proof *zk.Proof, claims []string) error {
	s.calls++
	s.callback = callback
	s.claims = claims
	return s.err
}

func newTestOrchestrator(registry RevocationRegistry, prover Prover, submitter ProofSubmitter) *Orchestrator {
	return NewOrchestrator(
		&fakeAuth{},
		NewRevocationChecker(registry, zap.NewNop()),
		prover,
		submitter,
		zap.NewNop(),
	)
}

func orchestratorRequest() *protocol.VerificationRequest {
	req := ageRequest("birth_year")
	req.Verifier = protocol.VerifierInfo{
		Name:     "Test Verifier",
		DID:      "did:web:test",
		Callback: "https://relay.test/api/v1/sessions/sess-1/proof",
	}
	return req
}

func TestOrchestrator_HappyPath(t *testing.T) {
	submitter := &fakeSubmitter{}
	o := newTestOrchestrator(&fakeRegistry{}, &fakeProver{}, submitter)

	var states []State
	o.OnTransition = func(s State) { states = append(states, s) }

	creds := []*Credential{ageCredential("a", map[string]string{"birth_year": "1995"})}
	err := o.Run(context.Background(), orchestratorRequest(), creds)
	require.NoError(t, err)

	require.Equal(t, StateCompleted, o.State())
	require.Equal(t, []State{
		StateMatching,
		StateAuthenticating,
		StateCheckingRevocation,
		StateProving,
		StateSubmitting,
		StateCompleted,
	}, states)
	require.Equal(t, 1, submitter.calls)
	require.Equal(t, "https://relay.test/api/v1/sessions/sess-1/proof", submitter.callback)
}

func TestOrchestrator_NoMatch(t *testing.T) {
	o := newTestOrchestrator(&fakeRegistry{}, &fakeProver{}, &fakeSubmitter{})

	err := o.Run(context.Background(), orchestratorRequest(), nil)
	require.ErrorIs(t, err, ErrNoMatchingCredential)
	require.Equal(t, StateError, o.State())
}

func TestOrchestrator_RevokedBlocks(t *testing.T) {
	submitter := &fakeSubmitter{}
	o := newTestOrchestrator(&fakeRegistry{revoked: true}, &fakeProver{}, submitter)

	creds := []*Credential{
		{
			ID:           "a",
			Type:         "Age Verification",
			Attributes:   map[string]string{"birth_year": "1995"},
			RevocationID: "rev-a",
		},
	}
	err := o.Run(context.Background(), orchestratorRequest(), creds)
	require.ErrorIs(t, err, ErrCredentialRevoked)
	require.Equal(t, StateError, o.State())
	require.Zero(t, submitter.calls)
}

func TestOrchestrator_UnknownRequiresConfirmation(t *testing.T) {
	registry := &fakeRegistry{err: errors.New("registry down")}
	creds := []*Credential{
		{
			ID:           "a",
			Type:         "Age Verification",
			Attributes:   map[string]string{"birth_year": "1995"},
			RevocationID: "rev-a",
		},
	}

	// Without a confirmation hook the flow never proceeds.
	o := newTestOrchestrator(registry, &fakeProver{}, &fakeSubmitter{})
	err := o.Run(context.Background(), orchestratorRequest(), creds)
	require.ErrorIs(t, err, ErrProceedDeclined)

	// Declining stops the flow.
	o = newTestOrchestrator(registry, &fakeProver{}, &fakeSubmitter{})
	o.ConfirmProceed = func(ctx context.Context, result RevocationResult) bool { return false }
	err = o.Run(context.Background(), orchestratorRequest(), creds)
	require.ErrorIs(t, err, ErrProceedDeclined)

	// An explicit affirmative signal lets it continue.
	submitter := &fakeSubmitter{}
	o = newTestOrchestrator(registry, &fakeProver{}, submitter)
	o.ConfirmProceed = func(ctx context.Context, result RevocationResult) bool {
		require.Equal(t, RevocationUnknown, result.Status)
		return true
	}
	err = o.Run(context.Background(), orchestratorRequest(), creds)
	require.NoError(t, err)
	require.Equal(t, 1, submitter.calls)
}

func TestOrchestrator_ExpiryPreemptsProving(t *testing.T) {
	o := newTestOrchestrator(&fakeRegistry{}, &fakeProver{delay: 5 * time.Second}, &fakeSubmitter{})

	req := orchestratorRequest()
	req.ExpiresAt = time.Now().Add(100 * time.Millisecond).Unix()

	creds := []*Credential{ageCredential("a", map[string]string{"birth_year": "1995"})}
	err := o.Run(context.Background(), req, creds)
	require.ErrorIs(t, err, ErrRequestExpired)
	require.Equal(t, StateExpired, o.State())
}

func TestOrchestrator_SubmissionErrorSurfaced(t *testing.T) {
	subErr := &SubmissionError{Code: protocol.CodeDuplicateProof, Message: "already submitted"}
	o := newTestOrchestrator(&fakeRegistry{}, &fakeProver{}, &fakeSubmitter{err: subErr})

	creds := []*Credential{ageCredential("a", map[string]string{"birth_year": "1995"})}
	err := o.Run(context.Background(), orchestratorRequest(), creds)

	var got *SubmissionError
	require.ErrorAs(t, err, &got)
	require.Equal(t, protocol.CodeDuplicateProof, got.Code)
	require.Equal(t, StateError, o.State())
}

func TestOrchestrator_ExpiredCredential(t *testing.T) {
	o := newTestOrchestrator(&fakeRegistry{}, &fakeProver{}, &fakeSubmitter{})

	past := time.Now().Add(-time.Hour)
	creds := []*Credential{
		{
			ID:         "old",
			Type:       "Age Verification",
			Attributes: map[string]string{"birth_year": "1995"},
			ExpiresAt:  &past,
		},
	}
	err := o.Run(context.Background(), orchestratorRequest(), creds)
	require.Error(t, err)
	require.Equal(t, StateError, o.State())
}
