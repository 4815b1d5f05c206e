// Demo wallet CLI: scans a verification request (the QR payload JSON), runs
// the proof flow against the relay and prints the outcome. Proof generation
// is stubbed; this exercises the protocol, not the circuit.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"github.com/kokukuma/zero-auth/protocol"
	"github.com/kokukuma/zero-auth/wallet"
	"github.com/kokukuma/zero-auth/zk"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("failed to create logger:", err)
	}
	defer logger.Sync()

	payload, err := readPayload()
	if err != nil {
		logger.Fatal("failed to read verification request", zap.Error(err))
	}

	request, err := protocol.ParseVerificationRequest(payload)
	if err != nil {
		logger.Fatal("invalid verification request", zap.Error(err))
	}
	logger.Info("scanned verification request",
		zap.String("session_id", request.SessionID),
		zap.String("verifier", request.Verifier.Name),
		zap.String("credential_type", request.CredentialType),
		zap.Strings("required_claims", request.RequiredClaims))

	store := wallet.NewCredentialStore(wallet.NewMemoryVault())
	for _, cred := range demoCredentials() {
		if err := store.Add(cred); err != nil {
			logger.Fatal("failed to seed credential", zap.Error(err))
		}
	}
	credentials, err := store.List()
	if err != nil {
		logger.Fatal("failed to list credentials", zap.Error(err))
	}

	orch := wallet.NewOrchestrator(
		approveAuthenticator{},
		wallet.NewRevocationChecker(alwaysValidRegistry{}, logger),
		stubProver{},
		wallet.NewRelayClient(),
		logger,
	)
	orch.ConfirmProceed = func(ctx context.Context, result wallet.RevocationResult) bool {
		fmt.Println("revocation status unknown, proceeding anyway")
		return true
	}
	orch.OnTransition = func(s wallet.State) {
		fmt.Println("->", s)
	}

	err = orch.Run(context.Background(), request, credentials)
	fmt.Println("final state:")
	spew.Dump(orch.State())
	if err != nil {
		logger.Fatal("verification flow failed", zap.Error(err))
	}
	logger.Info("proof accepted", zap.String("session_id", request.SessionID))
}

// readPayload takes the request JSON from the first argument (inline or a
// file path) or from stdin.
func readPayload() ([]byte, error) {
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if _, err := os.Stat(arg); err == nil {
			return os.ReadFile(arg)
		}
		return []byte(arg), nil
	}
	return io.ReadAll(os.Stdin)
}

func demoCredentials() []*wallet.Credential {
	return []*wallet.Credential{
		{
			ID:        "demo-age",
			Issuer:    "Demo Government",
			IssuerDID: "did:web:issuer.example",
			Type:      "Age Verification",
			IssuedAt:  time.Now().Add(-24 * time.Hour),
			Attributes: map[string]string{
				"birth_year": "1990",
				"country":    "JP",
			},
			Commitments: map[string]string{
				"birth_year": "0x1a2b",
			},
		},
		{
			ID:       "demo-student",
			Issuer:   "Demo University",
			Type:     "Student ID",
			IssuedAt: time.Now().Add(-48 * time.Hour),
			Attributes: map[string]string{
				"student_id": "s12345",
				"university": "Demo University",
			},
		},
	}
}

type approveAuthenticator struct{}

func (approveAuthenticator) Authenticate(ctx context.Context) error {
	fmt.Println("authenticated (demo mode, no biometric)")
	return nil
}

type alwaysValidRegistry struct{}

func (alwaysValidRegistry) CheckRevocation(ctx context.Context, revocationID string) (bool, error) {
	return false, nil
}

// stubProver emits a fixed well-formed proof. Only usable against a relay
// running without verification keys.
type stubProver struct{}

func (stubProver) Prove(ctx context.Context, request *protocol.VerificationRequest, cred *wallet.Credential) (*zk.Proof, error) {
	return &zk.Proof{
		PiA:           []string{"1", "2", "1"},
		PiB:           [][]string{{"3", "4"}, {"5", "6"}, {"1", "0"}},
		PiC:           []string{"7", "8", "1"},
		Protocol:      "groth16",
		Curve:         "bn128",
		PublicSignals: []string{request.Nonce},
	}, nil
}
