// Package zk holds the proof-submission machinery on the relay side: the
// proof payload shape, the structural schema check, the verification-key
// registry and the groth16 verification primitive.
package zk

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// MaxProofSize bounds a proof submission body at 1 MiB.
const MaxProofSize = 1 << 20

var ErrProofTooLarge = errors.New("proof payload exceeds maximum size")

// Proof is a groth16 proof in the snarkjs wire shape. Everything except the
// cryptographic verifier treats it as opaque.
type Proof struct {
	PiA           []string   `json:"pi_a" mapstructure:"pi_a"`
	PiB           [][]string `json:"pi_b" mapstructure:"pi_b"`
	PiC           []string   `json:"pi_c" mapstructure:"pi_c"`
	Protocol      string     `json:"protocol" mapstructure:"protocol"`
	Curve         string     `json:"curve" mapstructure:"curve"`
	PublicSignals []string   `json:"public_signals" mapstructure:"public_signals"`
}

// Submission is one decoded proof-submission body. Raw is the proof object
// itself, used for the replay digest and the schema check; Envelope is the
// whole body, which may carry claim metadata around the proof.
type Submission struct {
	Envelope map[string]interface{}
	Raw      map[string]interface{}
	Proof    *Proof
}

// DecodeSubmission parses a proof submission body. Wallets send either
// {"proof": {...}} or the proof object directly at the top level; both forms
// are accepted.
func DecodeSubmission(body []byte) (*Submission, error) {
	if len(body) > MaxProofSize {
		return nil, ErrProofTooLarge
	}

	var envelope map[string]interface{}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse submission body: %v", err)
	}

	raw := envelope
	if wrapped, ok := envelope["proof"].(map[string]interface{}); ok {
		raw = wrapped
	}

	proof := &Proof{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           proof,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode proof: %v", err)
	}

	// The wallet bridge emits camelCase public signals.
	if len(proof.PublicSignals) == 0 {
		if alt, ok := raw["publicSignals"]; ok {
			var signals []string
			if err := mapstructure.WeakDecode(alt, &signals); err == nil {
				proof.PublicSignals = signals
			}
		}
	}

	if proof.Protocol == "" {
		proof.Protocol = "groth16"
	}
	if proof.Curve == "" {
		proof.Curve = "bn128"
	}
	return &Submission{Envelope: envelope, Raw: raw, Proof: proof}, nil
}
