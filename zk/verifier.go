package zk

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/backend/witness"
)

// Verifier is the cryptographic proving-system primitive. Implementations
// report whether a proof verifies against a key and set of public signals.
type Verifier interface {
	Verify(key *VerificationKey, publicSignals []string, proof *Proof) (bool, error)
}

// Groth16Verifier verifies snarkjs-format groth16 proofs over bn128 using
// gnark. Proof and key material arrive as decimal coordinate strings and are
// rebuilt into bn254 group elements before pairing.
type Groth16Verifier struct{}

func NewGroth16Verifier() *Groth16Verifier {
	return &Groth16Verifier{}
}

func (v *Groth16Verifier) Verify(key *VerificationKey, publicSignals []string, proof *Proof) (bool, error) {
	if proof.Protocol != "" && proof.Protocol != "groth16" {
		return false, fmt.Errorf("unsupported protocol: %s", proof.Protocol)
	}
	if proof.Curve != "" && proof.Curve != "bn128" {
		return false, fmt.Errorf("unsupported curve: %s", proof.Curve)
	}

	gnarkProof, err := convertProof(proof)
	if err != nil {
		return false, fmt.Errorf("failed to convert proof: %v", err)
	}
	gnarkVK, err := convertVerificationKey(key)
	if err != nil {
		return false, fmt.Errorf("failed to convert verification key: %v", err)
	}
	publicWitness, err := convertPublicSignals(publicSignals)
	if err != nil {
		return false, fmt.Errorf("failed to convert public signals: %v", err)
	}

	// A verification error means the proof does not hold; it is not an
	// infrastructure failure.
	if err := groth16.Verify(gnarkProof, gnarkVK, publicWitness); err != nil {
		return false, nil
	}
	return true, nil
}

func convertProof(proof *Proof) (*groth16_bn254.Proof, error) {
	ar, err := g1FromStrings(proof.PiA)
	if err != nil {
		return nil, fmt.Errorf("pi_a: %v", err)
	}
	bs, err := g2FromStrings(proof.PiB)
	if err != nil {
		return nil, fmt.Errorf("pi_b: %v", err)
	}
	krs, err := g1FromStrings(proof.PiC)
	if err != nil {
		return nil, fmt.Errorf("pi_c: %v", err)
	}
	return &groth16_bn254.Proof{Ar: ar, Bs: bs, Krs: krs}, nil
}

func convertVerificationKey(key *VerificationKey) (*groth16_bn254.VerifyingKey, error) {
	vk := &groth16_bn254.VerifyingKey{}

	alpha, err := g1FromStrings(key.VkAlpha1)
	if err != nil {
		return nil, fmt.Errorf("vk_alpha_1: %v", err)
	}
	beta, err := g2FromStrings(key.VkBeta2)
	if err != nil {
		return nil, fmt.Errorf("vk_beta_2: %v", err)
	}
	gamma, err := g2FromStrings(key.VkGamma2)
	if err != nil {
		return nil, fmt.Errorf("vk_gamma_2: %v", err)
	}
	delta, err := g2FromStrings(key.VkDelta2)
	if err != nil {
		return nil, fmt.Errorf("vk_delta_2: %v", err)
	}

	vk.G1.Alpha = alpha
	vk.G2.Beta = beta
	vk.G2.Gamma = gamma
	vk.G2.Delta = delta

	vk.G1.K = make([]curve.G1Affine, len(key.IC))
	for i, ic := range key.IC {
		p, err := g1FromStrings(ic)
		if err != nil {
			return nil, fmt.Errorf("IC[%d]: %v", i, err)
		}
		vk.G1.K[i] = p
	}

	if err := vk.Precompute(); err != nil {
		return nil, fmt.Errorf("failed to precompute pairing lines: %v", err)
	}
	return vk, nil
}

func convertPublicSignals(signals []string) (witness.Witness, error) {
	w, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}

	values := make(chan any, len(signals))
	for _, s := range signals {
		b, ok := new(big.Int).SetString(s, 10)
		if !ok {
			close(values)
			return nil, fmt.Errorf("invalid public signal: %q", s)
		}
		values <- b
	}
	close(values)

	if err := w.Fill(len(signals), 0, values); err != nil {
		return nil, err
	}
	return w, nil
}

func g1FromStrings(coords []string) (curve.G1Affine, error) {
	var p curve.G1Affine
	if len(coords) < 2 {
		return p, errors.New("G1 point needs at least 2 coordinates")
	}
	if len(coords) >= 3 && coords[2] != "1" {
		return p, errors.New("G1 point is not in affine form")
	}
	if _, err := p.X.SetString(coords[0]); err != nil {
		return p, fmt.Errorf("invalid x coordinate: %v", err)
	}
	if _, err := p.Y.SetString(coords[1]); err != nil {
		return p, fmt.Errorf("invalid y coordinate: %v", err)
	}
	return p, nil
}

func g2FromStrings(coords [][]string) (curve.G2Affine, error) {
	var p curve.G2Affine
	if len(coords) < 2 || len(coords[0]) < 2 || len(coords[1]) < 2 {
		return p, errors.New("G2 point needs at least 2 coordinate pairs")
	}
	if len(coords) >= 3 && len(coords[2]) >= 2 && (coords[2][0] != "1" || coords[2][1] != "0") {
		return p, errors.New("G2 point is not in affine form")
	}
	if _, err := p.X.A0.SetString(coords[0][0]); err != nil {
		return p, fmt.Errorf("invalid x.a0 coordinate: %v", err)
	}
	if _, err := p.X.A1.SetString(coords[0][1]); err != nil {
		return p, fmt.Errorf("invalid x.a1 coordinate: %v", err)
	}
	if _, err := p.Y.A0.SetString(coords[1][0]); err != nil {
		return p, fmt.Errorf("invalid y.a0 coordinate: %v", err)
	}
	if _, err := p.Y.A1.SetString(coords[1][1]); err != nil {
		return p, fmt.Errorf("invalid y.a1 coordinate: %v", err)
	}
	return p, nil
}
