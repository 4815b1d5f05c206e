package zk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func garbageKey() *VerificationKey {
	// G1 generator coordinates with arbitrary G2 values: structurally parsable
	// but cryptographically meaningless.
	g2 := [][]string{{"1", "2"}, {"3", "4"}, {"1", "0"}}
	return &VerificationKey{
		Protocol: "groth16",
		Curve:    "bn128",
		NPublic:  1,
		VkAlpha1: []string{"1", "2", "1"},
		VkBeta2:  g2,
		VkGamma2: g2,
		VkDelta2: g2,
		IC:       [][]string{{"1", "2", "1"}, {"1", "2", "1"}},
	}
}

func garbageProof() *Proof {
	return &Proof{
		PiA:           []string{"1", "2", "1"},
		PiB:           [][]string{{"1", "2"}, {"3", "4"}, {"1", "0"}},
		PiC:           []string{"1", "2", "1"},
		Protocol:      "groth16",
		Curve:         "bn128",
		PublicSignals: []string{"1"},
	}
}

func TestGroth16Verifier_RejectsGarbage(t *testing.T) {
	v := NewGroth16Verifier()

	ok, _ := v.Verify(garbageKey(), []string{"1"}, garbageProof())
	require.False(t, ok)
}

func TestGroth16Verifier_UnsupportedProtocol(t *testing.T) {
	v := NewGroth16Verifier()

	proof := garbageProof()
	proof.Protocol = "plonk"
	_, err := v.Verify(garbageKey(), nil, proof)
	require.Error(t, err)

	proof = garbageProof()
	proof.Curve = "bls12-381"
	_, err = v.Verify(garbageKey(), nil, proof)
	require.Error(t, err)
}

func TestGroth16Verifier_MalformedPoints(t *testing.T) {
	v := NewGroth16Verifier()

	proof := garbageProof()
	proof.PiA = []string{"1"}
	ok, err := v.Verify(garbageKey(), nil, proof)
	require.False(t, ok)
	require.Error(t, err)

	proof = garbageProof()
	proof.PiA = []string{"1", "2", "7"} // projective, not affine
	ok, err = v.Verify(garbageKey(), nil, proof)
	require.False(t, ok)
	require.Error(t, err)

	proof = garbageProof()
	proof.PiB = [][]string{{"1", "2"}}
	ok, err = v.Verify(garbageKey(), nil, proof)
	require.False(t, ok)
	require.Error(t, err)
}

func TestGroth16Verifier_InvalidPublicSignal(t *testing.T) {
	v := NewGroth16Verifier()

	proof := garbageProof()
	proof.PublicSignals = []string{"not-a-number"}
	ok, err := v.Verify(garbageKey(), proof.PublicSignals, proof)
	require.False(t, ok)
	require.Error(t, err)
}

func TestG1FromStrings(t *testing.T) {
	p, err := g1FromStrings([]string{"1", "2", "1"})
	require.NoError(t, err)
	require.True(t, p.IsOnCurve())

	_, err = g1FromStrings([]string{"1", "x"})
	require.Error(t, err)
}
