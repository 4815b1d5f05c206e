package protocol

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	sigKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	req := validRequest()
	require.NoError(t, req.Sign(sigKey))
	require.NotEmpty(t, req.Signature)

	require.NoError(t, req.VerifySignature(&sigKey.PublicKey))
}

func TestVerifySignature_WrongKey(t *testing.T) {
	sigKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	otherKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	req := validRequest()
	require.NoError(t, req.Sign(sigKey))

	require.Error(t, req.VerifySignature(&otherKey.PublicKey))
}

func TestVerifySignature_TamperedSession(t *testing.T) {
	sigKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	req := validRequest()
	require.NoError(t, req.Sign(sigKey))

	req.SessionID = "someone-else"
	require.ErrorIs(t, req.VerifySignature(&sigKey.PublicKey), ErrSignatureMismatch)
}

func TestVerifySignature_Unsigned(t *testing.T) {
	sigKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	req := validRequest()
	require.Error(t, req.VerifySignature(&sigKey.PublicKey))
}
