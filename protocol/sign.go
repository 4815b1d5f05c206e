package protocol

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrSignatureMismatch = errors.New("signature does not cover this request")

type requestClaims struct {
	VerificationRequest
	jwt.RegisteredClaims
}

// Sign attaches a compact ES256 JWS over the request to its signature field.
// The signature covers every field except the signature itself.
func (r *VerificationRequest) Sign(sigKey *ecdsa.PrivateKey) error {
	claims := requestClaims{VerificationRequest: *r}
	claims.Signature = ""

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["typ"] = "zero-auth-req+jwt"

	signed, err := token.SignedString(sigKey)
	if err != nil {
		return fmt.Errorf("failed to sign verification request: %v", err)
	}
	r.Signature = signed
	return nil
}

// VerifySignature checks the embedded JWS against pubKey and confirms it was
// issued for this session and nonce.
func (r *VerificationRequest) VerifySignature(pubKey *ecdsa.PublicKey) error {
	if r.Signature == "" {
		return errors.New("request carries no signature")
	}

	var claims requestClaims
	_, err := jwt.ParseWithClaims(r.Signature, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return pubKey, nil
	})
	if err != nil {
		return fmt.Errorf("failed to verify request signature: %v", err)
	}

	if claims.SessionID != r.SessionID || claims.Nonce != r.Nonce {
		return ErrSignatureMismatch
	}
	return nil
}
