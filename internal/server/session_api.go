package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/ory/go-convenience/stringslice"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/kokukuma/zero-auth/pkg/hash"
	"github.com/kokukuma/zero-auth/protocol"
	"github.com/kokukuma/zero-auth/session"
	"github.com/kokukuma/zero-auth/zk"
)

type CreateSessionRequest struct {
	VerifierName   string   `json:"verifier_name"`
	CredentialType string   `json:"credential_type"`
	RequiredClaims []string `json:"required_claims"`
}

type CreateSessionResponse struct {
	SessionID string                        `json:"session_id"`
	Nonce     string                        `json:"nonce"`
	QRPayload *protocol.VerificationRequest `json:"qr_payload"`
}

func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	req := CreateSessionRequest{}
	if err := parseJSON(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, protocol.CodeInvalidRequestBody,
			fmt.Sprintf("failed to parse request: %v", err), nil)
		return
	}

	if req.CredentialType == "" {
		req.CredentialType = "Age Verification"
	}
	if !stringslice.Has(SupportedCredentialTypes, req.CredentialType) {
		s.jsonError(w, http.StatusBadRequest, protocol.CodeInvalidCredentialType,
			fmt.Sprintf("unsupported credential type: %s", req.CredentialType),
			map[string]interface{}{"supported": SupportedCredentialTypes})
		return
	}
	if req.VerifierName == "" {
		req.VerifierName = defaultVerifierName
	}

	if s.publicURL == "" {
		s.jsonError(w, http.StatusInternalServerError, protocol.CodeConfigurationError,
			"PUBLIC_URL is not configured", nil)
		return
	}

	nonce, err := protocol.CreateNonce()
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, protocol.CodeConfigurationError,
			fmt.Sprintf("failed to create nonce: %v", err), nil)
		return
	}

	now := time.Now()
	sess := &session.Session{
		ID:             uuid.New().String(),
		Nonce:          nonce.String(),
		VerifierName:   req.VerifierName,
		CredentialType: req.CredentialType,
		RequiredClaims: session.NormalizeClaims(req.RequiredClaims),
		Status:         session.StatusPending,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.sessionTTL),
	}
	if err := s.store.Create(r.Context(), sess); err != nil {
		s.jsonError(w, http.StatusInternalServerError, protocol.CodeDatabaseError,
			fmt.Sprintf("failed to create session: %v", err), nil)
		return
	}

	qr := &protocol.VerificationRequest{
		Version:   protocol.Version,
		Action:    protocol.ActionVerify,
		SessionID: sess.ID,
		Nonce:     sess.Nonce,
		Verifier: protocol.VerifierInfo{
			Name:     req.VerifierName,
			DID:      verifierDID,
			Callback: fmt.Sprintf("%s/api/v1/sessions/%s/proof", s.publicURL, sess.ID),
		},
		RequiredClaims: sess.RequiredClaims,
		CredentialType: sess.CredentialType,
		ExpiresAt:      sess.ExpiresAt.Unix(),
	}
	if qr.RequiredClaims == nil {
		qr.RequiredClaims = []string{}
	}
	if s.sigKey != nil {
		if err := qr.Sign(s.sigKey); err != nil {
			s.jsonError(w, http.StatusInternalServerError, protocol.CodeConfigurationError,
				fmt.Sprintf("failed to sign qr payload: %v", err), nil)
			return
		}
	}

	s.logger.Info("session created",
		zap.String("session_id", sess.ID),
		zap.String("credential_type", sess.CredentialType))

	s.jsonResponse(w, CreateSessionResponse{
		SessionID: sess.ID,
		Nonce:     sess.Nonce,
		QRPayload: qr,
	}, http.StatusOK)
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.jsonError(w, http.StatusNotFound, protocol.CodeSessionNotFound,
				"session not found or expired", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, protocol.CodeDatabaseError,
			fmt.Sprintf("failed to get session: %v", err), nil)
		return
	}

	s.jsonResponse(w, sess, http.StatusOK)
}

type SubmitProofResponse struct {
	Success bool `json:"success"`
}

// SubmitProof runs the validation pipeline in strict order: size bound,
// replay check, claims coverage, structural schema, cryptographic
// verification, then the atomic COMPLETED transition. The first failing
// stage short-circuits the rest.
func (s *Server) SubmitProof(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	body, err := io.ReadAll(io.LimitReader(r.Body, zk.MaxProofSize+1))
	r.Body.Close()
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, protocol.CodeInvalidRequestBody,
			fmt.Sprintf("failed to read request body: %v", err), nil)
		return
	}

	sub, err := zk.DecodeSubmission(body)
	if err != nil {
		if errors.Is(err, zk.ErrProofTooLarge) {
			s.jsonError(w, http.StatusRequestEntityTooLarge, protocol.CodeProofTooLarge,
				fmt.Sprintf("proof payload exceeds maximum size of %d bytes", zk.MaxProofSize), nil)
			return
		}
		s.jsonError(w, http.StatusBadRequest, protocol.CodeInvalidRequestBody,
			fmt.Sprintf("failed to parse proof submission: %v", err), nil)
		return
	}

	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.jsonError(w, http.StatusNotFound, protocol.CodeSessionNotFound,
				"session not found or expired", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, protocol.CodeDatabaseError,
			fmt.Sprintf("failed to get session: %v", err), nil)
		return
	}

	proofHash, err := hash.ProofDigest(sub.Raw)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, protocol.CodeInvalidRequestBody,
			fmt.Sprintf("failed to digest proof: %v", err), nil)
		return
	}

	if sess.Status == session.StatusCompleted {
		if sess.ProofHash == proofHash {
			s.jsonError(w, http.StatusBadRequest, protocol.CodeDuplicateProof,
				"this proof was already submitted for this session", nil)
			return
		}
		s.jsonError(w, http.StatusBadRequest, protocol.CodeSessionAlreadyCompleted,
			"session is already completed", nil)
		return
	}

	if len(sess.RequiredClaims) > 0 {
		missing := missingClaims(sess.RequiredClaims, sub)
		if len(missing) > 0 {
			s.jsonError(w, http.StatusBadRequest, protocol.CodeMissingRequiredClaim,
				fmt.Sprintf("proof does not cover required claims: %v", missing),
				map[string]interface{}{"missing_claims": missing})
			return
		}
	}

	if err := zk.CheckProofSchema(sub.Raw); err != nil {
		s.jsonError(w, http.StatusBadRequest, protocol.CodeInvalidProofSchema, err.Error(), nil)
		return
	}

	key, err := s.registry.GetKey(r.Context(), sess.CredentialType)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, protocol.CodeDatabaseError,
			fmt.Sprintf("failed to load verification key: %v", err), nil)
		return
	}
	if key == nil {
		// No key registered for this type: verification is disabled and the
		// proof is accepted without cryptographic checking. Deliberately
		// loud; see /health for the operator-visible switch.
		s.logger.Warn("zk verification disabled, accepting proof without cryptographic check",
			zap.String("session_id", sess.ID),
			zap.String("credential_type", sess.CredentialType))
	} else {
		ok, err := s.verifier.Verify(key, sub.Proof.PublicSignals, sub.Proof)
		if err != nil {
			s.jsonError(w, http.StatusBadRequest, protocol.CodeZKVerificationFailed,
				fmt.Sprintf("proof verification failed: %v", err), nil)
			return
		}
		if !ok {
			s.jsonError(w, http.StatusBadRequest, protocol.CodeZKVerificationFailed,
				"zero-knowledge proof verification failed", nil)
			return
		}
	}

	if _, err := s.store.Complete(r.Context(), id, json.RawMessage(body), proofHash); err != nil {
		switch {
		case errors.Is(err, session.ErrDuplicateProof):
			s.jsonError(w, http.StatusBadRequest, protocol.CodeDuplicateProof,
				"this proof was already submitted for this session", nil)
		case errors.Is(err, session.ErrAlreadyCompleted):
			s.jsonError(w, http.StatusBadRequest, protocol.CodeSessionAlreadyCompleted,
				"session is already completed", nil)
		case errors.Is(err, session.ErrNotFound):
			s.jsonError(w, http.StatusNotFound, protocol.CodeSessionNotFound,
				"session not found or expired", nil)
		default:
			s.jsonError(w, http.StatusInternalServerError, protocol.CodeDatabaseError,
				fmt.Sprintf("failed to complete session: %v", err), nil)
		}
		return
	}

	s.logger.Info("session completed",
		zap.String("session_id", sess.ID),
		zap.String("credential_type", sess.CredentialType))

	s.jsonResponse(w, SubmitProofResponse{Success: true}, http.StatusOK)
}

func (s *Server) CancelSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	// Cancellation is best effort and idempotent; a failed delete is logged
	// and still reported as success.
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.logger.Warn("failed to cancel session", zap.String("session_id", id), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// missingClaims computes which required claims the submission does not cover.
// Coverage comes from an explicit claims list in the envelope or, failing
// that, the attribute keys disclosed alongside the proof.
func missingClaims(required []string, sub *zk.Submission) []string {
	var covered []string
	if claims, ok := sub.Envelope["claims"]; ok {
		covered = session.NormalizeClaims(claims)
	} else if claims, ok := sub.Raw["claims"]; ok {
		covered = session.NormalizeClaims(claims)
	} else if attrs, ok := sub.Raw["attributes"].(map[string]interface{}); ok {
		covered = lo.Keys(attrs)
	}
	return lo.Without(required, covered...)
}
