package server

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kokukuma/zero-auth/protocol"
	"github.com/kokukuma/zero-auth/session"
	"github.com/kokukuma/zero-auth/zk"
)

// SupportedCredentialTypes is the fixed set of credential types a session can
// be created for.
var SupportedCredentialTypes = []string{
	"Age Verification",
	"Student ID",
	"Trial",
}

const (
	defaultVerifierName = "Zero Auth Verifier"
	verifierDID         = "did:web:relay.zeroauth.app"
)

type Option func(*Server)

// WithSessionTTL overrides the default session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.sessionTTL = ttl
	}
}

// WithSigningKey enables QR payload integrity signatures.
func WithSigningKey(key *ecdsa.PrivateKey) Option {
	return func(s *Server) {
		s.sigKey = key
	}
}

// Server hosts the verification-session REST surface.
type Server struct {
	store      session.Store
	registry   *zk.Registry
	verifier   zk.Verifier
	logger     *zap.Logger
	publicURL  string
	sessionTTL time.Duration
	sigKey     *ecdsa.PrivateKey
	startedAt  time.Time
}

func NewServer(store session.Store, registry *zk.Registry, verifier zk.Verifier, publicURL string, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		store:      store,
		registry:   registry,
		verifier:   verifier,
		logger:     logger,
		publicURL:  publicURL,
		sessionTTL: session.DefaultTTL,
		startedAt:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP surface. CORS and other outer middleware
// are applied by the caller.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/sessions", s.CreateSession).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/v1/sessions/{id}", s.GetSession).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/v1/sessions/{id}/proof", s.SubmitProof).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/v1/sessions/{id}", s.CancelSession).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/health", s.Health).Methods("GET", "OPTIONS")
	return r
}

func parseJSON(r *http.Request, v interface{}) error {
	if r == nil || r.Body == nil {
		return errors.New("no request given")
	}

	defer r.Body.Close()
	defer io.Copy(io.Discard, r.Body)

	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) jsonResponse(w http.ResponseWriter, d interface{}, c int) {
	dj, err := json.Marshal(d)
	if err != nil {
		http.Error(w, "Error creating JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(c)
	fmt.Fprintf(w, "%s", dj)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, code protocol.ErrorCode, message string, details map[string]interface{}) {
	s.logger.Info("request rejected",
		zap.Int("status", status),
		zap.String("code", string(code)),
		zap.String("message", message))
	s.jsonResponse(w, protocol.NewAPIError(code, message, details), status)
}
