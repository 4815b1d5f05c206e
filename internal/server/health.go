package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Version is the reported service version; overridden at build time with
// -ldflags "-X .../internal/server.Version=...".
var Version = "dev"

type HealthResponse struct {
	Status                   string   `json:"status"`
	Timestamp                string   `json:"timestamp"`
	Version                  string   `json:"version"`
	UptimeSeconds            int64    `json:"uptime_seconds"`
	SupportedCredentialTypes []string `json:"supported_credential_types"`
	VerificationEnabled      bool     `json:"verification_enabled"`
}

// Health reports liveness plus whether cryptographic verification is active.
// verification_enabled is the operator-visible switch for the dev-mode
// bypass: false means proofs are accepted without being checked.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	enabled := false
	for _, credType := range SupportedCredentialTypes {
		ok, err := s.registry.Enabled(r.Context(), credType)
		if err != nil {
			s.logger.Warn("failed to probe verification key", zap.String("credential_type", credType), zap.Error(err))
			continue
		}
		if ok {
			enabled = true
			break
		}
	}

	keyed, err := s.registry.SupportedTypes(r.Context())
	if err != nil {
		s.logger.Warn("failed to list verification keys", zap.Error(err))
	}
	if keyed == nil {
		keyed = []string{}
	}

	s.jsonResponse(w, HealthResponse{
		Status:                   "ok",
		Timestamp:                time.Now().UTC().Format(time.RFC3339),
		Version:                  Version,
		UptimeSeconds:            int64(time.Since(s.startedAt).Seconds()),
		SupportedCredentialTypes: keyed,
		VerificationEnabled:      enabled,
	}, http.StatusOK)
}
