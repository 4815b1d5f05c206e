package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kokukuma/zero-auth/protocol"
	"github.com/kokukuma/zero-auth/zk"
)

// SubmissionError is a relay rejection carrying the machine-readable code so
// the orchestrator can surface a specific message per failure.
type SubmissionError struct {
	Code    protocol.ErrorCode
	Message string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("proof rejected (%s): %s", e.Code, e.Message)
}

// RelayClient submits proofs to a session's callback URL.
type RelayClient struct {
	httpClient *http.Client
}

func NewRelayClient() *RelayClient {
	return &RelayClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SubmitProof posts the proof to the callback from the QR payload, together
// with the claim names it covers. A non-2xx response with a recognizable
// error body becomes a SubmissionError.
func (c *RelayClient) SubmitProof(ctx context.Context, callback string, proof *zk.Proof, claims []string) error {
	body, err := json.Marshal(map[string]interface{}{"proof": proof, "claims": claims})
	if err != nil {
		return fmt.Errorf("failed to encode proof: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callback, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build submission request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr protocol.APIError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Code == "" {
		return fmt.Errorf("relay rejected proof with status %d", resp.StatusCode)
	}
	return &SubmissionError{Code: apiErr.Code, Message: apiErr.Message}
}

// CancelSession best-effort deletes the session; failures are not meaningful
// to the holder, so errors are swallowed.
func (c *RelayClient) CancelSession(ctx context.Context, sessionURL string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, sessionURL, nil)
	if err != nil {
		return
	}
	if resp, err := c.httpClient.Do(req); err == nil {
		resp.Body.Close()
	}
}
