package protocol

// ErrorCode enumerates every machine-readable error the relay returns.
// Wallets map each code to a distinct user-facing message, since the
// corrective action differs per code.
type ErrorCode string

const (
	CodeSessionNotFound         ErrorCode = "SESSION_NOT_FOUND"
	CodeSessionExpired          ErrorCode = "SESSION_EXPIRED"
	CodeSessionAlreadyCompleted ErrorCode = "SESSION_ALREADY_COMPLETED"
	CodeInvalidCredentialType   ErrorCode = "INVALID_CREDENTIAL_TYPE"
	CodeMissingRequiredClaim    ErrorCode = "MISSING_REQUIRED_CLAIM"
	CodeInvalidRequestBody      ErrorCode = "INVALID_REQUEST_BODY"
	CodeInvalidProofSchema      ErrorCode = "INVALID_PROOF_SCHEMA"
	CodeDuplicateProof          ErrorCode = "DUPLICATE_PROOF"
	CodeZKVerificationFailed    ErrorCode = "ZK_VERIFICATION_FAILED"
	CodeProofTooLarge           ErrorCode = "PROOF_TOO_LARGE"
	CodeDatabaseError           ErrorCode = "DATABASE_ERROR"
	CodeConfigurationError      ErrorCode = "CONFIGURATION_ERROR"
)

// APIError is the tagged error object the relay returns on any failure.
type APIError struct {
	Error   string                 `json:"error"`
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func NewAPIError(code ErrorCode, message string, details map[string]interface{}) *APIError {
	return &APIError{
		Error:   string(code),
		Code:    code,
		Message: message,
		Details: details,
	}
}
