package wallet

import (
	"github.com/kokukuma/zero-auth/protocol"
)

// FindMatches selects the credentials able to answer a verification request:
// the type must equal the requested credential type and every required claim
// must be present as an attribute key. Pure filter, no side effects; results
// keep the insertion order of the input so a caller presenting a choice shows
// a stable list. Choosing among multiple matches is the caller's job.
func FindMatches(credentials []*Credential, request *protocol.VerificationRequest) []*Credential {
	matches := make([]*Credential, 0, len(credentials))

	for _, cred := range credentials {
		if cred.Type != request.CredentialType {
			continue
		}
		if !hasAllClaims(cred, request.RequiredClaims) {
			continue
		}
		matches = append(matches, cred)
	}
	return matches
}

func hasAllClaims(cred *Credential, claims []string) bool {
	for _, claim := range claims {
		if _, ok := cred.Attributes[claim]; !ok {
			return false
		}
	}
	return true
}
