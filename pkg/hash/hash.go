package hash

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"sort"
)

// Digest hashes message with the named algorithm. Unrecognized names fall
// back to SHA-256.
func Digest(message []byte, alg string) []byte {
	var hasher hash.Hash
	switch alg {
	case "SHA-512":
		hasher = sha512.New()
	default:
		hasher = sha256.New()
	}
	hasher.Write(message)
	return hasher.Sum(nil)
}

// ProofDigest computes a SHA-256 hex digest over a canonical serialization of
// the value. Object keys are sorted recursively, so semantically identical
// payloads that differ only in field order hash identically.
func ProofDigest(v interface{}) (string, error) {
	canonical, err := canonicalJSON(v)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize value: %v", err)
	}
	return hex.EncodeToString(Digest(canonical, "SHA-256")), nil
}

func canonicalJSON(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			vb, err := canonicalJSON(val[k])
			if err != nil {
				return nil, err
			}
			buf = append(buf, kb...)
			buf = append(buf, ':')
			buf = append(buf, vb...)
		}
		return append(buf, '}'), nil
	case []interface{}:
		buf := []byte{'['}
		for i, e := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			eb, err := canonicalJSON(e)
			if err != nil {
				return nil, err
			}
			buf = append(buf, eb...)
		}
		return append(buf, ']'), nil
	default:
		return json.Marshal(v)
	}
}
