package hash

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProofDigest_FieldOrderIndependent(t *testing.T) {
	var a, b map[string]interface{}

	err := json.Unmarshal([]byte(`{"pi_a":["1","2"],"pi_b":[["3","4"]],"protocol":"groth16"}`), &a)
	require.NoError(t, err)
	err = json.Unmarshal([]byte(`{"protocol":"groth16","pi_b":[["3","4"]],"pi_a":["1","2"]}`), &b)
	require.NoError(t, err)

	da, err := ProofDigest(a)
	require.NoError(t, err)
	db, err := ProofDigest(b)
	require.NoError(t, err)

	require.Equal(t, da, db)
}

func TestProofDigest_DistinguishesValues(t *testing.T) {
	d1, err := ProofDigest(map[string]interface{}{"pi_a": []interface{}{"1"}})
	require.NoError(t, err)
	d2, err := ProofDigest(map[string]interface{}{"pi_a": []interface{}{"2"}})
	require.NoError(t, err)

	require.NotEqual(t, d1, d2)
}

func TestProofDigest_NestedMapsSorted(t *testing.T) {
	d1, err := ProofDigest(map[string]interface{}{
		"outer": map[string]interface{}{"b": "2", "a": "1"},
	})
	require.NoError(t, err)
	d2, err := ProofDigest(map[string]interface{}{
		"outer": map[string]interface{}{"a": "1", "b": "2"},
	})
	require.NoError(t, err)

	require.Equal(t, d1, d2)
}

func TestDigest(t *testing.T) {
	tests := []struct {
		name string
		alg  string
		want string
	}{
		{
			name: "SHA-256",
			alg:  "SHA-256",
			want: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
		{
			name: "SHA-512",
			alg:  "SHA-512",
			want: "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f",
		},
		{
			name: "unrecognized algorithm falls back to SHA-256",
			alg:  "MD5",
			want: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Digest([]byte("abc"), tt.alg)
			require.Equal(t, tt.want, hex.EncodeToString(got))
		})
	}
}

func TestProofDigest_UsesDigest(t *testing.T) {
	d, err := ProofDigest(map[string]interface{}{"pi_a": []interface{}{"1"}})
	require.NoError(t, err)
	require.Equal(t, hex.EncodeToString(Digest([]byte(`{"pi_a":["1"]}`), "SHA-256")), d)
}
