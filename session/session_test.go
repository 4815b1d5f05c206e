package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeClaims(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
		want []string
	}{
		{
			name: "native string slice",
			raw:  []string{"birth_year", "country"},
			want: []string{"birth_year", "country"},
		},
		{
			name: "duplicates collapsed keeping order",
			raw:  []string{"country", "birth_year", "country"},
			want: []string{"country", "birth_year"},
		},
		{
			name: "generic interface slice",
			raw:  []interface{}{"birth_year", "country"},
			want: []string{"birth_year", "country"},
		},
		{
			name: "json encoded string",
			raw:  `["birth_year","country"]`,
			want: []string{"birth_year", "country"},
		},
		{
			name: "empty string",
			raw:  "",
			want: nil,
		},
		{
			name: "unparsable string treated as empty",
			raw:  "birth_year,country",
			want: nil,
		},
		{
			name: "non string element",
			raw:  []interface{}{"birth_year", 42},
			want: nil,
		},
		{
			name: "nil",
			raw:  nil,
			want: nil,
		},
		{
			name: "unexpected type",
			raw:  map[string]interface{}{"a": "b"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeClaims(tt.raw))
		})
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	sess := &Session{ExpiresAt: now.Add(time.Minute)}
	require.False(t, sess.Expired(now))
	require.True(t, sess.Expired(now.Add(2*time.Minute)))
}
