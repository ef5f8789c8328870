package jwtverify

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveUsername(t *testing.T) {
	tests := []struct {
		name    string
		claims  jwt.MapClaims
		field   string
		want    string
		wantErr error
	}{
		{
			name:   "email is cut at the at sign",
			claims: jwt.MapClaims{"upn": "user@example.com"},
			field:  "upn",
			want:   "user",
		},
		{
			name:   "plain username unchanged",
			claims: jwt.MapClaims{"upn": "plainuser"},
			field:  "upn",
			want:   "plainuser",
		},
		{
			name:   "only the first at sign matters",
			claims: jwt.MapClaims{"upn": "a@b@c"},
			field:  "upn",
			want:   "a",
		},
		{
			name:   "no trimming or case folding",
			claims: jwt.MapClaims{"email": " Alice.Smith@Corp.COM"},
			field:  "email",
			want:   " Alice.Smith",
		},
		{
			name:   "custom field",
			claims: jwt.MapClaims{"upn": "ignored@x", "preferred_username": "bob"},
			field:  "preferred_username",
			want:   "bob",
		},
		{
			name:   "leading at sign yields empty username",
			claims: jwt.MapClaims{"upn": "@corp.com"},
			field:  "upn",
			want:   "",
		},
		{
			name:    "missing field",
			claims:  jwt.MapClaims{"sub": "123"},
			field:   "upn",
			wantErr: ErrClaimMissing,
		},
		{
			name:    "non-string field",
			claims:  jwt.MapClaims{"upn": float64(42)},
			field:   "upn",
			wantErr: ErrClaimNotString,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveUsername(tt.claims, tt.field)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
