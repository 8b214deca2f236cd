package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
		attempt  string
		want     bool
	}{
		{"same password", "Abcd123!", "Abcd123!", true},
		{"different password", "Abcd123!", "Abcd123?", false},
		{"case matters", "Abcd123!", "abcd123!", false},
		{"empty attempt", "Abcd123!", "", false},
		{"unicode", "pässwörd€1A!", "pässwörd€1A!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			digest, err := h.Hash(tt.password)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, digest)
			assert.Equal(t, tt.want, h.Verify(tt.attempt, digest))
		})
	}
}

func TestPasswordHasher_SaltedDigests(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	d1, err := h.Hash("Abcd123!")
	require.NoError(t, err)
	d2, err := h.Hash("Abcd123!")
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
	assert.True(t, h.Verify("Abcd123!", d1))
	assert.True(t, h.Verify("Abcd123!", d2))
}

func TestPasswordHasher_TruncatesAt72Bytes(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	base := strings.Repeat("a", 72)

	digest, err := h.Hash(base + "tail-one")
	require.NoError(t, err)

	assert.True(t, h.Verify(base+"tail-two", digest))
	assert.True(t, h.Verify(base, digest))
	assert.False(t, h.Verify(base[:71], digest))
}

func TestPasswordHasher_TruncatesBytesNotRunes(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	// 36 two-byte runes fill the limit exactly.
	base := strings.Repeat("é", 36)

	digest, err := h.Hash(base + "é")
	require.NoError(t, err)
	assert.True(t, h.Verify(base, digest))
}

func TestPasswordHasher_VerifyMalformedDigest(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	for _, digest := range []string{"", "not-a-hash", "$2a$10$short", "$2a$99$" + strings.Repeat("x", 53)} {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify("Abcd123!", digest))
		})
	}
}

func TestNewPasswordHasher_InvalidCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(100).cost)
	assert.Equal(t, 12, NewPasswordHasher(12).cost)
}

func TestPasswordHasher_VerifyDummyUsesHasherCost(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost + 2)

	h.VerifyDummy("whatever")
	h.VerifyDummy("again")

	require.NotNil(t, h.dummy)
	cost, err := bcrypt.Cost(h.dummy)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+2, cost)
}
