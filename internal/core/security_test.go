// AngelaMos | 2026
// security_test.go

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	valid, err := VerifyPassword("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	first, err := HashPassword("same input")
	require.NoError(t, err)
	second, err := HashPassword("same input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyPasswordTimingSafe(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	t.Run("valid hash", func(t *testing.T) {
		valid, _, err := VerifyPasswordTimingSafe("secret1", &hash)
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("nil hash always fails", func(t *testing.T) {
		valid, rehash, err := VerifyPasswordTimingSafe("secret1", nil)
		require.NoError(t, err)
		assert.False(t, valid)
		assert.Empty(t, rehash)
	})

	t.Run("empty hash always fails", func(t *testing.T) {
		empty := ""
		valid, _, err := VerifyPasswordTimingSafe("secret1", &empty)
		require.NoError(t, err)
		assert.False(t, valid)
	})
}

func TestHashTokenDeterministic(t *testing.T) {
	token, err := GenerateActionToken()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	first := HashToken(token)
	second := HashToken(token)
	assert.Equal(t, first, second)
	assert.NotEqual(t, token, first)

	other, err := GenerateActionToken()
	require.NoError(t, err)
	assert.NotEqual(t, HashToken(other), first)
}

func TestCompareTokenHash(t *testing.T) {
	token, err := GenerateRefreshToken()
	require.NoError(t, err)

	hash := HashToken(token)
	assert.True(t, CompareTokenHash(token, hash))
	assert.False(t, CompareTokenHash("tampered", hash))
}
