package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndCompareHash(t *testing.T) {
	hash, err := CreateHash("correct horse battery staple", Params)
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	match, err := ComparePasswordAndHash("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = ComparePasswordAndHash("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestHashesAreSalted(t *testing.T) {
	a, err := CreateHash("same password", Params)
	require.NoError(t, err)
	b, err := CreateHash("same password", Params)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecodeHashRejectsMalformed(t *testing.T) {
	_, _, _, err := DecodeHash("$argon2id$bogus")
	assert.ErrorIs(t, err, ErrInvalidHash)
}
