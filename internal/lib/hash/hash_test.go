package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPassword_RoundTrip(t *testing.T) {
	cases := []string{
		"secret123",
		"пароль-с-юникодом",
		"日本語のパスワード",
	}

	for _, password := range cases {
		digest, err := Password(password)
		require.NoError(t, err)
		require.NotEmpty(t, digest)
		require.NotEqual(t, password, digest)

		require.True(t, Verify(password, digest))
		require.False(t, Verify(password+"x", digest))
	}
}

func TestPassword_LongInputTruncated(t *testing.T) {
	long := strings.Repeat("long", 50)

	digest, err := Password(long)
	require.NoError(t, err)

	// bcrypt only sees the first 72 bytes
	require.True(t, Verify(long, digest))
	require.True(t, Verify(long[:72], digest))
	require.False(t, Verify(long[:71], digest))
}

func TestPassword_Empty(t *testing.T) {
	_, err := Password("")
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestVerify_EmptyInputs(t *testing.T) {
	digest, err := Password("secret123")
	require.NoError(t, err)

	require.False(t, Verify("", digest))
	require.False(t, Verify("secret123", ""))
	require.False(t, Verify("", ""))
}

func TestPassword_DistinctDigests(t *testing.T) {
	first, err := Password("secret123")
	require.NoError(t, err)

	second, err := Password("secret123")
	require.NoError(t, err)

	// salted, so two hashes of the same password differ
	require.NotEqual(t, first, second)
	require.True(t, Verify("secret123", first))
	require.True(t, Verify("secret123", second))
}
