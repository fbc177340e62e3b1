package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundtrip(t *testing.T) {
	secret := []byte("test-secret-32-bytes-long-enough")

	token, err := GenerateToken("user-1", secret)
	require.NoError(t, err)

	subject, err := ValidateToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "user-1", subject)

	_, err = ValidateToken(token, []byte("a-different-secret-entirely-here"))
	require.Error(t, err)

	_, err = ValidateToken("not.a.token", secret)
	require.Error(t, err)
}

func TestCheckRegistration(t *testing.T) {
	require.NoError(t, checkRegistration("alice", "alice@example.com", "s3cret"))
	require.Error(t, checkRegistration("a", "alice@example.com", "s3cret"))
	require.Error(t, checkRegistration("alice", "alice@", "s3cret"))
	require.Error(t, checkRegistration("alice", "alice.example.com", "s3cret"))
	require.Error(t, checkRegistration("alice", "alice@example.com", "abc"))
}
