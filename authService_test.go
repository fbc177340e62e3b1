package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/raiyanplanet/Wibloo/models"
)

var testConfig = models.Config{JWTSecret: []byte("test-secret-32-bytes-long-enough")}

func TestRegister(t *testing.T) {
	repo := newFakeRepo()
	svc := newAuthService(repo, testConfig)

	id, err := svc.Register(context.Background(), "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	user := repo.users[id]
	require.Equal(t, "alice", user.Username)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))

	// Same username again.
	_, err = svc.Register(context.Background(), "alice", "other@example.com", "s3cret")
	require.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestRegisterValidation(t *testing.T) {
	repo := newFakeRepo()
	svc := newAuthService(repo, testConfig)

	cases := []struct{ username, email, password string }{
		{"a", "alice@example.com", "s3cret"},
		{"alice", "not-an-email", "s3cret"},
		{"alice", "alice@example.com", "abc"},
	}
	for _, c := range cases {
		_, err := svc.Register(context.Background(), c.username, c.email, c.password)
		require.Equal(t, codes.InvalidArgument, status.Code(err))
	}
	require.Empty(t, repo.users)
}

func TestLogin(t *testing.T) {
	repo := newFakeRepo()
	svc := newAuthService(repo, testConfig)

	id, err := svc.Register(context.Background(), "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)
	subject, err := ValidateToken(token, testConfig.JWTSecret)
	require.NoError(t, err)
	require.Equal(t, id, subject)

	_, err = svc.Login(context.Background(), "alice@example.com", "wrong")
	require.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = svc.Login(context.Background(), "nobody@example.com", "s3cret")
	require.Equal(t, codes.NotFound, status.Code(err))
}
