package main

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/raiyanplanet/Wibloo/models"
	"github.com/raiyanplanet/Wibloo/socialRepo"
)

// authService is the issuing edge of the identity subsystem: it mints
// the tokens the auth middleware resolves on every request.
type authService struct {
	users  socialRepo.UserRepo
	config models.Config
}

func newAuthService(users socialRepo.UserRepo, config models.Config) *authService {
	return &authService{users: users, config: config}
}

func (s *authService) Register(ctx context.Context, username, email, password string) (string, error) {
	if err := checkRegistration(username, email, password); err != nil {
		return "", status.Error(codes.InvalidArgument, err.Error())
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", status.Error(codes.Internal, "Internal error")
	}
	id, err := s.users.CreateUser(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, socialRepo.ErrDuplicate) {
			return "", status.Error(codes.AlreadyExists, "User already exists")
		}
		return "", mapRepoErr(err, "User")
	}
	return id, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, socialRepo.ErrNotFound) {
			return "", status.Error(codes.NotFound, "User does not exist")
		}
		return "", mapRepoErr(err, "User")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", status.Error(codes.Unauthenticated, "Invalid credentials")
	}
	token, err := GenerateToken(user.Id, s.config.JWTSecret)
	if err != nil {
		return "", status.Error(codes.Internal, "Internal error")
	}
	return token, nil
}
