package service

import (
	"context"
	"errors"
	"fmt"

	"user_admin/internal/model"
	"user_admin/internal/repository"
	"user_admin/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
)

// AuthService provides authentication related services
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
	CurrentUser(ctx context.Context, username string) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	jwtUtil  *utils.JWTUtil
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, jwtUtil *utils.JWTUtil) AuthService {
	return &authService{
		userRepo: userRepo,
		jwtUtil:  jwtUtil,
	}
}

// Login verifies credentials and returns a signed bearer token. An unknown
// username and a wrong password both yield ErrInvalidCredentials so callers
// cannot probe which usernames exist.
func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("error finding user by username: %w", err)
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.jwtUtil.GenerateToken(user.Username, user.Role)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return token, nil
}

// CurrentUser loads the authenticated user's record from the store
func (s *authService) CurrentUser(ctx context.Context, username string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("error finding user by username: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
