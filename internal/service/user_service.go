package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"user_admin/internal/model"
	"user_admin/internal/repository"
	"user_admin/internal/utils"
)

var (
	ErrUserAlreadyExists = errors.New("username or email already exists")
	ErrInvalidRole       = errors.New("role must be one of admin, editor, reader")
)

// UserService defines operations for user management
type UserService interface {
	ListUsers(ctx context.Context) ([]model.PublicUser, error)
	CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error)
	UpdateUser(ctx context.Context, username string, req model.UpdateUserRequest) (*model.User, error)
	DeleteUser(ctx context.Context, username string) error
}

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) ListUsers(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	public := make([]model.PublicUser, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}
	return public, nil
}

func (s *userService) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	if !model.ValidRole(req.Role) {
		return nil, ErrInvalidRole
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         req.Role,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user in repository: %w", err)
	}
	return user, nil
}

// UpdateUser applies partial changes. An omitted password leaves the stored hash untouched.
func (s *userService) UpdateUser(ctx context.Context, username string, req model.UpdateUserRequest) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for update: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if req.Role != nil {
		if !model.ValidRole(*req.Role) {
			return nil, ErrInvalidRole
		}
		user.Role = *req.Role
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		hashedPassword, err := utils.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hashedPassword
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to update user in repository: %w", err)
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, username string) error {
	deleted, err := s.userRepo.Delete(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to delete user in repository: %w", err)
	}
	if !deleted {
		return ErrUserNotFound
	}
	return nil
}
