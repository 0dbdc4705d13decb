package services

import (
	"context"
	"errors"
	"fmt"

	"facegram/internal/auth"
	"facegram/internal/config"
	"facegram/internal/models"
	"facegram/internal/storage"

	"gorm.io/gorm"
)

var (
	ErrUserAlreadyExists  = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("username or password is wrong")
)

// AuthService defines the interface for user authentication.
type AuthService interface {
	Register(ctx context.Context, username, fullname, email, password string) (token string, user *models.User, err error)
	Login(ctx context.Context, username, password string) (token string, user *models.User, err error)
}

type authService struct {
	userRepo storage.UserRepository
	cfg      config.Config
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(userRepo storage.UserRepository, cfg config.Config) AuthService {
	return &authService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// Register handles user registration. Username and email must both be unique.
// A token is issued right away so the client is logged in after registering.
func (s *authService) Register(ctx context.Context, username, fullname, email, password string) (string, *models.User, error) {
	_, err := s.userRepo.GetByUsername(ctx, username)
	if err == nil {
		return "", nil, ErrUserAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("failed to check username: %w", err)
	}

	_, err = s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return "", nil, ErrUserAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := &models.User{
		Username:     username,
		Fullname:     fullname,
		Email:        email,
		PasswordHash: hashedPassword,
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return "", nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := auth.GenerateToken(newUser.ID, newUser.Username, s.cfg.Auth)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, newUser, nil
}

// Login handles user login. Unknown usernames and wrong passwords produce the
// same error so the response does not reveal which one failed.
func (s *authService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidCredentials
	} else if err != nil {
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Username, s.cfg.Auth)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, user, nil
}
