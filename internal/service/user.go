package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fixmart/fixmart/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is interface for interacting with user-related data
type UserRepository interface {
	// CreateUser inserts new user to database
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByLogin returns user by login
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}

// UserService implements registration and login
type UserService struct {
	repo  UserRepository
	token TokenService
}

// NewUserService creates new UserService instance
func NewUserService(repo UserRepository, token TokenService) *UserService {
	return &UserService{
		repo:  repo,
		token: token,
	}
}

// Register creates new account with given role and returns auth token
func (us *UserService) Register(ctx context.Context, login, password, role string) (string, error) {
	if login == "" || password == "" {
		return "", fmt.Errorf("%w: login and password are required", models.ErrValidation)
	}
	if role != models.RoleUser && role != models.RoleElectrician {
		return "", fmt.Errorf("%w: unknown role", models.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user, err := us.repo.CreateUser(ctx, &models.User{
		Login:        login,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		return "", err
	}

	return us.token.CreateToken(user)
}

// Login verifies credentials and returns auth token
func (us *UserService) Login(ctx context.Context, login, password string) (string, error) {
	user, err := us.repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, models.ErrDataNotFound) {
			return "", models.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	return us.token.CreateToken(user)
}
