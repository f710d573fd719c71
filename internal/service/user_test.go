package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/fixmart/fixmart/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users  map[string]*models.User
	nextID uint64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	if _, ok := f.users[user.Login]; ok {
		return nil, models.ErrConflictData
	}
	f.nextID++
	user.ID = f.nextID
	cp := *user
	f.users[user.Login] = &cp
	return user, nil
}

func (f *fakeUserRepo) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	user, ok := f.users[login]
	if !ok {
		return nil, models.ErrDataNotFound
	}
	cp := *user
	return &cp, nil
}

type stubTokenService struct{}

func (stubTokenService) CreateToken(user *models.User) (string, error) {
	return fmt.Sprintf("token-%d", user.ID), nil
}

func (stubTokenService) VerifyToken(string) (*models.TokenPayload, error) {
	return nil, nil
}

func TestUserService_Register(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), stubTokenService{})
	ctx := context.Background()

	token, err := svc.Register(ctx, "ivan", "secret", models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	_, err = svc.Register(ctx, "ivan", "secret", models.RoleUser)
	assert.ErrorIs(t, err, models.ErrConflictData)

	_, err = svc.Register(ctx, "", "secret", models.RoleUser)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Register(ctx, "petr", "", models.RoleUser)
	assert.ErrorIs(t, err, models.ErrValidation)

	// only requester and technician accounts self-register
	_, err = svc.Register(ctx, "root", "secret", models.RoleAdmin)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestUserService_Login(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), stubTokenService{})
	ctx := context.Background()

	_, err := svc.Register(ctx, "ivan", "secret", models.RoleElectrician)
	require.NoError(t, err)

	token, err := svc.Login(ctx, "ivan", "secret")
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	_, err = svc.Login(ctx, "ivan", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "ghost", "secret")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}
