package auth

import (
	"testing"

	"github.com/fixmart/fixmart/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthToken(t *testing.T) {
	at := NewAuthToken([]byte("0123456789abcdef"))

	token, err := at.CreateToken(&models.User{ID: 42, Login: "ivan", Role: models.RoleElectrician})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	payload, err := at.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), payload.UserID)
	assert.Equal(t, models.RoleElectrician, payload.Role)

	// a token signed with another key is rejected
	other := NewAuthToken([]byte("fedcba9876543210"))
	_, err = other.VerifyToken(token)
	assert.Error(t, err)

	_, err = at.VerifyToken("not-a-token")
	assert.Error(t, err)
}
