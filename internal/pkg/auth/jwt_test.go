package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kutay/teacherportal/internal/app/models"
)

func testJWTService(accessExp time.Duration) *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:       "test-secret-key",
		AccessTokenExp:  accessExp,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "teacherportal.test",
	})
}

func testUser() *models.User {
	return &models.User{ID: 7, Email: "teacher@school.edu"}
}

func TestGenerateTokenPair(t *testing.T) {
	svc := testJWTService(time.Hour)

	accessToken, refreshToken, expiresIn, refreshExpiresIn, err := svc.GenerateTokenPair(testUser())
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)
	assert.NotEmpty(t, refreshToken)
	assert.Equal(t, int(time.Hour.Seconds()), expiresIn)
	assert.Equal(t, int((24 * time.Hour).Seconds()), refreshExpiresIn)

	// Refresh token is opaque, not a JWT
	assert.NotContains(t, refreshToken, ".")
}

func TestValidateToken(t *testing.T) {
	t.Run("valid token round-trips its claims", func(t *testing.T) {
		svc := testJWTService(time.Hour)
		accessToken, _, _, _, err := svc.GenerateTokenPair(testUser())
		require.NoError(t, err)

		claims, err := svc.ValidateToken(accessToken)
		require.NoError(t, err)
		assert.Equal(t, int64(7), claims.UserID)
		assert.Equal(t, "teacher@school.edu", claims.Email)
		assert.Equal(t, "teacherportal.test", claims.Issuer)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		svc := testJWTService(-time.Minute)
		accessToken, _, _, _, err := svc.GenerateTokenPair(testUser())
		require.NoError(t, err)

		_, err = svc.ValidateToken(accessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("token signed with another key is rejected", func(t *testing.T) {
		svc := testJWTService(time.Hour)
		accessToken, _, _, _, err := svc.GenerateTokenPair(testUser())
		require.NoError(t, err)

		other := NewJWTService(JWTConfig{
			SecretKey:       "different-secret",
			AccessTokenExp:  time.Hour,
			RefreshTokenExp: time.Hour,
			TokenIssuer:     "teacherportal.test",
		})
		_, err = other.ValidateToken(accessToken)
		assert.Error(t, err)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		svc := testJWTService(time.Hour)
		_, err := svc.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestValidateAndExtractClaims(t *testing.T) {
	svc := testJWTService(time.Hour)

	t.Run("empty token is invalid", func(t *testing.T) {
		_, err := svc.ValidateAndExtractClaims("")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("valid token passes", func(t *testing.T) {
		accessToken, _, _, _, err := svc.GenerateTokenPair(testUser())
		require.NoError(t, err)

		claims, err := svc.ValidateAndExtractClaims(accessToken)
		require.NoError(t, err)
		assert.Equal(t, int64(7), claims.UserID)
	})
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hash)

	assert.True(t, CheckPassword(hash, "s3cret-password"))
	assert.False(t, CheckPassword(hash, "wrong-password"))
}
