package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kutay/teacherportal/internal/app/models"
	"github.com/kutay/teacherportal/internal/app/models/dto"
	"github.com/kutay/teacherportal/internal/pkg/apperrors"
	"github.com/kutay/teacherportal/internal/pkg/auth"
)

type fakeUserRepository struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: make(map[int64]*models.User), nextID: 1}
}

func (f *fakeUserRepository) CreateUser(_ context.Context, user *models.User) (int64, error) {
	for _, u := range f.users {
		if u.Email == user.Email {
			return 0, apperrors.ErrEmailAlreadyExists
		}
	}
	user.ID = f.nextID
	f.nextID++
	copy := *user
	f.users[user.ID] = &copy
	return user.ID, nil
}

func (f *fakeUserRepository) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	copy := *u
	return &copy, nil
}

func (f *fakeUserRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUserRepository) EmailExists(_ context.Context, email string) (bool, error) {
	_, err := f.GetUserByEmail(context.Background(), email)
	return err == nil, nil
}

func (f *fakeUserRepository) UpdateLastLogin(_ context.Context, userID int64) error {
	u, ok := f.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	return nil
}

type storedToken struct {
	userID  int64
	expiry  time.Time
	revoked bool
}

type fakeTokenRepository struct {
	tokens map[string]*storedToken
}

func newFakeTokenRepository() *fakeTokenRepository {
	return &fakeTokenRepository{tokens: make(map[string]*storedToken)}
}

func (f *fakeTokenRepository) CreateToken(_ context.Context, token string, userID int64, expiryDate time.Time) error {
	f.tokens[token] = &storedToken{userID: userID, expiry: expiryDate}
	return nil
}

func (f *fakeTokenRepository) GetTokenUserID(_ context.Context, token string) (int64, error) {
	t, ok := f.tokens[token]
	if !ok {
		return 0, apperrors.ErrTokenNotFound
	}
	if t.revoked {
		return 0, apperrors.ErrTokenRevoked
	}
	if t.expiry.Before(time.Now()) {
		return 0, apperrors.ErrTokenExpired
	}
	return t.userID, nil
}

func (f *fakeTokenRepository) RevokeToken(_ context.Context, token string) error {
	t, ok := f.tokens[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	t.revoked = true
	return nil
}

func (f *fakeTokenRepository) RevokeAllUserTokens(_ context.Context, userID int64) error {
	for _, t := range f.tokens {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

func (f *fakeTokenRepository) DeleteExpiredTokens(_ context.Context) (int64, error) {
	var deleted int64
	for token, t := range f.tokens {
		if t.expiry.Before(time.Now()) {
			delete(f.tokens, token)
			deleted++
		}
	}
	return deleted, nil
}

func authFixture() (AuthService, *fakeUserRepository, *fakeTokenRepository) {
	userRepo := newFakeUserRepository()
	tokenRepo := newFakeTokenRepository()
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "teacherportal.test",
	})
	return NewAuthService(userRepo, tokenRepo, jwtService), userRepo, tokenRepo
}

func registerRequest() *dto.RegisterRequest {
	return &dto.RegisterRequest{
		Email:     "teacher@school.edu",
		Password:  "s3cret-password",
		FirstName: "Jane",
		LastName:  "Doe",
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an account and issues tokens", func(t *testing.T) {
		svc, userRepo, tokenRepo := authFixture()

		response, err := svc.Register(ctx, registerRequest())
		require.NoError(t, err)
		assert.NotEmpty(t, response.Token.AccessToken)
		assert.NotEmpty(t, response.Token.RefreshToken)
		assert.Equal(t, "teacher@school.edu", response.User.Email)

		// Password is stored hashed
		stored := userRepo.users[response.User.ID]
		assert.NotEqual(t, "s3cret-password", stored.Password)
		assert.Len(t, tokenRepo.tokens, 1)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		svc, _, _ := authFixture()

		_, err := svc.Register(ctx, registerRequest())
		require.NoError(t, err)

		_, err = svc.Register(ctx, registerRequest())
		assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
	})

	t.Run("email is normalized to lower case", func(t *testing.T) {
		svc, _, _ := authFixture()

		req := registerRequest()
		req.Email = "Teacher@School.EDU"
		response, err := svc.Register(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "teacher@school.edu", response.User.Email)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials issue tokens and stamp last login", func(t *testing.T) {
		svc, userRepo, _ := authFixture()
		registered, err := svc.Register(ctx, registerRequest())
		require.NoError(t, err)

		response, err := svc.Login(ctx, &dto.LoginRequest{Email: "teacher@school.edu", Password: "s3cret-password"})
		require.NoError(t, err)
		assert.NotEmpty(t, response.Token.AccessToken)
		assert.NotNil(t, userRepo.users[registered.User.ID].LastLoginAt)
	})

	t.Run("wrong password fails with invalid credentials", func(t *testing.T) {
		svc, _, _ := authFixture()
		_, err := svc.Register(ctx, registerRequest())
		require.NoError(t, err)

		_, err = svc.Login(ctx, &dto.LoginRequest{Email: "teacher@school.edu", Password: "wrong"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("unknown email fails with invalid credentials, not user not found", func(t *testing.T) {
		svc, _, _ := authFixture()

		_, err := svc.Login(ctx, &dto.LoginRequest{Email: "nobody@school.edu", Password: "whatever"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("disabled account is refused", func(t *testing.T) {
		svc, userRepo, _ := authFixture()
		registered, err := svc.Register(ctx, registerRequest())
		require.NoError(t, err)

		userRepo.users[registered.User.ID].IsActive = false

		_, err = svc.Login(ctx, &dto.LoginRequest{Email: "teacher@school.edu", Password: "s3cret-password"})
		assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
	})
}

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the refresh token", func(t *testing.T) {
		svc, _, tokenRepo := authFixture()
		registered, err := svc.Register(ctx, registerRequest())
		require.NoError(t, err)

		oldToken := registered.Token.RefreshToken
		response, err := svc.RefreshToken(ctx, oldToken)
		require.NoError(t, err)
		assert.NotEqual(t, oldToken, response.RefreshToken)

		// The old token is revoked and cannot be replayed
		assert.True(t, tokenRepo.tokens[oldToken].revoked)
		_, err = svc.RefreshToken(ctx, oldToken)
		assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		svc, _, _ := authFixture()

		_, err := svc.RefreshToken(ctx, "no-such-token")
		assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes the refresh token", func(t *testing.T) {
		svc, _, tokenRepo := authFixture()
		registered, err := svc.Register(ctx, registerRequest())
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, registered.Token.RefreshToken))
		assert.True(t, tokenRepo.tokens[registered.Token.RefreshToken].revoked)
	})

	t.Run("unknown token logs out without error", func(t *testing.T) {
		svc, _, _ := authFixture()
		assert.NoError(t, svc.Logout(ctx, "no-such-token"))
	})
}

func TestLogoutAll(t *testing.T) {
	ctx := context.Background()

	svc, _, tokenRepo := authFixture()
	registered, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	// A second session for the same user, plus another user's session
	second, err := svc.Login(ctx, &dto.LoginRequest{Email: "teacher@school.edu", Password: "s3cret-password"})
	require.NoError(t, err)

	otherReq := registerRequest()
	otherReq.Email = "other@school.edu"
	other, err := svc.Register(ctx, otherReq)
	require.NoError(t, err)

	require.NoError(t, svc.LogoutAll(ctx, registered.User.ID))

	assert.True(t, tokenRepo.tokens[registered.Token.RefreshToken].revoked)
	assert.True(t, tokenRepo.tokens[second.Token.RefreshToken].revoked)
	assert.False(t, tokenRepo.tokens[other.Token.RefreshToken].revoked)

	_, err = svc.RefreshToken(ctx, registered.Token.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}

func TestCleanupExpiredTokens(t *testing.T) {
	ctx := context.Background()

	svc, _, tokenRepo := authFixture()
	require.NoError(t, tokenRepo.CreateToken(ctx, "stale", 1, time.Now().Add(-time.Hour)))
	require.NoError(t, tokenRepo.CreateToken(ctx, "live", 1, time.Now().Add(time.Hour)))

	deleted, err := svc.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, stale := tokenRepo.tokens["stale"]
	assert.False(t, stale)
	_, live := tokenRepo.tokens["live"]
	assert.True(t, live)
}
