package usecase

import (
	"context"
	"testing"

	"festival-chat-api/apperror"
	"festival-chat-api/config/common"
	"festival-chat-api/config/logger"
	"festival-chat-api/dto/req"
	"festival-chat-api/entity"
	"festival-chat-api/enum"
	"festival-chat-api/repository"
	"festival-chat-api/security"
	"festival-chat-api/testkit"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuth(t *testing.T, f *fixture) (AuthUsecase, *security.JWT) {
	t.Helper()
	v := viper.New()
	v.Set("JWT_SECRET", "access-secret")
	v.Set("JWT_REFRESH_SECRET", "refresh-secret")
	jwt := security.NewJWT(common.NewConfig(v))

	auth := NewAuthUsecase(repository.NewAuthRepository(), repository.NewUserRepository(),
		validator.New(validator.WithRequiredStructEnabled()), f.DB, logger.NewNopLogger(), jwt,
		security.NewPassword(bcrypt.MinCost), f.Policy, testkit.NewGuard())
	return auth, jwt
}

func refreshTokenCount(t *testing.T, f *fixture, accountID string) int64 {
	t.Helper()
	count, err := repository.NewAuthRepository().CountRefreshTokens(context.Background(), f.DB, accountID)
	require.NoError(t, err)
	return count
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	auth, jwt := newAuth(t, f)
	ctx := context.Background()

	registered, err := auth.RegisterUser(ctx, &req.RegisterRequest{Name: " Alice ", Email: " Alice@Festival.Test ", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", registered.User.Name)
	assert.Equal(t, "alice@festival.test", registered.User.Email)
	assert.Equal(t, enum.RoleMember, registered.User.Role)
	assert.NotNil(t, registered.User.LastLoginAt)

	userID, err := jwt.GetUserIdFromToken(registered.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, userID)

	_, err = auth.RegisterUser(ctx, &req.RegisterRequest{Name: "Alice", Email: "alice@festival.test", Password: "secret123"})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	_, err = auth.RegisterUser(ctx, &req.RegisterRequest{Name: "A", Email: "not-an-email", Password: "123"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Len(t, appErr.Fields, 3)

	loggedIn, err := auth.LoginUser(ctx, &req.LoginRequest{Email: "ALICE@festival.test", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	_, err = auth.LoginUser(ctx, &req.LoginRequest{Email: "alice@festival.test", Password: "wrong"})
	assert.True(t, apperror.Is(err, apperror.KindAuthentication))
	_, err = auth.LoginUser(ctx, &req.LoginRequest{Email: "nobody@festival.test", Password: "wrong"})
	assert.True(t, apperror.Is(err, apperror.KindAuthentication))
}

func TestRegisterBootstrapAdmin(t *testing.T) {
	f := newFixture(t)
	auth, _ := newAuth(t, f)

	registered, err := auth.RegisterUser(context.Background(), &req.RegisterRequest{Name: "Founder", Email: founderEmail, Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, enum.RoleAdmin, registered.User.Role)
	assert.True(t, registered.User.IsAdmin)
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	f := newFixture(t)
	auth, _ := newAuth(t, f)
	ctx := context.Background()

	registered, err := auth.RegisterUser(ctx, &req.RegisterRequest{Name: "Alice", Email: "alice@festival.test", Password: "secret123"})
	require.NoError(t, err)
	require.NoError(t, f.DB.Model(&entity.User{}).Where("id = ?", registered.User.ID).Update("is_active", false).Error)

	_, err = auth.LoginUser(ctx, &req.LoginRequest{Email: "alice@festival.test", Password: "secret123"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, CodeAccountInactive, appErr.Code)

	_, err = auth.RefreshToken(ctx, &req.RefreshRequest{RefreshToken: registered.RefreshToken})
	appErr, ok = apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, CodeAccountInactive, appErr.Code)
}

func TestRefreshTokenRotation(t *testing.T) {
	f := newFixture(t)
	auth, _ := newAuth(t, f)
	ctx := context.Background()

	registered, err := auth.RegisterUser(ctx, &req.RegisterRequest{Name: "Alice", Email: "alice@festival.test", Password: "secret123"})
	require.NoError(t, err)

	rotated, err := auth.RefreshToken(ctx, &req.RefreshRequest{RefreshToken: registered.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, registered.RefreshToken, rotated.RefreshToken)
	assert.NotEmpty(t, rotated.AccessToken)

	_, err = auth.RefreshToken(ctx, &req.RefreshRequest{RefreshToken: registered.RefreshToken})
	appErr, ok := apperror.As(err)
	require.True(t, ok, "a rotated refresh token cannot be replayed")
	assert.Equal(t, CodeTokenInvalid, appErr.Code)

	_, err = auth.RefreshToken(ctx, &req.RefreshRequest{RefreshToken: registered.AccessToken})
	appErr, ok = apperror.As(err)
	require.True(t, ok, "an access token is not a refresh token")
	assert.Equal(t, CodeTokenInvalid, appErr.Code)
}

func TestRefreshTokensAreCapped(t *testing.T) {
	f := newFixture(t)
	auth, _ := newAuth(t, f)
	ctx := context.Background()

	registered, err := auth.RegisterUser(ctx, &req.RegisterRequest{Name: "Alice", Email: "alice@festival.test", Password: "secret123"})
	require.NoError(t, err)
	first := registered.RefreshToken
	for i := 0; i < repository.MaxRefreshTokens+2; i++ {
		_, err := auth.LoginUser(ctx, &req.LoginRequest{Email: "alice@festival.test", Password: "secret123"})
		require.NoError(t, err)
	}

	user, err := f.Users.GetUserByID(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(repository.MaxRefreshTokens), refreshTokenCount(t, f, user.AuthId))

	_, err = auth.RefreshToken(ctx, &req.RefreshRequest{RefreshToken: first})
	assert.True(t, apperror.Is(err, apperror.KindAuthentication), "the oldest token is evicted")
}

func TestLogoutAndChangePassword(t *testing.T) {
	f := newFixture(t)
	auth, _ := newAuth(t, f)
	ctx := context.Background()

	registered, err := auth.RegisterUser(ctx, &req.RegisterRequest{Name: "Alice", Email: "alice@festival.test", Password: "secret123"})
	require.NoError(t, err)
	second, err := auth.LoginUser(ctx, &req.LoginRequest{Email: "alice@festival.test", Password: "secret123"})
	require.NoError(t, err)
	user, err := f.Users.GetUserByID(ctx, registered.User.ID)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, user, registered.RefreshToken))
	assert.Equal(t, int64(1), refreshTokenCount(t, f, user.AuthId))

	err = auth.ChangePassword(ctx, user, &req.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "another123"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	require.NoError(t, auth.ChangePassword(ctx, user, &req.ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "another123"}))
	assert.Zero(t, refreshTokenCount(t, f, user.AuthId))

	_, err = auth.RefreshToken(ctx, &req.RefreshRequest{RefreshToken: second.RefreshToken})
	assert.True(t, apperror.Is(err, apperror.KindAuthentication))
	_, err = auth.LoginUser(ctx, &req.LoginRequest{Email: "alice@festival.test", Password: "another123"})
	assert.NoError(t, err)

	require.NoError(t, auth.LogoutAll(ctx, user))
	assert.Zero(t, refreshTokenCount(t, f, user.AuthId))
}
