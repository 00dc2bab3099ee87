package usecase

import (
	"context"
	"strings"
	"time"

	"festival-chat-api/access"
	"festival-chat-api/apperror"
	"festival-chat-api/config/logger"
	"festival-chat-api/dto/req"
	"festival-chat-api/dto/res"
	"festival-chat-api/entity"
	"festival-chat-api/enum"
	"festival-chat-api/repository"
	"festival-chat-api/security"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeTokenInvalid    = "TOKEN_INVALID"
	CodeAccountInactive = "ACCOUNT_INACTIVE"
)

type AuthUsecaseImpl struct {
	*repository.AuthRepository
	UserRepository *repository.UserRepository
	*validator.Validate
	*gorm.DB
	Log *logger.AppLogger
	*security.JWT
	Password *security.Password
	Policy   *access.Policy
	Guard    *repository.Guard
}

func NewAuthUsecase(authRepository *repository.AuthRepository, userRepository *repository.UserRepository, validate *validator.Validate,
	DB *gorm.DB, logger *logger.AppLogger, JWT *security.JWT, password *security.Password, policy *access.Policy, guard *repository.Guard) AuthUsecase {
	return &AuthUsecaseImpl{
		AuthRepository: authRepository,
		UserRepository: userRepository,
		Validate:       validate,
		DB:             DB,
		Log:            logger,
		JWT:            JWT,
		Password:       password,
		Policy:         policy,
		Guard:          guard,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (uc *AuthUsecaseImpl) RegisterUser(ctx context.Context, request *req.RegisterRequest) (res.AuthResponse, error) {
	request.Email = normalizeEmail(request.Email)
	request.Name = strings.TrimSpace(request.Name)
	if err := validate(uc.Validate, request); err != nil {
		uc.Log.Http.Warning.Warn().Err(err).Msg("Register request rejected")
		return res.AuthResponse{}, err
	}

	hashPassword, err := uc.Password.HashPassword(request.Password)
	if err != nil {
		return res.AuthResponse{}, apperror.Service("Failed to secure password", err)
	}

	now := time.Now()
	account := &entity.Account{
		Email:    request.Email,
		Password: hashPassword,
		User: entity.User{
			Name:       request.Name,
			Email:      request.Email,
			Role:       enum.RoleMember,
			IsActive:   true,
			LastActive: now,
		},
	}
	if uc.Policy.IsBootstrapAdmin(&account.User) {
		account.User.Role = enum.RoleAdmin
	}

	err = uc.Guard.Run(ctx, "register", func(ctx context.Context) error {
		if _, err := uc.AuthRepository.FindByEmail(ctx, uc.DB, request.Email); err == nil {
			return apperror.Conflict("User already exists with this email")
		} else if !repository.IsNotFound(err) {
			return err
		}
		return uc.AuthRepository.Save(ctx, uc.DB, account)
	})
	if repository.IsDuplicate(err) {
		err = apperror.Conflict("User already exists with this email")
	}
	if err != nil {
		uc.Log.Http.Error.Error().Err(err).Str("email", request.Email).Msg("Failed to register user")
		return res.AuthResponse{}, err
	}

	uc.Log.Http.Info.Info().Str("userId", account.User.ID).Str("role", string(account.User.Role)).Msg("User registered")
	return uc.issueSession(ctx, account, now)
}

func (uc *AuthUsecaseImpl) LoginUser(ctx context.Context, request *req.LoginRequest) (res.AuthResponse, error) {
	request.Email = normalizeEmail(request.Email)
	if err := validate(uc.Validate, request); err != nil {
		return res.AuthResponse{}, err
	}

	var account entity.Account
	err := uc.Guard.Run(ctx, "login", func(ctx context.Context) error {
		var err error
		account, err = uc.AuthRepository.FindByEmail(ctx, uc.DB, request.Email)
		return err
	})
	if repository.IsNotFound(err) {
		uc.Log.Http.Warning.Warn().Str("email", request.Email).Msg("Login for unknown email")
		return res.AuthResponse{}, apperror.Authentication("Invalid email or password")
	}
	if err != nil {
		return res.AuthResponse{}, err
	}

	if !uc.Password.ComparePassword(account.Password, request.Password) {
		uc.Log.Http.Warning.Warn().Str("userId", account.User.ID).Msg("Login with wrong password")
		return res.AuthResponse{}, apperror.Authentication("Invalid email or password")
	}
	if !account.User.IsActive {
		return res.AuthResponse{}, apperror.Authentication("Account is deactivated").WithCode(CodeAccountInactive)
	}

	uc.Log.Http.Info.Info().Str("userId", account.User.ID).Msg("User logged in")
	return uc.issueSession(ctx, &account, time.Now())
}

// issueSession signs a token pair, stores the refresh token and stamps the login time.
func (uc *AuthUsecaseImpl) issueSession(ctx context.Context, account *entity.Account, now time.Time) (res.AuthResponse, error) {
	user := &account.User
	tokens, err := uc.issueTokens(ctx, account.ID, user)
	if err != nil {
		return res.AuthResponse{}, err
	}

	err = uc.Guard.Run(ctx, "stamp_login", func(ctx context.Context) error {
		return uc.UserRepository.UpdateColumns(ctx, uc.DB, user.ID, map[string]interface{}{
			"last_login_at": now,
			"last_active":   now,
		})
	})
	if err != nil {
		return res.AuthResponse{}, err
	}
	user.LastLoginAt = &now
	user.LastActive = now

	return res.AuthResponse{
		User:         res.ToUserResponse(user, uc.Policy.IsAdmin(user)),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}, nil
}

func (uc *AuthUsecaseImpl) issueTokens(ctx context.Context, accountID string, user *entity.User) (res.TokenResponse, error) {
	accessToken, err := uc.JWT.GenerateAccessToken(user)
	if err != nil {
		return res.TokenResponse{}, apperror.Service("Failed to generate token", err)
	}
	refreshToken, expiresAt, err := uc.JWT.GenerateRefreshToken(user)
	if err != nil {
		return res.TokenResponse{}, apperror.Service("Failed to generate token", err)
	}

	err = uc.Guard.Run(ctx, "store_refresh_token", func(ctx context.Context) error {
		return uc.AuthRepository.AddRefreshToken(ctx, uc.DB, accountID, security.HashToken(refreshToken), expiresAt)
	})
	if err != nil {
		return res.TokenResponse{}, err
	}

	return res.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(uc.JWT.AccessTTL().Seconds()),
	}, nil
}

// RefreshToken rotates a refresh token: the presented one is revoked and a new pair issued.
func (uc *AuthUsecaseImpl) RefreshToken(ctx context.Context, request *req.RefreshRequest) (res.TokenResponse, error) {
	if err := validate(uc.Validate, request); err != nil {
		return res.TokenResponse{}, err
	}

	claims, err := uc.JWT.VerifyRefreshToken(request.RefreshToken)
	if err != nil {
		if security.IsExpired(err) {
			return res.TokenResponse{}, apperror.Authentication("Refresh token expired").WithCode(CodeTokenExpired)
		}
		return res.TokenResponse{}, apperror.Authentication("Invalid refresh token").WithCode(CodeTokenInvalid)
	}
	userID, err := security.UserIDFromClaims(claims)
	if err != nil {
		return res.TokenResponse{}, apperror.Authentication("Invalid refresh token").WithCode(CodeTokenInvalid)
	}

	hash := security.HashToken(request.RefreshToken)
	var account entity.Account
	err = uc.Guard.Run(ctx, "refresh_token", func(ctx context.Context) error {
		stored, err := uc.AuthRepository.FindRefreshToken(ctx, uc.DB, hash)
		if err != nil {
			return err
		}
		account, err = uc.AuthRepository.FindByID(ctx, uc.DB, stored.AccountID)
		return err
	})
	if repository.IsNotFound(err) {
		uc.Log.Http.Warning.Warn().Str("userId", userID).Msg("Unknown or revoked refresh token presented")
		return res.TokenResponse{}, apperror.Authentication("Invalid refresh token").WithCode(CodeTokenInvalid)
	}
	if err != nil {
		return res.TokenResponse{}, err
	}
	if account.User.ID != userID {
		return res.TokenResponse{}, apperror.Authentication("Invalid refresh token").WithCode(CodeTokenInvalid)
	}
	if !account.User.IsActive {
		return res.TokenResponse{}, apperror.Authentication("Account is deactivated").WithCode(CodeAccountInactive)
	}

	err = uc.Guard.Run(ctx, "revoke_refresh_token", func(ctx context.Context) error {
		_, err := uc.AuthRepository.DeleteRefreshToken(ctx, uc.DB, account.ID, hash)
		return err
	})
	if err != nil {
		return res.TokenResponse{}, err
	}
	return uc.issueTokens(ctx, account.ID, &account.User)
}

func (uc *AuthUsecaseImpl) Logout(ctx context.Context, user *entity.User, refreshToken string) error {
	if refreshToken == "" {
		return uc.LogoutAll(ctx, user)
	}
	return uc.Guard.Run(ctx, "logout", func(ctx context.Context) error {
		_, err := uc.AuthRepository.DeleteRefreshToken(ctx, uc.DB, user.AuthId, security.HashToken(refreshToken))
		return err
	})
}

func (uc *AuthUsecaseImpl) LogoutAll(ctx context.Context, user *entity.User) error {
	err := uc.Guard.Run(ctx, "logout_all", func(ctx context.Context) error {
		return uc.AuthRepository.DeleteAllRefreshTokens(ctx, uc.DB, user.AuthId)
	})
	if err == nil {
		uc.Log.Http.Info.Info().Str("userId", user.ID).Msg("All sessions revoked")
	}
	return err
}

// ChangePassword replaces the password and revokes every refresh token of the account.
func (uc *AuthUsecaseImpl) ChangePassword(ctx context.Context, user *entity.User, request *req.ChangePasswordRequest) error {
	if err := validate(uc.Validate, request); err != nil {
		return err
	}

	var account entity.Account
	err := uc.Guard.Run(ctx, "find_account", func(ctx context.Context) error {
		var err error
		account, err = uc.AuthRepository.FindByID(ctx, uc.DB, user.AuthId)
		return err
	})
	if err != nil {
		return notFoundAs(err, "User not found")
	}
	if !uc.Password.ComparePassword(account.Password, request.CurrentPassword) {
		return apperror.Validation("Current password is incorrect",
			apperror.FieldError{Field: "currentPassword", Message: "currentPassword is incorrect"})
	}

	hashed, err := uc.Password.HashPassword(request.NewPassword)
	if err != nil {
		return apperror.Service("Failed to secure password", err)
	}
	return uc.Guard.Run(ctx, "change_password", func(ctx context.Context) error {
		return uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := uc.AuthRepository.UpdateColumns(ctx, tx, account.ID, map[string]interface{}{"password": hashed}); err != nil {
				return err
			}
			return uc.AuthRepository.DeleteAllRefreshTokens(ctx, tx, account.ID)
		})
	})
}
