package middleware

import (
	"errors"
	"strings"

	"festival-chat-api/access"
	"festival-chat-api/apperror"
	"festival-chat-api/config/common"
	"festival-chat-api/entity"
	"festival-chat-api/security"
	"festival-chat-api/usecase"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	LocalsToken   = "jwt"
	LocalsUser    = "user"
	LocalsUserID  = "user_id"
	LocalsIsAdmin = "is_admin"
)

type Middleware struct {
	*common.Config
	*security.JWT
	usecase.UserUsecase
	Policy *access.Policy
	Log    *logrus.Logger

	jwtHandler fiber.Handler
}

func NewMiddleware(config *common.Config, jwt *security.JWT, userUsecase usecase.UserUsecase, policy *access.Policy, logger *logrus.Logger) *Middleware {
	middleware := &Middleware{Config: config, JWT: jwt, UserUsecase: userUsecase, Policy: policy, Log: logger}
	middleware.jwtHandler = jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{JWTAlg: jwtware.HS512, Key: jwt.AccessSecret()},
		ContextKey:   LocalsToken,
		ErrorHandler: middleware.tokenError,
	})
	return middleware
}

func (middleware *Middleware) tokenError(c *fiber.Ctx, err error) error {
	middleware.Log.WithError(err).Warn("Failed to validate JWT")
	return TokenError(err)
}

// TokenError maps a token verification failure onto the API error it is reported as.
func TokenError(err error) error {
	if security.IsExpired(err) {
		return apperror.Authentication("Token has expired").WithCode(usecase.CodeTokenExpired)
	}
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		return apperror.Authentication("Missing or malformed token").WithCode(usecase.CodeTokenInvalid)
	}
	return apperror.Authentication("Token is not valid").WithCode(usecase.CodeTokenInvalid)
}

func (middleware *Middleware) JWTProtected(c *fiber.Ctx) error {
	return middleware.jwtHandler(c)
}

// ExtractUser loads the account behind the verified access token and records activity.
func (middleware *Middleware) ExtractUser(c *fiber.Ctx) error {
	token, ok := c.Locals(LocalsToken).(*jwt.Token)
	if !ok {
		return apperror.Authentication("Token is not valid").WithCode(usecase.CodeTokenInvalid)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return apperror.Authentication("Token is not valid").WithCode(usecase.CodeTokenInvalid)
	}
	if err := security.CheckTokenType(claims, security.TokenTypeAccess); err != nil {
		middleware.Log.WithError(err).Warn("Rejected non access token")
		return apperror.Authentication("Token is not valid").WithCode(usecase.CodeTokenInvalid)
	}
	userID, err := security.UserIDFromClaims(claims)
	if err != nil {
		middleware.Log.WithError(err).Error("Failed to extract user ID from token")
		return apperror.Authentication("Token is not valid").WithCode(usecase.CodeTokenInvalid)
	}

	user, err := middleware.LoadActiveUser(c, userID)
	if err != nil {
		return err
	}

	if err := middleware.UserUsecase.TouchLastActive(c.Context(), user.ID); err != nil {
		middleware.Log.WithError(err).Warnf("Failed to update last active of user %s", user.ID)
	}
	return c.Next()
}

// LoadActiveUser fetches userID and stores it in the request locals. Missing and
// deactivated accounts fail authentication.
func (middleware *Middleware) LoadActiveUser(c *fiber.Ctx, userID string) (*entity.User, error) {
	user, err := middleware.UserUsecase.GetUserByID(c.Context(), userID)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.Authentication("User no longer exists").WithCode(usecase.CodeTokenInvalid)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.Authentication("Account is deactivated").WithCode(usecase.CodeAccountInactive)
	}

	c.Locals(LocalsUser, user)
	c.Locals(LocalsUserID, user.ID)
	c.Locals(LocalsIsAdmin, middleware.Policy.IsAdmin(user))
	return user, nil
}

func (middleware *Middleware) RequireAdmin(c *fiber.Ctx) error {
	if isAdmin, _ := c.Locals(LocalsIsAdmin).(bool); !isAdmin {
		middleware.Log.Warnf("Admin route %s refused for user %v", c.Path(), c.Locals(LocalsUserID))
		return apperror.Forbidden("Admin access required")
	}
	return c.Next()
}

// WebSocketAuth authenticates a websocket upgrade through the token query parameter,
// falling back to the Authorization header.
func (middleware *Middleware) WebSocketAuth(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	}
	if token == "" {
		return apperror.Authentication("Missing or malformed token").WithCode(usecase.CodeTokenInvalid)
	}
	userID, err := middleware.JWT.GetUserIdFromToken(token)
	if err != nil {
		middleware.Log.WithError(err).Warn("Rejected websocket token")
		return TokenError(err)
	}
	if _, err := middleware.LoadActiveUser(c, userID); err != nil {
		return err
	}
	return c.Next()
}

// CurrentUser returns the user ExtractUser stored for this request.
func CurrentUser(c *fiber.Ctx) *entity.User {
	user, _ := c.Locals(LocalsUser).(*entity.User)
	return user
}
