package security

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"festival-chat-api/config/common"
	"festival-chat-api/entity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	issuer = "festival-chat-api"
)

var ErrWrongTokenType = errors.New("token has the wrong type")

type JWT struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewJWT(config *common.Config) *JWT {
	accessTTL, refreshTTL := config.GetTokenTTL()
	return &JWT{
		accessSecret:  config.GetJwtConfig(),
		refreshSecret: config.GetJwtRefreshConfig(),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// AccessSecret is the key the HTTP middleware verifies access tokens with.
func (j *JWT) AccessSecret() []byte {
	return j.accessSecret
}

func (j *JWT) AccessTTL() time.Duration {
	return j.accessTTL
}

func (j *JWT) GenerateAccessToken(user *entity.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"typ":     TokenTypeAccess,
		"jti":     uuid.NewString(),
		"aud":     issuer,
		"iss":     issuer,
		"iat":     now.Unix(),
		"exp":     now.Add(j.accessTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString(j.accessSecret)
}

// GenerateRefreshToken signs a refresh token for user. Each call yields a distinct token.
func (j *JWT) GenerateRefreshToken(user *entity.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.refreshTTL)
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"typ":     TokenTypeRefresh,
		"jti":     uuid.NewString(),
		"aud":     issuer,
		"iss":     issuer,
		"iat":     now.Unix(),
		"exp":     expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(j.refreshSecret)
	return signed, expiresAt, err
}

func (j *JWT) VerifyAccessToken(token string) (jwt.MapClaims, error) {
	return verify(token, j.accessSecret, TokenTypeAccess)
}

func (j *JWT) VerifyRefreshToken(token string) (jwt.MapClaims, error) {
	return verify(token, j.refreshSecret, TokenTypeRefresh)
}

func verify(token string, secret []byte, tokenType string) (jwt.MapClaims, error) {
	tokenParse, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}

	claims, ok := tokenParse.Claims.(jwt.MapClaims)
	if !ok || !tokenParse.Valid {
		return nil, jwt.ErrTokenMalformed
	}
	if err := CheckTokenType(claims, tokenType); err != nil {
		return nil, err
	}
	return claims, nil
}

// CheckTokenType rejects tokens whose typ claim is not tokenType.
func CheckTokenType(claims jwt.MapClaims, tokenType string) error {
	if typ, _ := claims["typ"].(string); typ != tokenType {
		return ErrWrongTokenType
	}
	return nil
}

// UserIDFromClaims reads the user_id claim.
func UserIDFromClaims(claims jwt.MapClaims) (string, error) {
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return userID, nil
}

func (j *JWT) GetUserIdFromToken(token string) (string, error) {
	claims, err := j.VerifyAccessToken(token)
	if err != nil {
		return "", err
	}
	return UserIDFromClaims(claims)
}

// HashToken is the digest refresh tokens are stored and looked up by.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IsExpired reports whether err comes from an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
