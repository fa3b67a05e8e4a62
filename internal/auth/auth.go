package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ServiceAPI performs authentication-related business logic. Session
// validation here only establishes who the principal is; what they may do is
// decided per-request by the role resolver, never baked into the token.
type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	HashPassword(password string) (string, error)
}

// RepositoryAPI reads credentials from the identity store.
type RepositoryAPI interface {
	GetCredentials(email string) (passwordHash string, userID string, err error)
	IsActive(userID string) (bool, error)
}

// TokenGeneratorAPI creates and validates session tokens.
type TokenGeneratorAPI interface {
	GenerateAccessToken(userID, email string) (string, error)
	GenerateRefreshToken(userID, email string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims carries only the principal's identity. Roles are deliberately
// absent: a revoked grant must take effect on the next request, not at token
// expiry.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}
