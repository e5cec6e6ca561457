package utils

import (
	"errors"
	"fmt"
	"time"

	"CommClinic/models"

	"github.com/o1egl/paseto"
)

// AccessTokenExpiry is how long an issued access token stays valid.
const AccessTokenExpiry = 24 * time.Hour

var (
	ErrInvalidKey   = errors.New("symmetric key must be 32 bytes")
	ErrTokenExpired = errors.New("token expired")
	ErrUnknownKind  = errors.New("token carries an unknown user kind")
)

// TokenClaims is the data sealed into a PASETO v2 local token.
type TokenClaims struct {
	UserID string           `json:"userId"`
	Kind   models.UserKind  `json:"kind"`
	Role   models.RoleTitle `json:"role,omitempty"`
	Expiry time.Time        `json:"expiry"`
}

// Caller resolves the claims into a caller identity.
func (c *TokenClaims) Caller() (models.Caller, error) {
	caller := models.NewCaller(c.Kind, c.UserID, c.Role)
	if caller == nil {
		return nil, ErrUnknownKind
	}
	return caller, nil
}

// GenerateAccessToken seals claims for a user. Tokens are issued by the
// identity service in production; this is used by tooling and tests.
func GenerateAccessToken(key []byte, userID string, kind models.UserKind, role models.RoleTitle, expiry time.Duration) (string, error) {
	if len(key) != 32 {
		return "", ErrInvalidKey
	}
	claims := TokenClaims{
		UserID: userID,
		Kind:   kind,
		Role:   role,
		Expiry: time.Now().Add(expiry),
	}
	token, err := paseto.NewV2().Encrypt(key, claims, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// ValidateToken decrypts tokenString and checks its expiry.
func ValidateToken(key []byte, tokenString string) (*TokenClaims, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	var claims TokenClaims
	if err := paseto.NewV2().Decrypt(tokenString, key, &claims, nil); err != nil {
		return nil, fmt.Errorf("failed to decrypt token: %w", err)
	}
	if time.Now().After(claims.Expiry) {
		return nil, ErrTokenExpired
	}
	return &claims, nil
}
