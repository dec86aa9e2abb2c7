package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// NewAccessToken issues a short-lived token carrying only the user id.
// The role is deliberately not embedded: authorization reads the
// current role from storage on every request.
func NewAccessToken(userID int64, secret string, ttl time.Duration) (string, error) {
	return newToken(userID, secret, ttl)
}

// NewRefreshToken issues a long-lived token signed with a secret
// distinct from the access-token secret.
func NewRefreshToken(userID int64, secret string, ttl time.Duration) (string, error) {
	return newToken(userID, secret, ttl)
}

func newToken(userID int64, secret string, ttl time.Duration) (string, error) {
	const op = "lib.jwt.newToken"

	now := time.Now()

	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// ParseToken verifies signature and expiry and returns the embedded
// user id. Expiry is reported as ErrTokenExpired, every other failure
// as ErrTokenInvalid.
func ParseToken(tokenStr, secret string) (int64, error) {
	claims := jwt.MapClaims{}

	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenInvalid
	}

	if !parsed.Valid {
		return 0, ErrTokenInvalid
	}

	subFloat, ok := claims["sub"].(float64)
	if !ok {
		return 0, ErrTokenInvalid
	}

	return int64(subFloat), nil
}
