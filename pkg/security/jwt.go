package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"type"`
}

// MakeToken signs an access token whose subject is userID
func MakeToken(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Type: "auth",
	})

	return t.SignedString(secret)
}

// ParseToken validates tokenStr and returns the user ID it was issued for
func ParseToken(tokenStr string, secret []byte) (string, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", err
		}

		return "", fmt.Errorf("%w, %w", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Type != "auth" || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
