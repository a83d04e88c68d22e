package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecret            = []byte("change-me-in-production")
	jwtExpirationSeconds = 24 * 60 * 60
)

// Claims carries the identity and role decoded from a bearer token.
type Claims struct {
	Username string `json:"user"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func ConfigureJWT(secret string, expirationSeconds int) {
	if secret != "" {
		jwtSecret = []byte(secret)
	}
	if expirationSeconds > 0 {
		jwtExpirationSeconds = expirationSeconds
	}
}

func GenerateToken(username, role string) (string, error) {
	expiresAt := time.Now().Add(time.Duration(jwtExpirationSeconds) * time.Second)
	claims := Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
