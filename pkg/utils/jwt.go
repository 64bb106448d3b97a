package utils

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/polrydian/polrydian-api/internal/transfer"
)

const sessionAudience = "authenticated"

var ErrInvalidToken = errors.New("invalid token")

// GenerateToken signs a session token in the same shape the BaaS issues.
func GenerateToken(secretKey, userID, email string, tokenDuration time.Duration) (string, error) {
	claims := transfer.SessionClaims{
		Email: email,
		Role:  sessionAudience,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{sessionAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secretKey))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return signedToken, nil
}

// ValidateToken verifies an HS256 session token and returns its claims.
// The subject must be a UUID user id.
func ValidateToken(secretKey, tokenString string) (*transfer.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &transfer.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(secretKey), nil
	}, jwt.WithAudience(sessionAudience), jwt.WithExpirationRequired())
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	claims, ok := token.Claims.(*transfer.SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		slog.Info(err.Error())
		return nil, ErrInvalidToken
	}

	return claims, nil
}
