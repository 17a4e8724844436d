// Package auth issues and verifies the staff access tokens presented to the
// review API.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/guildgate/internal/common"
	"github.com/dmitrijs2005/guildgate/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the reviewer identity and the capability bits granted to it.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string
	Capabilities models.Capability
}

func GenerateToken(reviewer models.Reviewer, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   reviewer.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID:       reviewer.ID,
		Capabilities: reviewer.Capabilities,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies tokenString and returns the reviewer it was issued to.
func ParseToken(tokenString string, secretKey []byte) (models.Reviewer, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Reviewer{}, common.ErrTokenExpired
		}
		return models.Reviewer{}, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return models.Reviewer{}, common.ErrInvalidToken
	}

	return models.Reviewer{ID: claims.UserID, Capabilities: claims.Capabilities}, nil
}
