package auth

import (
	"errors"
	"time"

	"github.com/dkovalev/notelist/internal/common"
	"github.com/dkovalev/notelist/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the authenticated identity inside the session token:
// standard registered claims plus the user id, username and email. The
// registered ID (jti) references the server-side session row.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// GenerateToken mints a signed HS256 session token for the given user,
// bound to sessionID and valid for validityDuration.
func GenerateToken(user *models.User, sessionID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the token signature and expiry and returns its claims.
// Expired tokens yield common.ErrTokenExpired, any other failure
// common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
