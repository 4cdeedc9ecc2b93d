// Package auth holds the stateless credential primitives used by the
// account service: HS256 access tokens and bcrypt password hashes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/gophevents/internal/common"
)

// Claims holds the registered claims plus the authenticated user's id and
// effective roles.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
	Roles  []string `json:"roles,omitempty"`
}

// GenerateToken signs an HS256 token for userID that expires after validityDuration.
func GenerateToken(userID string, roles []string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: userID,
		Roles:  roles,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken validates tokenString and returns its user id.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// validation yields common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}

// JWTIssuer binds a secret and a token lifetime.
type JWTIssuer struct {
	secretKey []byte
	validity  time.Duration
}

func NewJWTIssuer(secretKey string, validity time.Duration) *JWTIssuer {
	return &JWTIssuer{secretKey: []byte(secretKey), validity: validity}
}

func (j *JWTIssuer) Issue(userID string, roles []string) (string, error) {
	return GenerateToken(userID, roles, j.secretKey, j.validity)
}

func (j *JWTIssuer) Parse(token string) (string, error) {
	return GetUserIDFromToken(token, j.secretKey)
}

// Validity is the lifetime of issued tokens; the REST layer uses it as the cookie Max-Age.
func (j *JWTIssuer) Validity() time.Duration {
	return j.validity
}
