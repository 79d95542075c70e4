package utils

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the learner tokens issued by the quiz service. The subject
// identifies the learner; some deployments also send user_id.
type Claims struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// LearnerID prefers the registered subject and falls back to user_id.
func (c *Claims) LearnerID() string {
	if s := strings.TrimSpace(c.Subject); s != "" {
		return s
	}
	return strings.TrimSpace(c.UserID)
}

func ValidateToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid || claims.LearnerID() == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CreateToken signs claims with HS256. The gateway only validates tokens; this is
// used by tests and local tooling.
func CreateToken(claims Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
