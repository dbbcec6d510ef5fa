package security

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/errors"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier checks access tokens issued by the auth service.
type TokenVerifier struct {
	accessSecret []byte
}

func NewTokenVerifier(accessSecret string) *TokenVerifier {
	return &TokenVerifier{accessSecret: []byte(accessSecret)}
}

// UserID validates an access token and returns the numeric user id in its subject.
func (v *TokenVerifier) UserID(tokenStr string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return v.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}
	if typ, _ := claims["type"].(string); typ != "" && typ != "access" {
		return 0, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
