package service

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenVerifier проверяет access токены, выпущенные сервисом авторизации.
type TokenVerifier struct {
	accessSecret []byte
}

func NewTokenVerifier(accessSecret string) *TokenVerifier {
	return &TokenVerifier{accessSecret: []byte(accessSecret)}
}

// ParseAccess извлекает userID и роль из access токена.
func (v *TokenVerifier) ParseAccess(token string) (uuid.UUID, string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return v.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, "", err
	}
	if !parsed.Valid {
		return uuid.Nil, "", jwt.ErrTokenInvalidClaims
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, "", jwt.ErrTokenInvalidClaims
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, "", jwt.ErrTokenInvalidClaims
	}

	role, _ := claims["role"].(string)

	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", err
	}

	return userID, role, nil
}
