package usecase

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// AuthUsecase checks the single operator credential configured at deploy
// time and mints a short-lived HS256 token for it. There is no per-tenant
// user store in this system — one operator account runs the whole pipeline.
type AuthUsecase struct {
	operatorEmail    string
	operatorPassword string
	jwtKey           []byte
	tokenTTL         time.Duration
}

func NewAuthUsecase(operatorEmail, operatorPassword string, jwtKey []byte, tokenTTL time.Duration) *AuthUsecase {
	return &AuthUsecase{
		operatorEmail:    operatorEmail,
		operatorPassword: operatorPassword,
		jwtKey:           jwtKey,
		tokenTTL:         tokenTTL,
	}
}

func (u *AuthUsecase) Login(_ context.Context, email, password string) (string, error) {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(u.operatorEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(u.operatorPassword)) == 1
	if !emailOK || !passOK {
		return "", domain.ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"sub": u.operatorEmail,
		"exp": time.Now().Add(u.tokenTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(u.jwtKey)
}
