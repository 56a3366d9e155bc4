package auth

import (
	mwauth "alumport/pkg/platform/middleware/auth"
)

// TokenValidatorAdapter bridges JWTService to the middleware's validator
// interface without the middleware importing this package.
type TokenValidatorAdapter struct {
	jwt *JWTService
}

func NewTokenValidatorAdapter(jwt *JWTService) *TokenValidatorAdapter {
	return &TokenValidatorAdapter{jwt: jwt}
}

func (a *TokenValidatorAdapter) ValidateToken(tokenString string) (*mwauth.Claims, error) {
	claims, err := a.jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &mwauth.Claims{
		UserID:    claims.UserID,
		SessionID: claims.SessionID,
		Role:      claims.Role,
	}, nil
}
