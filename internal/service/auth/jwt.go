package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"labelshop/internal/domain"
)

const tokenTypeAccess = "access"

var (
	errExpiredAccess = errors.New("access token expired")
	errInvalidAccess = errors.New("invalid access token")
)

type accessClaims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
}

// accessSigner issues and validates short-lived HS256 access tokens.
type accessSigner struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func (s accessSigner) issue(u domain.User, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(ttl)
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(expires),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Username:  u.Username,
		Role:      u.Role,
		TokenType: tokenTypeAccess,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

func (s accessSigner) validate(raw string) (*accessClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &accessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidAccess
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errExpiredAccess
		}
		return nil, errInvalidAccess
	}
	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid || claims.TokenType != tokenTypeAccess || claims.Subject == "" {
		return nil, errInvalidAccess
	}
	return claims, nil
}
