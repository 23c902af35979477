package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"softpet/internal/ports/auth"
)

const DefaultTTL = 7 * 24 * time.Hour

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
	ErrNoSecret     = errors.New("jwt secret is empty")
)

// tokenClaims es el payload firmado: {userId, email} + iat/exp.
type tokenClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Service firma y verifica tokens de sesión HS256.
// Implementa auth.TokenIssuer y auth.AuthVerifier.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(secret string, ttl time.Duration) (*Service, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (s *Service) TTL() time.Duration { return s.ttl }

func (s *Service) Issue(c auth.Claims) (string, error) {
	if strings.TrimSpace(c.UserID) == "" {
		return "", fmt.Errorf("jwtauth: issue: %w", ErrTokenInvalid)
	}

	now := s.now()
	claims := tokenClaims{
		UserID: c.UserID,
		Email:  c.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwtauth: sign: %w", err)
	}
	return signed, nil
}

// Verify valida firma y expiración. Cualquier fallo se reduce a
// ErrTokenExpired o ErrTokenInvalid; el caller lo trata como anónimo.
func (s *Service) Verify(_ context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenInvalid
	}

	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return auth.Claims{}, ErrTokenExpired
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return auth.Claims{}, ErrTokenInvalid
	}

	userID := strings.TrimSpace(claims.UserID)
	if userID == "" {
		return auth.Claims{}, fmt.Errorf("%w: missing userId", ErrTokenInvalid)
	}

	return auth.Claims{UserID: userID, Email: claims.Email}, nil
}
