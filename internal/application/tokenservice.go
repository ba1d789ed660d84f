package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnknownAPIKey indicates a presented API key that matches no configured
// client.
var ErrUnknownAPIKey = errors.New("unknown API key")

// TokenService exchanges configured API keys for short-lived bearer tokens
// and verifies those tokens on protected endpoints.
type TokenService struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	clients map[string]string // API key -> client name
}

// NewTokenService creates a TokenService signing HS256 tokens with secret.
// clients maps each accepted API key to the client name embedded as the
// token subject.
func NewTokenService(secret []byte, issuer string, ttl time.Duration, clients map[string]string) *TokenService {
	return &TokenService{
		secret:  secret,
		issuer:  issuer,
		ttl:     ttl,
		clients: clients,
	}
}

// IssueToken exchanges an API key for a signed JWT. Returns ErrUnknownAPIKey
// when the key is not configured.
func (s *TokenService) IssueToken(apiKey string) (string, error) {
	name, ok := s.clients[apiKey]
	if !ok {
		return "", ErrUnknownAPIKey
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   name,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a bearer token and returns the client name it was
// issued to.
func (s *TokenService) VerifyToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}
	return claims.Subject, nil
}
