// Package auth mints and verifies the HS256 bearer tokens that guard the
// /api/v1 routes. It is a leaf package used by the API middleware and the
// `jiraagent token` command.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ===== CONSTANTS =====

// DefaultJWTExpiry is the token lifetime in hours when none is configured.
const DefaultJWTExpiry = 24

// Issuer is stamped into every token and required on parse.
const Issuer = "jiraagent"

var (
	ErrEmptySecret  = errors.New("auth: JWT secret is empty")
	ErrEmptyToken   = errors.New("auth: token is empty")
	ErrEmptySubject = errors.New("auth: subject is empty")
)

// ===== JWT FUNCTIONS =====

// Claims carries the caller identity in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// Signer issues and validates tokens for one secret.
type Signer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewSigner returns a Signer. expiryHours <= 0 falls back to DefaultJWTExpiry.
func NewSigner(secret string, expiryHours int) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: []byte(secret), expiry: expiryDuration(expiryHours), now: time.Now}, nil
}

// Expiry is the lifetime of tokens this signer issues.
func (s *Signer) Expiry() time.Duration { return s.expiry }

// Generate signs a token for subject.
func (s *Signer) Generate(subject string) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}
	now := s.now()
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    Issuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return signed, nil
}

// Parse validates signature, algorithm, issuer and expiry.
func (s *Signer) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrEmptyToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		// only HMAC; rejects alg substitution
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid JWT claims or signature")
	}
	return claims, nil
}

func expiryDuration(hours int) time.Duration {
	if hours <= 0 {
		return time.Duration(DefaultJWTExpiry) * time.Hour
	}
	return time.Duration(hours) * time.Hour
}
