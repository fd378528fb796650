// Package auth issues and verifies the bearer tokens that identify a
// caller as {userId, role}.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNoSecret     = errors.New("jwt secret is required")
)

// Roles.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role"`
}

func (i Identity) IsInstructor() bool {
	return i.Role == RoleInstructor
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, clock: time.Now}, nil
}

// Issue signs an HS256 token for userID. An empty role means student.
func (i *Issuer) Issue(userID uuid.UUID, role string) (string, time.Time, error) {
	if role == "" {
		role = RoleStudent
	}
	now := i.clock()
	exp := now.Add(i.ttl)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses a token. Every failure wraps ErrUnauthorized.
func (i *Issuer) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthorized
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.clock),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrUnauthorized
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: invalid subject", ErrUnauthorized)
	}
	role := claims.Role
	if role == "" {
		role = RoleStudent
	}
	return Identity{UserID: userID, Role: role}, nil
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the caller, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
