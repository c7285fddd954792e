// Package auth issues and validates the HS256 tokens that carry a caller's
// identity, role and scope. Identity proof lives here; what a role may do
// lives in the policy package.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/venuebook/venuebook/internal/domain"
	"github.com/venuebook/venuebook/internal/policy"
)

const issuer = "venuebook"

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the actor's role and scope so handlers can evaluate policy
// without a profile lookup per request.
type Claims struct {
	Role     string  `json:"role"`
	City     string  `json:"city,omitempty"`
	VenueIDs []int64 `json:"venue_ids,omitempty"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
}

func NewManager(secret string) (*Manager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: secret is required")
	}

	return &Manager{secret: []byte(secret)}, nil
}

// Issue signs a token for the actor.
func (m *Manager) Issue(actor policy.Actor, ttl time.Duration) (string, error) {
	const op = "auth.Manager.Issue"

	now := time.Now().UTC()
	claims := Claims{
		Role:     string(actor.Role),
		City:     actor.City,
		VenueIDs: actor.VenueIDs,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   actor.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%s:%w", op, err)
	}

	return signed, nil
}

// Parse validates the token and resolves the actor it identifies.
func (m *Manager) Parse(token string) (policy.Actor, error) {
	const op = "auth.Manager.Parse"

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return policy.Actor{}, fmt.Errorf("%s:%w", op, ErrInvalidToken)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return policy.Actor{}, fmt.Errorf("%s:%w", op, ErrInvalidToken)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return policy.Actor{}, fmt.Errorf("%s:%w", op, ErrInvalidToken)
	}

	return policy.Actor{
		ID:       id,
		Role:     domain.Role(claims.Role),
		City:     claims.City,
		VenueIDs: claims.VenueIDs,
	}, nil
}
