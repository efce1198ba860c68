// Package authz resolves the caller of a request from its bearer token and
// enforces per-record ownership.
package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"marketplace-backend/internal/domains/user"
	"marketplace-backend/pkg/jwt"
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("not authorized")
)

type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type Gate struct {
	tokens *jwt.Manager
	users  UserFinder
}

func NewGate(tokens *jwt.Manager, users UserFinder) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// ResolveCaller verifies the token and loads its user. Every failure that
// is the caller's fault maps to ErrUnauthenticated.
func (g *Gate) ResolveCaller(ctx context.Context, token string) (*user.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := g.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrUnauthenticated)
	}

	u, err := g.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("resolve caller: %w", err)
	}
	return u, nil
}

// AssertOwner: exact id equality, no roles.
func AssertOwner(ownerID, callerID uuid.UUID) error {
	if ownerID == uuid.Nil || ownerID != callerID {
		return ErrForbidden
	}
	return nil
}
