package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-backend/internal/domains/user"
	"marketplace-backend/pkg/jwt"
)

type fakeUsers map[uuid.UUID]*user.User

func (f fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

type brokenUsers struct{}

func (brokenUsers) FindByID(context.Context, uuid.UUID) (*user.User, error) {
	return nil, errors.New("connection reset")
}

func TestResolveCaller(t *testing.T) {
	tokens := jwt.NewManager("test-secret", time.Hour)
	alice := &user.User{ID: uuid.New(), Name: "Alice", Email: "alice@example.com"}
	gate := NewGate(tokens, fakeUsers{alice.ID: alice})
	ctx := context.Background()

	token, _, err := tokens.GenerateAccessToken(alice.ID.String(), alice.Email)
	require.NoError(t, err)

	got, err := gate.ResolveCaller(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = gate.ResolveCaller(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = gate.ResolveCaller(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	other := jwt.NewManager("other-secret", time.Hour)
	forged, _, err := other.GenerateAccessToken(alice.ID.String(), alice.Email)
	require.NoError(t, err)
	_, err = gate.ResolveCaller(ctx, forged)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveCaller_DeletedUser(t *testing.T) {
	tokens := jwt.NewManager("test-secret", time.Hour)
	gate := NewGate(tokens, fakeUsers{})

	token, _, err := tokens.GenerateAccessToken(uuid.NewString(), "ghost@example.com")
	require.NoError(t, err)

	_, err = gate.ResolveCaller(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveCaller_StoreFailureIsNotUnauthenticated(t *testing.T) {
	tokens := jwt.NewManager("test-secret", time.Hour)
	gate := NewGate(tokens, brokenUsers{})

	token, _, err := tokens.GenerateAccessToken(uuid.NewString(), "a@example.com")
	require.NoError(t, err)

	_, err = gate.ResolveCaller(context.Background(), token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}

func TestAssertOwner(t *testing.T) {
	owner := uuid.New()

	assert.NoError(t, AssertOwner(owner, owner))
	assert.ErrorIs(t, AssertOwner(owner, uuid.New()), ErrForbidden)
	assert.ErrorIs(t, AssertOwner(uuid.Nil, uuid.Nil), ErrForbidden)
}
