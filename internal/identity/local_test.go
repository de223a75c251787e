package identity

import (
	"context"
	"testing"
	"time"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/repository/memory"
	"toolrental-backend/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider() (Provider, security.TokenManager) {
	tokens := security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	return NewLocalProvider(memory.NewStore().Repos().Accounts, tokens), tokens
}

func TestLocalProvider_CreateAndVerify(t *testing.T) {
	p, tokens := newTestProvider()
	ctx := context.Background()

	extID, err := p.CreateAccount(ctx, Profile{Username: "jperez", Password: "s3cret-pass"}, domain.UserRoleClient)
	require.NoError(t, err)
	assert.NotEmpty(t, extID)

	token, err := p.VerifyCredentials(ctx, "jperez", "s3cret-pass")
	require.NoError(t, err)

	claims, err := tokens.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, extID, claims.Subject)
	assert.Equal(t, domain.UserRoleClient, claims.Role)
}

func TestLocalProvider_RejectsBadCredentials(t *testing.T) {
	p, _ := newTestProvider()
	ctx := context.Background()

	_, err := p.CreateAccount(ctx, Profile{Username: "jperez", Password: "s3cret-pass"}, domain.UserRoleClient)
	require.NoError(t, err)

	_, err = p.VerifyCredentials(ctx, "jperez", "wrong-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = p.VerifyCredentials(ctx, "nobody", "s3cret-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLocalProvider_CreateValidation(t *testing.T) {
	p, _ := newTestProvider()
	ctx := context.Background()

	_, err := p.CreateAccount(ctx, Profile{Username: "", Password: "s3cret-pass"}, domain.UserRoleClient)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = p.CreateAccount(ctx, Profile{Username: "jperez", Password: "short"}, domain.UserRoleClient)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = p.CreateAccount(ctx, Profile{Username: "jperez", Password: "s3cret-pass"}, "GUEST")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = p.CreateAccount(ctx, Profile{Username: "jperez", Password: "s3cret-pass"}, domain.UserRoleClient)
	require.NoError(t, err)
	_, err = p.CreateAccount(ctx, Profile{Username: "jperez", Password: "s3cret-pass"}, domain.UserRoleClient)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestLocalProvider_DeleteAccount(t *testing.T) {
	p, _ := newTestProvider()
	ctx := context.Background()

	extID, err := p.CreateAccount(ctx, Profile{Username: "jperez", Password: "s3cret-pass"}, domain.UserRoleEmployee)
	require.NoError(t, err)
	require.NoError(t, p.DeleteAccount(ctx, extID))

	_, err = p.VerifyCredentials(ctx, "jperez", "s3cret-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}
