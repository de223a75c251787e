// Package identity holds the account collaborator the user service delegates
// credentials to, plus a local implementation backed by the application database.
package identity

import (
	"context"

	"toolrental-backend/internal/domain"
)

// Profile is what the identity provider needs to open an account.
type Profile struct {
	Username string
	Email    string
	Name     string
	LastName string
	Password string
}

type Provider interface {
	// CreateAccount opens an account and returns its external id.
	CreateAccount(ctx context.Context, profile Profile, role domain.UserRole) (string, error)
	// VerifyCredentials returns an access token for a valid username and password.
	VerifyCredentials(ctx context.Context, identifier, password string) (string, error)
	DeleteAccount(ctx context.Context, externalID string) error
}
