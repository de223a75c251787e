package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/repository"
	"toolrental-backend/internal/security"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type localProvider struct {
	accounts repository.AccountRepository
	tokens   security.TokenManager
}

// NewLocalProvider keeps bcrypt-hashed accounts next to the application data
// and issues tokens through tokens.
func NewLocalProvider(accounts repository.AccountRepository, tokens security.TokenManager) Provider {
	return &localProvider{accounts: accounts, tokens: tokens}
}

func (p *localProvider) CreateAccount(ctx context.Context, profile Profile, role domain.UserRole) (string, error) {
	logger.ExternalServiceCall("identity", "CreateAccount", "username", profile.Username, "role", role)

	username := strings.TrimSpace(profile.Username)
	if username == "" {
		return "", domain.Validationf("username is required")
	}
	if len(profile.Password) < minPasswordLength {
		return "", domain.Validationf("password must have at least %d characters", minPasswordLength)
	}
	if !role.Valid() {
		return "", domain.Validationf("unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(profile.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	account := &repository.Account{
		ExternalID:   uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedOn:    time.Now().UTC(),
	}
	if err := p.accounts.Create(ctx, account); err != nil {
		logger.ExternalServiceResult("identity", "CreateAccount", err)
		return "", err
	}

	logger.ExternalServiceResult("identity", "CreateAccount", nil, "externalID", account.ExternalID)
	return account.ExternalID, nil
}

func (p *localProvider) VerifyCredentials(ctx context.Context, identifier, password string) (string, error) {
	logger.ExternalServiceCall("identity", "VerifyCredentials", "identifier", identifier)

	account, err := p.accounts.GetByUsername(ctx, strings.TrimSpace(identifier))
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		logger.Warn("Rejected credentials", "username", account.Username)
		return "", domain.ErrInvalidCredentials
	}

	token, err := p.tokens.GenerateAccessToken(account.ExternalID, account.Username, account.Role)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	logger.ExternalServiceResult("identity", "VerifyCredentials", nil, "username", account.Username)
	return token, nil
}

func (p *localProvider) DeleteAccount(ctx context.Context, externalID string) error {
	logger.ExternalServiceCall("identity", "DeleteAccount", "externalID", externalID)
	err := p.accounts.Delete(ctx, externalID)
	logger.ExternalServiceResult("identity", "DeleteAccount", err)
	return err
}
