package service

import (
	"context"
	"fmt"
	"strings"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/identity"
	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/repository"
)

type userService struct {
	store    repository.Store
	identity identity.Provider
}

func NewUserService(store repository.Store, provider identity.Provider) UserService {
	return &userService{store: store, identity: provider}
}

// canRegister decides who may create an account of the given role.
func (s *userService) canRegister(ctx context.Context, actorID *int32, role domain.UserRole) error {
	if role == domain.UserRoleClient && actorID == nil {
		return nil
	}
	if actorID == nil {
		return domain.PermissionDeniedf("only administrators can register %s users", role)
	}
	repos := s.store.Repos()
	switch role {
	case domain.UserRoleClient:
		_, err := requireStaff(ctx, repos, *actorID)
		return err
	case domain.UserRoleSuperAdmin:
		_, err := requireRole(ctx, repos, *actorID, func(r domain.UserRole) bool { return r == domain.UserRoleSuperAdmin })
		return err
	}
	_, err := requireAdmin(ctx, repos, *actorID)
	return err
}

func (s *userService) Register(ctx context.Context, actorID *int32, reg Registration) (*domain.User, error) {
	logger.EnterMethod("userService.Register", "username", reg.Username, "role", reg.Role)

	if reg.Role == "" {
		reg.Role = domain.UserRoleClient
	}
	if !reg.Role.Valid() {
		return nil, domain.Validationf("unknown role %q", reg.Role)
	}
	if strings.TrimSpace(reg.Name) == "" || strings.TrimSpace(reg.LastName) == "" {
		return nil, domain.Validationf("name and last name are required")
	}
	if err := s.canRegister(ctx, actorID, reg.Role); err != nil {
		return nil, err
	}

	externalID, err := s.identity.CreateAccount(ctx, identity.Profile{
		Username: reg.Username,
		Email:    reg.Email,
		Name:     reg.Name,
		LastName: reg.LastName,
		Password: reg.Password,
	}, reg.Role)
	if err != nil {
		logger.ExitMethodWithError("userService.Register", err, "username", reg.Username)
		return nil, err
	}

	user := &domain.User{
		ExternalID: externalID,
		Username:   strings.TrimSpace(reg.Username),
		Name:       strings.TrimSpace(reg.Name),
		LastName:   strings.TrimSpace(reg.LastName),
		Rut:        reg.Rut,
		Phone:      reg.Phone,
		Email:      reg.Email,
		Role:       reg.Role,
		State:      domain.ClientStateActive,
	}
	if err := s.store.Repos().Users.Create(ctx, user); err != nil {
		// Without the local mirror the account is unusable.
		if derr := s.identity.DeleteAccount(ctx, externalID); derr != nil {
			logger.Error("Failed to roll back identity account", "externalID", externalID, "error", derr)
		}
		logger.ExitMethodWithError("userService.Register", err, "username", reg.Username)
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	logger.ExitMethod("userService.Register", "userID", user.ID)
	return user, nil
}

func (s *userService) Login(ctx context.Context, identifier, password string) (string, error) {
	if strings.TrimSpace(identifier) == "" || password == "" {
		return "", domain.Validationf("username and password are required")
	}
	return s.identity.VerifyCredentials(ctx, identifier, password)
}

// Delete removes the identity account, tolerating failures there, and then the local user.
func (s *userService) Delete(ctx context.Context, actorID, userID int32) error {
	repos := s.store.Repos()
	if _, err := requireAdmin(ctx, repos, actorID); err != nil {
		return err
	}
	user, err := repos.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.ExternalID != "" {
		if err := s.identity.DeleteAccount(ctx, user.ExternalID); err != nil {
			logger.Warn("Failed to delete identity account", "userID", userID, "error", err)
		}
	}
	logger.Info("Deleting user", "userID", userID, "actorID", actorID)
	return repos.Users.Delete(ctx, userID)
}

func (s *userService) Get(ctx context.Context, userID int32) (*domain.User, error) {
	return s.store.Repos().Users.GetByID(ctx, userID)
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.store.Repos().Users.GetByUsername(ctx, username)
}

func (s *userService) ListClients(ctx context.Context, state string) ([]domain.User, error) {
	clients, err := s.store.Repos().Users.ListByRoles(ctx, domain.UserRoleClient)
	if err != nil {
		return nil, err
	}
	state = strings.ToUpper(strings.TrimSpace(state))
	if state == "" {
		return clients, nil
	}
	var out []domain.User
	for _, c := range clients {
		if string(c.State) == state {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *userService) ListEmployees(ctx context.Context, role string) ([]domain.User, error) {
	roles := []domain.UserRole{domain.UserRoleEmployee, domain.UserRoleAdmin, domain.UserRoleSuperAdmin}
	if r := domain.UserRole(strings.ToUpper(strings.TrimSpace(role))); r != "" {
		if !r.IsStaff() {
			return nil, domain.Validationf("unknown staff role %q", role)
		}
		roles = []domain.UserRole{r}
	}
	return s.store.Repos().Users.ListByRoles(ctx, roles...)
}
