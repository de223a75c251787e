package postgres

import (
	"context"
	"strings"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/repository"

	"github.com/lib/pq"
)

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, COALESCE(external_id, ''), username, name, last_name, COALESCE(rut, ''), COALESCE(phone, ''), COALESCE(email, ''), role, state_client, loans`

func scanUser(row interface{ Scan(...any) error }, u *domain.User) error {
	return row.Scan(&u.ID, &u.ExternalID, &u.Username, &u.Name, &u.LastName, &u.Rut, &u.Phone, &u.Email, &u.Role, &u.State, &u.Loans)
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	if u.State == "" {
		u.State = domain.ClientStateActive
	}
	query := `INSERT INTO users (external_id, username, name, last_name, rut, phone, email, role, state_client, loans)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	logger.DatabaseCall("INSERT", "users", "username", u.Username)
	err := r.db.QueryRowContext(ctx, query, nullString(u.ExternalID), u.Username, u.Name, u.LastName, nullString(u.Rut), nullString(u.Phone), nullString(u.Email), u.Role, u.State, u.Loans).Scan(&u.ID)
	return uniqueViolation(err)
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := scanUser(r.db.QueryRowContext(ctx, query, id), u); err != nil {
		return nil, notFound(err, "user %d not found", id)
	}
	return u, nil
}

func (r *userRepository) GetForUpdate(ctx context.Context, id int32) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	logger.DatabaseCall("SELECT FOR UPDATE", "users", "id", id)
	if err := scanUser(r.db.QueryRowContext(ctx, query, id), u); err != nil {
		return nil, notFound(err, "user %d not found", id)
	}
	return u, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = LOWER($1)`
	if err := scanUser(r.db.QueryRowContext(ctx, query, strings.TrimSpace(username)), u); err != nil {
		return nil, notFound(err, "user %s not found", username)
	}
	return u, nil
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET name=$1, last_name=$2, rut=$3, phone=$4, email=$5, role=$6, state_client=$7, loans=$8 WHERE id=$9`
	res, err := r.db.ExecContext(ctx, query, u.Name, u.LastName, nullString(u.Rut), nullString(u.Phone), nullString(u.Email), u.Role, u.State, u.Loans, u.ID)
	if err != nil {
		return err
	}
	return expectOneRow(res, "user %d not found", u.ID)
}

func (r *userRepository) Delete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "user %d not found", id)
}

func (r *userRepository) ListByRoles(ctx context.Context, roles ...domain.UserRole) ([]domain.User, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE role = ANY($1) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type accountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, a *repository.Account) error {
	query := `INSERT INTO identity_accounts (external_id, username, password_hash, role, created_on) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, a.ExternalID, a.Username, a.PasswordHash, a.Role, a.CreatedOn)
	return uniqueViolation(err)
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*repository.Account, error) {
	a := &repository.Account{}
	query := `SELECT external_id, username, password_hash, role, created_on FROM identity_accounts WHERE LOWER(username) = LOWER($1)`
	err := r.db.QueryRowContext(ctx, query, username).Scan(&a.ExternalID, &a.Username, &a.PasswordHash, &a.Role, &a.CreatedOn)
	if err != nil {
		return nil, notFound(err, "account %s not found", username)
	}
	return a, nil
}

func (r *accountRepository) Delete(ctx context.Context, externalID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM identity_accounts WHERE external_id = $1`, externalID)
	if err != nil {
		return err
	}
	return expectOneRow(res, "account %s not found", externalID)
}
