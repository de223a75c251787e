package postgres

import (
	"context"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/repository"
)

type toolStateRepository struct {
	db DBTX
}

func NewToolStateRepository(db DBTX) repository.ToolStateRepository {
	return &toolStateRepository{db: db}
}

const stateColumns = `id, name, COALESCE(code, ''), color`

func scanState(row interface{ Scan(...any) error }, s *domain.ToolState) error {
	return row.Scan(&s.ID, &s.Name, &s.Code, &s.Color)
}

func (r *toolStateRepository) Create(ctx context.Context, s *domain.ToolState) error {
	query := `INSERT INTO tool_states (name, code, color) VALUES ($1, $2, $3) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, s.Name, nullString(string(s.Code)), s.Color).Scan(&s.ID)
	return uniqueViolation(err)
}

func (r *toolStateRepository) GetByID(ctx context.Context, id int32) (*domain.ToolState, error) {
	s := &domain.ToolState{}
	if err := scanState(r.db.QueryRowContext(ctx, `SELECT `+stateColumns+` FROM tool_states WHERE id = $1`, id), s); err != nil {
		return nil, notFound(err, "tool state %d not found", id)
	}
	return s, nil
}

func (r *toolStateRepository) GetByCode(ctx context.Context, code domain.StateCode) (*domain.ToolState, error) {
	s := &domain.ToolState{}
	if err := scanState(r.db.QueryRowContext(ctx, `SELECT `+stateColumns+` FROM tool_states WHERE code = $1`, string(code)), s); err != nil {
		return nil, notFound(err, "tool state %s not found", code)
	}
	return s, nil
}

func (r *toolStateRepository) GetByName(ctx context.Context, name string) (*domain.ToolState, error) {
	s := &domain.ToolState{}
	if err := scanState(r.db.QueryRowContext(ctx, `SELECT `+stateColumns+` FROM tool_states WHERE LOWER(name) = LOWER($1)`, name), s); err != nil {
		return nil, notFound(err, "tool state %s not found", name)
	}
	return s, nil
}

func (r *toolStateRepository) Update(ctx context.Context, s *domain.ToolState) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tool_states SET name=$1, color=$2 WHERE id=$3`, s.Name, s.Color, s.ID)
	if err != nil {
		return uniqueViolation(err)
	}
	return expectOneRow(res, "tool state %d not found", s.ID)
}

func (r *toolStateRepository) Delete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tool_states WHERE id = $1 AND code IS NULL`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "tool state %d not found", id)
}

func (r *toolStateRepository) List(ctx context.Context) ([]domain.ToolState, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+stateColumns+` FROM tool_states ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []domain.ToolState
	for rows.Next() {
		var s domain.ToolState
		if err := scanState(rows, &s); err != nil {
			return nil, err
		}
		states = append(states, s)
	}
	return states, rows.Err()
}
