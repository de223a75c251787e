package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/repository"
)

type kardexRepository struct {
	db DBTX
}

func NewKardexRepository(db DBTX) repository.KardexRepository {
	return &kardexRepository{db: db}
}

const kardexColumns = `id, tool_id, type, moved_at, quantity, cost, client_id, employee_id`

func scanKardex(row interface{ Scan(...any) error }, e *domain.KardexEntry) error {
	var cost, clientID sql.NullInt32
	if err := row.Scan(&e.ID, &e.ToolID, &e.Type, &e.Date, &e.Quantity, &cost, &clientID, &e.EmployeeID); err != nil {
		return err
	}
	e.Cost = int32Ptr(cost)
	e.ClientID = int32Ptr(clientID)
	return nil
}

func (r *kardexRepository) Create(ctx context.Context, e *domain.KardexEntry) error {
	query := `INSERT INTO kardex_entries (tool_id, type, moved_at, quantity, cost, client_id, employee_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	logger.DatabaseCall("INSERT", "kardex_entries", "tool_id", e.ToolID, "type", e.Type)
	return r.db.QueryRowContext(ctx, query, e.ToolID, e.Type, e.Date, e.Quantity, nullInt32(e.Cost), nullInt32(e.ClientID), e.EmployeeID).Scan(&e.ID)
}

func (r *kardexRepository) GetByID(ctx context.Context, id int32) (*domain.KardexEntry, error) {
	e := &domain.KardexEntry{}
	if err := scanKardex(r.db.QueryRowContext(ctx, `SELECT `+kardexColumns+` FROM kardex_entries WHERE id = $1`, id), e); err != nil {
		return nil, notFound(err, "kardex entry %d not found", id)
	}
	return e, nil
}

func (r *kardexRepository) Find(ctx context.Context, q repository.KardexQuery) ([]domain.KardexEntry, error) {
	query := `SELECT ` + kardexColumns + ` FROM kardex_entries WHERE 1=1`
	var args []any
	argIdx := 1

	add := func(clause string, v any) {
		query += fmt.Sprintf(clause, argIdx)
		args = append(args, v)
		argIdx++
	}
	if q.ToolID != nil {
		add(" AND tool_id = $%d", *q.ToolID)
	}
	if q.Type != nil {
		add(" AND type = $%d", string(*q.Type))
	}
	if q.From != nil {
		add(" AND moved_at >= $%d", *q.From)
	}
	if q.Until != nil {
		add(" AND moved_at < $%d", *q.Until)
	}
	if q.ClientID != nil {
		add(" AND client_id = $%d", *q.ClientID)
	}
	if q.EmployeeID != nil {
		add(" AND employee_id = $%d", *q.EmployeeID)
	}
	query += " ORDER BY id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.KardexEntry
	for rows.Next() {
		var e domain.KardexEntry
		if err := scanKardex(rows, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *kardexRepository) SumLoansByTool(ctx context.Context, from, until time.Time, limit int) ([]repository.ToolLoanTotal, error) {
	query := `SELECT k.tool_id, SUM(k.quantity) AS total
	          FROM kardex_entries k JOIN tools t ON t.id = k.tool_id
	          WHERE k.type = $1 AND k.moved_at >= $2 AND k.moved_at < $3 AND t.deleted_on IS NULL
	          GROUP BY k.tool_id
	          ORDER BY total DESC, k.tool_id
	          LIMIT $4`
	rows, err := r.db.QueryContext(ctx, query, string(domain.MovementLoan), from, until, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []repository.ToolLoanTotal
	for rows.Next() {
		var t repository.ToolLoanTotal
		if err := rows.Scan(&t.ToolID, &t.Total); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
