package postgres

import (
	"context"
	"fmt"
	"strings"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/repository"
)

type inventoryRepository struct {
	db DBTX
}

func NewInventoryRepository(db DBTX) repository.InventoryRepository {
	return &inventoryRepository{db: db}
}

const recordColumns = `ir.id, ir.tool_id, ir.state_id, s.name, COALESCE(s.code, ''), ir.stock`

func scanRecord(row interface{ Scan(...any) error }, rec *domain.InventoryRecord) error {
	return row.Scan(&rec.ID, &rec.ToolID, &rec.StateID, &rec.StateName, &rec.StateCode, &rec.Stock)
}

func (r *inventoryRepository) Create(ctx context.Context, rec *domain.InventoryRecord) error {
	query := `INSERT INTO inventory_records (tool_id, state_id, stock) VALUES ($1, $2, $3) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, rec.ToolID, rec.StateID, rec.Stock).Scan(&rec.ID)
	return uniqueViolation(err)
}

func (r *inventoryRepository) GetForUpdate(ctx context.Context, toolID, stateID int32) (*domain.InventoryRecord, error) {
	return r.get(ctx, toolID, stateID, true)
}

func (r *inventoryRepository) Get(ctx context.Context, toolID, stateID int32) (*domain.InventoryRecord, error) {
	return r.get(ctx, toolID, stateID, false)
}

func (r *inventoryRepository) get(ctx context.Context, toolID, stateID int32, lock bool) (*domain.InventoryRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM inventory_records ir JOIN tool_states s ON s.id = ir.state_id
	          WHERE ir.tool_id = $1 AND ir.state_id = $2`
	if lock {
		query += ` FOR UPDATE OF ir`
	}
	logger.DatabaseCall("SELECT", "inventory_records", "tool_id", toolID, "state_id", stateID, "lock", lock)
	rec := &domain.InventoryRecord{}
	if err := scanRecord(r.db.QueryRowContext(ctx, query, toolID, stateID), rec); err != nil {
		return nil, notFound(err, "inventory record for tool %d state %d not found", toolID, stateID)
	}
	return rec, nil
}

func (r *inventoryRepository) UpdateStock(ctx context.Context, id int32, stock int32) error {
	res, err := r.db.ExecContext(ctx, `UPDATE inventory_records SET stock = $1 WHERE id = $2`, stock, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "inventory record %d not found", id)
}

func (r *inventoryRepository) ListByTool(ctx context.Context, toolID int32) ([]domain.InventoryRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM inventory_records ir JOIN tool_states s ON s.id = ir.state_id
	          WHERE ir.tool_id = $1 ORDER BY ir.state_id`
	rows, err := r.db.QueryContext(ctx, query, toolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.InventoryRecord
	for rows.Next() {
		var rec domain.InventoryRecord
		if err := scanRecord(rows, &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *inventoryRepository) SumStockByState(ctx context.Context, stateID int32) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(stock), 0) FROM inventory_records WHERE state_id = $1`, stateID).Scan(&total)
	return total, err
}

func (r *inventoryRepository) DeleteByState(ctx context.Context, stateID int32) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM inventory_records WHERE state_id = $1`, stateID)
	return err
}

// likeEscaper makes user text match literally; backslash is the default LIKE escape.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (r *inventoryRepository) Filter(ctx context.Context, f domain.InventoryFilter) ([]domain.InventoryRecord, error) {
	sql := `SELECT ` + recordColumns + `, ` + toolColumns + `
	        FROM inventory_records ir
	        JOIN tool_states s ON s.id = ir.state_id
	        JOIN tools t ON t.id = ir.tool_id
	        LEFT JOIN categories c ON c.id = t.category_id
	        WHERE t.deleted_on IS NULL`

	var args []any
	argIdx := 1

	if f.State != "" {
		sql += fmt.Sprintf(" AND (LOWER(s.name) = LOWER($%d) OR s.code = UPPER($%d))", argIdx, argIdx)
		args = append(args, f.State)
		argIdx++
	}
	if f.Category != "" {
		sql += fmt.Sprintf(" AND LOWER(c.name) = LOWER($%d)", argIdx)
		args = append(args, f.Category)
		argIdx++
	}
	if f.ToolID != nil {
		sql += fmt.Sprintf(" AND ir.tool_id = $%d", argIdx)
		args = append(args, *f.ToolID)
		argIdx++
	}
	if f.MinPrice != nil {
		sql += fmt.Sprintf(" AND t.rent_price >= $%d", argIdx)
		args = append(args, *f.MinPrice)
		argIdx++
	}
	if f.MaxPrice != nil {
		sql += fmt.Sprintf(" AND t.rent_price <= $%d", argIdx)
		args = append(args, *f.MaxPrice)
		argIdx++
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		sql += fmt.Sprintf(" AND t.name ILIKE $%d", argIdx)
		args = append(args, "%"+likeEscaper.Replace(search)+"%")
	}

	switch f.Sort() {
	case domain.InventorySortRecent:
		sql += " ORDER BY ir.id DESC"
	case domain.InventorySortDesc:
		sql += " ORDER BY t.rent_price DESC, ir.id"
	case domain.InventorySortAsc:
		sql += " ORDER BY t.rent_price ASC, ir.id"
	default:
		sql += " ORDER BY ir.id"
	}

	logger.DatabaseCall("SELECT", "inventory_records filter", "args", len(args))
	rows, err := r.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.InventoryRecord
	for rows.Next() {
		var rec domain.InventoryRecord
		var tool domain.Tool
		if err := scanTool(recordWithTool{rows: rows, rec: &rec}, &tool); err != nil {
			return nil, err
		}
		rec.Tool = &tool
		records = append(records, rec)
	}
	return records, rows.Err()
}

// recordWithTool scans the record columns ahead of the tool columns of a filter row.
type recordWithTool struct {
	rows interface{ Scan(...any) error }
	rec  *domain.InventoryRecord
}

func (s recordWithTool) Scan(dest ...any) error {
	head := []any{&s.rec.ID, &s.rec.ToolID, &s.rec.StateID, &s.rec.StateName, &s.rec.StateCode, &s.rec.Stock}
	return s.rows.Scan(append(head, dest...)...)
}
