package postgres

import (
	"context"
	"database/sql"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/repository"
)

type lineItemRepository struct {
	db DBTX
}

func NewLineItemRepository(db DBTX) repository.LineItemRepository {
	return &lineItemRepository{db: db}
}

const lineItemColumns = `id, loan_id, tool_id, delivered_by, received_by, COALESCE(activity, ''), debt, fine, needs_repair`

func scanLineItem(row interface{ Scan(...any) error }, li *domain.LineItem) error {
	var deliveredBy, receivedBy sql.NullInt32
	if err := row.Scan(&li.ID, &li.LoanID, &li.ToolID, &deliveredBy, &receivedBy, &li.Activity, &li.Debt, &li.Fine, &li.NeedsRepair); err != nil {
		return err
	}
	li.DeliveredByID = int32Ptr(deliveredBy)
	li.ReceivedByID = int32Ptr(receivedBy)
	return nil
}

func (r *lineItemRepository) Create(ctx context.Context, li *domain.LineItem) error {
	query := `INSERT INTO loan_line_items (loan_id, tool_id, delivered_by, received_by, activity, debt, fine, needs_repair)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	logger.DatabaseCall("INSERT", "loan_line_items", "loan_id", li.LoanID, "tool_id", li.ToolID)
	return r.db.QueryRowContext(ctx, query, li.LoanID, li.ToolID, nullInt32(li.DeliveredByID), nullInt32(li.ReceivedByID),
		nullString(string(li.Activity)), li.Debt, li.Fine, li.NeedsRepair).Scan(&li.ID)
}

func (r *lineItemRepository) GetByID(ctx context.Context, id int32) (*domain.LineItem, error) {
	li := &domain.LineItem{}
	if err := scanLineItem(r.db.QueryRowContext(ctx, `SELECT `+lineItemColumns+` FROM loan_line_items WHERE id = $1`, id), li); err != nil {
		return nil, notFound(err, "line item %d not found", id)
	}
	return li, nil
}

func (r *lineItemRepository) Update(ctx context.Context, li *domain.LineItem) error {
	query := `UPDATE loan_line_items SET delivered_by=$1, received_by=$2, activity=$3, debt=$4, fine=$5, needs_repair=$6 WHERE id=$7`
	res, err := r.db.ExecContext(ctx, query, nullInt32(li.DeliveredByID), nullInt32(li.ReceivedByID), nullString(string(li.Activity)),
		li.Debt, li.Fine, li.NeedsRepair, li.ID)
	if err != nil {
		return err
	}
	return expectOneRow(res, "line item %d not found", li.ID)
}

func (r *lineItemRepository) Delete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM loan_line_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "line item %d not found", id)
}

func (r *lineItemRepository) ListByLoan(ctx context.Context, loanID int32) ([]domain.LineItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+lineItemColumns+` FROM loan_line_items WHERE loan_id = $1 ORDER BY id`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var li domain.LineItem
		if err := scanLineItem(rows, &li); err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

func (r *lineItemRepository) CountByLoan(ctx context.Context, loanID int32) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loan_line_items WHERE loan_id = $1`, loanID).Scan(&n)
	return n, err
}

func (r *lineItemRepository) HasUnreturned(ctx context.Context, clientID, toolID int32) (bool, error) {
	query := `SELECT EXISTS (
	              SELECT 1 FROM loan_line_items li JOIN loans l ON l.id = li.loan_id
	              WHERE l.client_id = $1 AND li.tool_id = $2 AND COALESCE(li.activity, '') <> $3)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, clientID, toolID, string(domain.ActivityReturned)).Scan(&exists)
	return exists, err
}

func (r *lineItemRepository) CountUnreturnedByTool(ctx context.Context, toolID int32) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM loan_line_items WHERE tool_id = $1 AND COALESCE(activity, '') <> $2`
	err := r.db.QueryRowContext(ctx, query, toolID, string(domain.ActivityReturned)).Scan(&n)
	return n, err
}

func (r *lineItemRepository) SumFineByClient(ctx context.Context, clientID int32) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(li.fine), 0) FROM loan_line_items li JOIN loans l ON l.id = li.loan_id WHERE l.client_id = $1`
	err := r.db.QueryRowContext(ctx, query, clientID).Scan(&total)
	return total, err
}
