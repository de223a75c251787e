package postgres

import (
	"context"
	"database/sql"
	"time"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/repository"
)

type loanRepository struct {
	db DBTX
}

func NewLoanRepository(db DBTX) repository.LoanRepository {
	return &loanRepository{db: db}
}

const loanColumns = `id, client_id, init_date, return_date, real_return_date, status`

func scanLoan(row interface{ Scan(...any) error }, l *domain.Loan) error {
	var realReturn sql.NullTime
	if err := row.Scan(&l.ID, &l.ClientID, &l.InitDate, &l.ReturnDate, &realReturn, &l.Status); err != nil {
		return err
	}
	if realReturn.Valid {
		t := realReturn.Time
		l.RealReturnDate = &t
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (r *loanRepository) Create(ctx context.Context, l *domain.Loan) error {
	query := `INSERT INTO loans (client_id, init_date, return_date, real_return_date, status) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	logger.DatabaseCall("INSERT", "loans", "client_id", l.ClientID)
	return r.db.QueryRowContext(ctx, query, l.ClientID, l.InitDate, l.ReturnDate, nullTime(l.RealReturnDate), l.Status).Scan(&l.ID)
}

func (r *loanRepository) GetByID(ctx context.Context, id int32) (*domain.Loan, error) {
	l := &domain.Loan{}
	if err := scanLoan(r.db.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id), l); err != nil {
		return nil, notFound(err, "loan %d not found", id)
	}
	return l, nil
}

func (r *loanRepository) Update(ctx context.Context, l *domain.Loan) error {
	query := `UPDATE loans SET init_date=$1, return_date=$2, real_return_date=$3, status=$4 WHERE id=$5`
	res, err := r.db.ExecContext(ctx, query, l.InitDate, l.ReturnDate, nullTime(l.RealReturnDate), l.Status, l.ID)
	if err != nil {
		return err
	}
	return expectOneRow(res, "loan %d not found", l.ID)
}

func (r *loanRepository) Delete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "loan %d not found", id)
}

func (r *loanRepository) List(ctx context.Context) ([]domain.Loan, error) {
	return r.list(ctx, `SELECT `+loanColumns+` FROM loans ORDER BY id`)
}

func (r *loanRepository) ListByClient(ctx context.Context, clientID int32) ([]domain.Loan, error) {
	return r.list(ctx, `SELECT `+loanColumns+` FROM loans WHERE client_id = $1 ORDER BY id`, clientID)
}

func (r *loanRepository) ListByStatus(ctx context.Context, status domain.LoanStatus) ([]domain.Loan, error) {
	return r.list(ctx, `SELECT `+loanColumns+` FROM loans WHERE status = $1 ORDER BY id`, string(status))
}

func (r *loanRepository) ListDueBefore(ctx context.Context, t time.Time) ([]domain.Loan, error) {
	return r.list(ctx, `SELECT `+loanColumns+` FROM loans WHERE return_date < $1 ORDER BY return_date, id`, t)
}

func (r *loanRepository) list(ctx context.Context, query string, args ...any) ([]domain.Loan, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		var l domain.Loan
		if err := scanLoan(rows, &l); err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}
