package jobs

import (
	"context"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/logger"
)

// ReportOverdueLoans logs every loan whose expected return date has passed.
// Fines are charged on receive, so nothing is written here.
func (jr *JobRunner) ReportOverdueLoans() {
	jr.runWithRecovery("ReportOverdueLoans", func() {
		if _, err := jr.reportOverdueLoans(context.Background()); err != nil {
			logger.Error("Failed to report overdue loans", "error", err)
		}
	})
}

func (jr *JobRunner) reportOverdueLoans(ctx context.Context) ([]domain.Loan, error) {
	overdue, err := jr.services.Loan.Overdue(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info("Found overdue loans", "count", len(overdue))
	for _, loan := range overdue {
		logger.Warn("Loan is overdue",
			"loan_id", loan.ID,
			"client_id", loan.ClientID,
			"return_date", loan.ReturnDate.Format("2006-01-02"))
	}
	return overdue, nil
}

// CloseEmptyLoans finishes ACTIVE loans that never got a line item.
func (jr *JobRunner) CloseEmptyLoans() {
	jr.runWithRecovery("CloseEmptyLoans", func() {
		if _, err := jr.closeEmptyLoans(context.Background()); err != nil {
			logger.Error("Failed to close empty loans", "error", err)
		}
	})
}

func (jr *JobRunner) closeEmptyLoans(ctx context.Context) (int, error) {
	active, err := jr.services.Loan.Filter(ctx, string(domain.LoanStatusActive))
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, loan := range active {
		items, err := jr.services.LineItem.ListByLoan(ctx, loan.ID)
		if err != nil {
			logger.Error("Failed to list line items", "loan_id", loan.ID, "error", err)
			continue
		}
		if len(items) > 0 {
			continue
		}
		updated, err := jr.services.Loan.Close(ctx, loan.ID)
		if err != nil {
			logger.Error("Failed to close loan", "loan_id", loan.ID, "error", err)
			continue
		}
		if updated.Status == domain.LoanStatusFinished {
			closed++
			logger.Debug("Closed empty loan", "loan_id", loan.ID, "client_id", loan.ClientID)
		}
	}

	logger.Info("Closed empty loans", "count", closed)
	return closed, nil
}
