package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"toolrental-backend/internal/clock"
	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/repository"
	"toolrental-backend/internal/utils"
)

type loanService struct {
	store repository.Store
	clock clock.Clock
}

func NewLoanService(store repository.Store, clk clock.Clock) LoanService {
	return &loanService{store: store, clock: clk}
}

// openLoan validates eligibility before touching the client's counter, so a
// refused loan leaves no trace.
func openLoan(ctx context.Context, repos repository.Repositories, actorID, clientID int32, initDate, returnDate time.Time) (*domain.Loan, *domain.User, error) {
	if _, err := requireStaff(ctx, repos, actorID); err != nil {
		return nil, nil, err
	}
	client, err := loadClient(ctx, repos, clientID)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case client.IsRestricted():
		return nil, nil, domain.ErrClientRestricted
	case !client.CanOpenLoan():
		return nil, nil, domain.ErrQuotaExceeded
	case !validLoanDates(initDate, returnDate):
		return nil, nil, domain.ErrInvalidDateRange
	}

	client.Loans++
	if err := repos.Users.Update(ctx, client); err != nil {
		return nil, nil, fmt.Errorf("failed to update client loans: %w", err)
	}

	loan := &domain.Loan{
		ClientID:   client.ID,
		InitDate:   utils.TruncateToDay(initDate),
		ReturnDate: utils.TruncateToDay(returnDate),
		Status:     domain.LoanStatusActive,
	}
	if err := repos.Loans.Create(ctx, loan); err != nil {
		return nil, nil, fmt.Errorf("failed to create loan: %w", err)
	}
	return loan, client, nil
}

// attachTool creates a line item for toolID after checking stock and that the
// client does not already hold the tool.
func attachTool(ctx context.Context, repos repository.Repositories, loan *domain.Loan, toolID int32) (*domain.LineItem, error) {
	tool, err := repos.Tools.GetByID(ctx, toolID)
	if err != nil {
		return nil, err
	}
	stock, err := availableStock(ctx, repos, toolID, false)
	if err != nil {
		return nil, err
	}
	if stock < 1 {
		return nil, fmt.Errorf("%w: %s", domain.ErrToolNotAvailable, tool.Name)
	}
	held, err := repos.LineItems.HasUnreturned(ctx, loan.ClientID, toolID)
	if err != nil {
		return nil, err
	}
	if held {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateActiveLoan, tool.Name)
	}

	item := &domain.LineItem{
		LoanID: loan.ID,
		ToolID: toolID,
		Debt:   tool.RentPrice,
	}
	if err := repos.LineItems.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create line item: %w", err)
	}
	return item, nil
}

func (s *loanService) Open(ctx context.Context, actorID, clientID int32, initDate, returnDate time.Time) (*domain.Loan, error) {
	logger.EnterMethod("loanService.Open", "actorID", actorID, "clientID", clientID)

	var loan *domain.Loan
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		loan, _, err = openLoan(ctx, repos, actorID, clientID, initDate, returnDate)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("loanService.Open", err, "clientID", clientID)
		return nil, err
	}

	logger.ExitMethod("loanService.Open", "loanID", loan.ID)
	return loan, nil
}

func (s *loanService) OpenWithLineItems(ctx context.Context, actorID, clientID int32, initDate, returnDate time.Time, toolIDs []int32) (*domain.Loan, []domain.LineItem, error) {
	logger.EnterMethod("loanService.OpenWithLineItems", "actorID", actorID, "clientID", clientID, "tools", len(toolIDs))

	if len(toolIDs) == 0 {
		return nil, nil, domain.ErrEmptyToolList
	}

	var (
		loan  *domain.Loan
		items []domain.LineItem
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		loan, _, err = openLoan(ctx, repos, actorID, clientID, initDate, returnDate)
		if err != nil {
			return err
		}
		items = make([]domain.LineItem, 0, len(toolIDs))
		for _, toolID := range toolIDs {
			item, err := attachTool(ctx, repos, loan, toolID)
			if err != nil {
				return err
			}
			items = append(items, *item)
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("loanService.OpenWithLineItems", err, "clientID", clientID)
		return nil, nil, err
	}

	logger.ExitMethod("loanService.OpenWithLineItems", "loanID", loan.ID, "items", len(items))
	return loan, items, nil
}

// Close finishes an ACTIVE loan that never received a line item. Any other loan
// is returned unchanged. The client's loan counter is left as is.
func (s *loanService) Close(ctx context.Context, loanID int32) (*domain.Loan, error) {
	var loan *domain.Loan
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		loan, err = repos.Loans.GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanStatusActive {
			return nil
		}
		n, err := repos.LineItems.CountByLoan(ctx, loanID)
		if err != nil || n > 0 {
			return err
		}
		loan.Status = domain.LoanStatusFinished
		logger.Info("Closing empty loan", "loanID", loanID)
		return repos.Loans.Update(ctx, loan)
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *loanService) Delete(ctx context.Context, loanID int32) bool {
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		loan, err := repos.Loans.GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		client, err := repos.Users.GetForUpdate(ctx, loan.ClientID)
		if err != nil {
			return err
		}
		if client.Loans > 0 {
			client.Loans--
		}
		if err := repos.Users.Update(ctx, client); err != nil {
			return err
		}
		return repos.Loans.Delete(ctx, loanID)
	})
	if err != nil {
		logger.Warn("Failed to delete loan", "loanID", loanID, "error", err)
		return false
	}
	logger.Info("Loan deleted", "loanID", loanID)
	return true
}

func (s *loanService) Overdue(ctx context.Context) ([]domain.Loan, error) {
	return s.store.Repos().Loans.ListDueBefore(ctx, s.clock.Now())
}

func (s *loanService) Get(ctx context.Context, loanID int32) (*domain.Loan, error) {
	return s.store.Repos().Loans.GetByID(ctx, loanID)
}

func (s *loanService) ListByClient(ctx context.Context, clientID int32) ([]domain.Loan, error) {
	repos := s.store.Repos()
	if _, err := repos.Users.GetByID(ctx, clientID); err != nil {
		return nil, err
	}
	return repos.Loans.ListByClient(ctx, clientID)
}

func (s *loanService) Filter(ctx context.Context, status string) ([]domain.Loan, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	switch status {
	case "":
		return s.store.Repos().Loans.List(ctx)
	case domain.LoanFilterOverdue:
		return s.Overdue(ctx)
	}
	return s.store.Repos().Loans.ListByStatus(ctx, domain.LoanStatus(status))
}

func (s *loanService) lineItems(ctx context.Context, loanID int32) ([]domain.LineItem, error) {
	repos := s.store.Repos()
	if _, err := repos.Loans.GetByID(ctx, loanID); err != nil {
		return nil, err
	}
	return repos.LineItems.ListByLoan(ctx, loanID)
}

// TotalDebt sums the rental prices recorded on the loan's line items.
func (s *loanService) TotalDebt(ctx context.Context, loanID int32) (int64, error) {
	items, err := s.lineItems(ctx, loanID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, item := range items {
		total += int64(item.Debt)
	}
	return total, nil
}

func (s *loanService) TotalFine(ctx context.Context, loanID int32) (int64, error) {
	items, err := s.lineItems(ctx, loanID)
	if err != nil {
		return 0, err
	}
	return sumFines(items), nil
}
