package service

import (
	"context"
	"fmt"

	"toolrental-backend/internal/clock"
	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/repository"
)

type settlementService struct {
	store repository.Store
	clock clock.Clock
}

func NewSettlementService(store repository.Store, clk clock.Clock) SettlementService {
	return &settlementService{store: store, clock: clk}
}

// PayDebt settles every fine on the loan. It does nothing and reports false
// unless the client is restricted or owes a fine somewhere.
func (s *settlementService) PayDebt(ctx context.Context, actorID, loanID int32) (bool, error) {
	logger.EnterMethod("settlementService.PayDebt", "actorID", actorID, "loanID", loanID)

	var paid bool
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := requireStaff(ctx, repos, actorID); err != nil {
			return err
		}
		loan, err := repos.Loans.GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		client, err := loadClient(ctx, repos, loan.ClientID)
		if err != nil {
			return err
		}
		debt, err := clientHasDebt(ctx, repos, client.ID)
		if err != nil {
			return err
		}
		if !client.IsRestricted() && !debt {
			return nil
		}

		items, err := repos.LineItems.ListByLoan(ctx, loanID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		// Every item gets a DEBT-PAYMENT row, including items without a fine (cost 0).
		for i := range items {
			item := &items[i]
			err := recordKardex(ctx, repos, &domain.KardexEntry{
				ToolID:     item.ToolID,
				Type:       domain.MovementDebtPayment,
				Date:       now,
				Quantity:   1,
				Cost:       ptr(item.Fine),
				ClientID:   ptr(client.ID),
				EmployeeID: actorID,
			})
			if err != nil {
				return err
			}
			item.Fine = 0
			if err := repos.LineItems.Update(ctx, item); err != nil {
				return fmt.Errorf("failed to clear fine: %w", err)
			}
		}

		debt, err = clientHasDebt(ctx, repos, client.ID)
		if err != nil {
			return err
		}
		repairPending := loanNeedsRepair(items)
		if !debt && !repairPending {
			client.State = domain.ClientStateActive
		}
		if err := repos.Users.Update(ctx, client); err != nil {
			return err
		}
		if !repairPending {
			loan.Status = domain.LoanStatusFinished
		}
		if err := repos.Loans.Update(ctx, loan); err != nil {
			return err
		}
		paid = true
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("settlementService.PayDebt", err, "loanID", loanID)
		return false, err
	}

	logger.ExitMethod("settlementService.PayDebt", "loanID", loanID, "paid", paid)
	return paid, nil
}

// PayRepair charges cost once per item awaiting repair and puts the tools back
// in stock. It reports false when nothing on the loan needed repair.
func (s *settlementService) PayRepair(ctx context.Context, actorID, loanID, cost int32) (bool, error) {
	logger.EnterMethod("settlementService.PayRepair", "actorID", actorID, "loanID", loanID, "cost", cost)

	var repaired bool
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := requireStaff(ctx, repos, actorID); err != nil {
			return err
		}
		if cost < 0 {
			return domain.Validationf("repair cost cannot be negative")
		}
		loan, err := repos.Loans.GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		client, err := loadClient(ctx, repos, loan.ClientID)
		if err != nil {
			return err
		}
		items, err := repos.LineItems.ListByLoan(ctx, loanID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		for i := range items {
			item := &items[i]
			if !item.NeedsRepair {
				continue
			}
			err := recordKardex(ctx, repos, &domain.KardexEntry{
				ToolID:     item.ToolID,
				Type:       domain.MovementRepairPayment,
				Date:       now,
				Quantity:   1,
				Cost:       ptr(cost),
				ClientID:   ptr(client.ID),
				EmployeeID: actorID,
			})
			if err != nil {
				return err
			}
			item.NeedsRepair = false
			if err := repos.LineItems.Update(ctx, item); err != nil {
				return fmt.Errorf("failed to clear repair flag: %w", err)
			}
			if err := transition(ctx, repos, item.ToolID, domain.StateInRepair, domain.StateAvailable, 1); err != nil {
				return err
			}
			repaired = true
		}
		if !repaired {
			return nil
		}

		debt, err := clientHasDebt(ctx, repos, client.ID)
		if err != nil {
			return err
		}
		if !debt {
			client.State = domain.ClientStateActive
		}
		if err := repos.Users.Update(ctx, client); err != nil {
			return err
		}
		if sumFines(items) == 0 {
			loan.Status = domain.LoanStatusFinished
		}
		return repos.Loans.Update(ctx, loan)
	})
	if err != nil {
		logger.ExitMethodWithError("settlementService.PayRepair", err, "loanID", loanID)
		return false, err
	}

	logger.ExitMethod("settlementService.PayRepair", "loanID", loanID, "repaired", repaired)
	return repaired, nil
}

func (s *settlementService) NeedsRepair(ctx context.Context, loanID int32) (bool, error) {
	items, err := s.ItemsNeedingRepair(ctx, loanID)
	if err != nil {
		return false, err
	}
	return len(items) > 0, nil
}

func (s *settlementService) ItemsNeedingRepair(ctx context.Context, loanID int32) ([]domain.LineItem, error) {
	repos := s.store.Repos()
	if _, err := repos.Loans.GetByID(ctx, loanID); err != nil {
		return nil, err
	}
	items, err := repos.LineItems.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	var out []domain.LineItem
	for _, item := range items {
		if item.NeedsRepair {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *settlementService) HasOutstandingDebt(ctx context.Context, clientID int32) (bool, error) {
	repos := s.store.Repos()
	if _, err := repos.Users.GetByID(ctx, clientID); err != nil {
		return false, err
	}
	return clientHasDebt(ctx, repos, clientID)
}
