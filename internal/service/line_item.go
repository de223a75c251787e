package service

import (
	"context"
	"fmt"

	"toolrental-backend/internal/clock"
	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/repository"
	"toolrental-backend/internal/utils"
)

type lineItemService struct {
	store repository.Store
	clock clock.Clock
}

func NewLineItemService(store repository.Store, clk clock.Clock) LineItemService {
	return &lineItemService{store: store, clock: clk}
}

func (s *lineItemService) Create(ctx context.Context, actorID, loanID, toolID int32) (*domain.LineItem, error) {
	logger.EnterMethod("lineItemService.Create", "actorID", actorID, "loanID", loanID, "toolID", toolID)

	var item *domain.LineItem
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := requireStaff(ctx, repos, actorID); err != nil {
			return err
		}
		loan, err := repos.Loans.GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanStatusActive {
			return domain.ErrLoanClosed
		}
		client, err := repos.Users.GetByID(ctx, loan.ClientID)
		if err != nil {
			return err
		}
		if client.IsRestricted() {
			return domain.ErrClientRestricted
		}
		if !validLoanDates(loan.InitDate, loan.ReturnDate) {
			return domain.ErrInvalidDateRange
		}
		item, err = attachTool(ctx, repos, loan, toolID)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("lineItemService.Create", err, "loanID", loanID)
		return nil, err
	}

	logger.ExitMethod("lineItemService.Create", "itemID", item.ID)
	return item, nil
}

func (s *lineItemService) deliver(ctx context.Context, repos repository.Repositories, actorID, itemID int32) (*domain.LineItem, error) {
	if _, err := requireStaff(ctx, repos, actorID); err != nil {
		return nil, err
	}
	item, err := repos.LineItems.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	loan, err := repos.Loans.GetByID(ctx, item.LoanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanStatusActive {
		return nil, domain.ErrLoanClosed
	}
	if item.HasActivity() {
		return nil, domain.ErrPriorActivity
	}

	// Holding the AVAILABLE row serializes deliveries competing for the last unit.
	stock, err := availableStock(ctx, repos, item.ToolID, true)
	if err != nil {
		return nil, err
	}
	if stock < 1 {
		return nil, fmt.Errorf("%w: tool %d", domain.ErrToolNotAvailable, item.ToolID)
	}
	if err := transition(ctx, repos, item.ToolID, domain.StateAvailable, domain.StateLoaned, 1); err != nil {
		return nil, err
	}

	item.Activity = domain.ActivityDelivered
	item.DeliveredByID = ptr(actorID)
	if err := repos.LineItems.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update line item: %w", err)
	}

	err = recordKardex(ctx, repos, &domain.KardexEntry{
		ToolID:     item.ToolID,
		Type:       domain.MovementLoan,
		Date:       s.clock.Today(),
		Quantity:   1,
		ClientID:   ptr(loan.ClientID),
		EmployeeID: actorID,
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *lineItemService) Deliver(ctx context.Context, actorID, itemID int32) (*domain.LineItem, error) {
	logger.EnterMethod("lineItemService.Deliver", "actorID", actorID, "itemID", itemID)

	var item *domain.LineItem
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		item, err = s.deliver(ctx, repos, actorID, itemID)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("lineItemService.Deliver", err, "itemID", itemID)
		return nil, err
	}

	logger.ExitMethod("lineItemService.Deliver", "itemID", itemID)
	return item, nil
}

func (s *lineItemService) DeliverBatch(ctx context.Context, actorID int32, itemIDs []int32) ([]BatchResult, error) {
	if len(itemIDs) == 0 {
		return nil, domain.Validationf("at least one line item is required")
	}

	results := make([]BatchResult, 0, len(itemIDs))
	for _, id := range itemIDs {
		item, err := s.Deliver(ctx, actorID, id)
		results = append(results, BatchResult{LineItemID: id, Item: item, Err: err})
		if err != nil {
			logger.Warn("Delivery batch stopped", "itemID", id, "delivered", len(results)-1)
			return results, fmt.Errorf("line item %d: %w", id, err)
		}
	}
	return results, nil
}

func (s *lineItemService) receive(ctx context.Context, repos repository.Repositories, actorID, itemID int32, damage domain.DamageClassification) (*domain.LineItem, error) {
	if _, err := requireStaff(ctx, repos, actorID); err != nil {
		return nil, err
	}
	item, err := repos.LineItems.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.HasActivity() {
		return nil, domain.ErrActivityMissing
	}
	if item.Activity == domain.ActivityReturned {
		return nil, domain.ErrAlreadyReturned
	}
	loan, err := repos.Loans.GetByID(ctx, item.LoanID)
	if err != nil {
		return nil, err
	}
	tool, err := repos.Tools.GetByID(ctx, item.ToolID)
	if err != nil {
		return nil, err
	}

	dest, movement := damage.Destination()
	if err := transition(ctx, repos, item.ToolID, domain.StateLoaned, dest, 1); err != nil {
		return nil, err
	}
	if damage == domain.DamageRepairable {
		item.NeedsRepair = true
	}

	today := s.clock.Today()
	// A zero fine never overwrites one already on the item.
	if fine := utils.CalculateReturnFine(loan, tool, damage, today); fine != 0 {
		item.Fine = fine
	}
	item.Activity = domain.ActivityReturned
	item.ReceivedByID = ptr(actorID)
	if err := repos.LineItems.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update line item: %w", err)
	}

	err = recordKardex(ctx, repos, &domain.KardexEntry{
		ToolID:     item.ToolID,
		Type:       movement,
		Date:       today,
		Quantity:   1,
		ClientID:   ptr(loan.ClientID),
		EmployeeID: actorID,
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *lineItemService) receiveOne(ctx context.Context, actorID, itemID int32, damage domain.DamageClassification) (*domain.LineItem, error) {
	logger.EnterMethod("lineItemService.Receive", "actorID", actorID, "itemID", itemID, "damage", damage)

	var item *domain.LineItem
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		item, err = s.receive(ctx, repos, actorID, itemID, damage)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("lineItemService.Receive", err, "itemID", itemID)
		return nil, err
	}

	logger.ExitMethod("lineItemService.Receive", "itemID", itemID, "fine", item.Fine)
	return item, nil
}

func (s *lineItemService) Receive(ctx context.Context, actorID, itemID int32, damage string) (*domain.LineItem, error) {
	classification, err := domain.ParseDamage(damage)
	if err != nil {
		return nil, err
	}
	return s.receiveOne(ctx, actorID, itemID, classification)
}

func (s *lineItemService) ReceiveBatch(ctx context.Context, actorID, loanID int32, damages map[int32]string) (*domain.Loan, []BatchResult, error) {
	logger.EnterMethod("lineItemService.ReceiveBatch", "actorID", actorID, "loanID", loanID, "items", len(damages))

	repos := s.store.Repos()
	if _, err := requireStaff(ctx, repos, actorID); err != nil {
		return nil, nil, err
	}
	if _, err := repos.Loans.GetByID(ctx, loanID); err != nil {
		return nil, nil, err
	}
	items, err := repos.LineItems.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}

	// Every label is checked before the first item is touched.
	if len(items) == 0 {
		return nil, nil, domain.Validationf("loan %d has no line items", loanID)
	}
	if len(damages) != len(items) {
		return nil, nil, domain.Validationf("expected %d damage labels, got %d", len(items), len(damages))
	}
	parsed := make(map[int32]domain.DamageClassification, len(damages))
	for _, item := range items {
		raw, ok := damages[item.ID]
		if !ok {
			return nil, nil, domain.Validationf("missing damage label for line item %d", item.ID)
		}
		d, err := domain.ParseDamage(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("line item %d: %w", item.ID, err)
		}
		parsed[item.ID] = d
	}

	results := make([]BatchResult, 0, len(items))
	for _, item := range items {
		if item.Activity == domain.ActivityReturned {
			results = append(results, BatchResult{LineItemID: item.ID, Item: &item, Skipped: true})
			continue
		}
		updated, err := s.receiveOne(ctx, actorID, item.ID, parsed[item.ID])
		results = append(results, BatchResult{LineItemID: item.ID, Item: updated, Err: err})
		if err != nil {
			logger.ExitMethodWithError("lineItemService.ReceiveBatch", err, "loanID", loanID, "itemID", item.ID)
			return nil, results, fmt.Errorf("line item %d: %w", item.ID, err)
		}
	}

	loan, err := s.finalize(ctx, loanID)
	if err != nil {
		logger.ExitMethodWithError("lineItemService.ReceiveBatch", err, "loanID", loanID)
		return nil, results, err
	}

	logger.ExitMethod("lineItemService.ReceiveBatch", "loanID", loanID, "status", loan.Status)
	return loan, results, nil
}

// finalize closes out an ACTIVE loan once every line item is back. A clean
// return finishes the loan; fines or repairs leave it pending and restrict the client.
func (s *lineItemService) finalize(ctx context.Context, loanID int32) (*domain.Loan, error) {
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
		items, err := repos.LineItems.ListByLoan(ctx, loanID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if item.Activity != domain.ActivityReturned {
				return nil
			}
		}

		client, err := loadClient(ctx, repos, loan.ClientID)
		if err != nil {
			return err
		}
		loan.RealReturnDate = ptr(s.clock.Today())
		if client.Loans > 0 {
			client.Loans--
		}

		if sumFines(items) == 0 && !loanNeedsRepair(items) {
			loan.Status = domain.LoanStatusFinished
			debt, err := clientHasDebt(ctx, repos, client.ID)
			if err != nil {
				return err
			}
			if !debt {
				client.State = domain.ClientStateActive
			}
		} else {
			loan.Status = domain.LoanStatusPending
			client.State = domain.ClientStateRestricted
		}

		if err := repos.Loans.Update(ctx, loan); err != nil {
			return err
		}
		if err := repos.Users.Update(ctx, client); err != nil {
			return err
		}
		logger.Info("Loan returned", "loanID", loanID, "status", loan.Status, "clientState", client.State)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *lineItemService) Delete(ctx context.Context, actorID, itemID int32) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := requireStaff(ctx, repos, actorID); err != nil {
			return err
		}
		item, err := repos.LineItems.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item.HasActivity() {
			return domain.ErrItemHasActivity
		}
		return repos.LineItems.Delete(ctx, itemID)
	})
}

func (s *lineItemService) Get(ctx context.Context, itemID int32) (*domain.LineItem, error) {
	return s.store.Repos().LineItems.GetByID(ctx, itemID)
}

func (s *lineItemService) ListByLoan(ctx context.Context, loanID int32) ([]domain.LineItem, error) {
	repos := s.store.Repos()
	if _, err := repos.Loans.GetByID(ctx, loanID); err != nil {
		return nil, err
	}
	return repos.LineItems.ListByLoan(ctx, loanID)
}

func (s *lineItemService) ListByClient(ctx context.Context, clientID int32) ([]domain.LineItem, error) {
	repos := s.store.Repos()
	loans, err := repos.Loans.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	var items []domain.LineItem
	for _, loan := range loans {
		loanItems, err := repos.LineItems.ListByLoan(ctx, loan.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, loanItems...)
	}
	return items, nil
}
