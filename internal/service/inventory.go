package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"toolrental-backend/internal/clock"
	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/repository"
)

type inventoryService struct {
	store repository.Store
	clock clock.Clock
}

func NewInventoryService(store repository.Store, clk clock.Clock) InventoryService {
	return &inventoryService{store: store, clock: clk}
}

func (s *inventoryService) GetRecord(ctx context.Context, toolID int32, code domain.StateCode) (*domain.InventoryRecord, error) {
	repos := s.store.Repos()
	if _, err := repos.Tools.GetByID(ctx, toolID); err != nil {
		return nil, err
	}
	state, err := stateByCode(ctx, repos, code)
	if err != nil {
		return nil, err
	}
	rec, err := repos.Inventory.Get(ctx, toolID, state.ID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Error("Inventory record missing", "toolID", toolID, "state", code)
		return nil, fmt.Errorf("%w: tool %d, state %s", domain.ErrMissingRecord, toolID, state.Name)
	}
	return rec, err
}

func (s *inventoryService) Transition(ctx context.Context, toolID int32, from, to domain.StateCode, quantity int32) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return transition(ctx, repos, toolID, from, to, quantity)
	})
}

func (s *inventoryService) IsAvailable(ctx context.Context, toolID int32) (bool, error) {
	stock, err := availableStock(ctx, s.store.Repos(), toolID, false)
	if err != nil {
		return false, err
	}
	return stock >= 1, nil
}

func (s *inventoryService) AddStock(ctx context.Context, actorID, toolID, quantity int32) (*domain.InventoryRecord, error) {
	logger.EnterMethod("inventoryService.AddStock", "actorID", actorID, "toolID", toolID, "quantity", quantity)

	var result *domain.InventoryRecord
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := requireAdmin(ctx, repos, actorID); err != nil {
			return err
		}
		if quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
		if _, err := repos.Tools.GetByID(ctx, toolID); err != nil {
			return err
		}

		state, err := stateByCode(ctx, repos, domain.StateAvailable)
		if err != nil {
			return err
		}
		rec, err := lockRecord(ctx, repos, toolID, state)
		if err != nil {
			return err
		}
		if rec.Stock > math.MaxInt32-quantity {
			return domain.Validationf("stock for tool %d would overflow", toolID)
		}
		rec.Stock += quantity
		if err := repos.Inventory.UpdateStock(ctx, rec.ID, rec.Stock); err != nil {
			return err
		}

		// Replenishment carries neither a cost nor a client.
		if err := recordKardex(ctx, repos, &domain.KardexEntry{
			ToolID:     toolID,
			Type:       domain.MovementIncome,
			Date:       s.clock.Now(),
			Quantity:   quantity,
			EmployeeID: actorID,
		}); err != nil {
			return err
		}
		result = rec
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("inventoryService.AddStock", err, "toolID", toolID)
		return nil, err
	}

	logger.ExitMethod("inventoryService.AddStock", "toolID", toolID, "stock", result.Stock)
	return result, nil
}

func (s *inventoryService) Filter(ctx context.Context, f domain.InventoryFilter) ([]domain.InventoryRecord, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, domain.ErrInvalidPriceRange
	}
	return s.store.Repos().Inventory.Filter(ctx, f)
}

func (s *inventoryService) RecordsByTool(ctx context.Context, toolID int32) ([]domain.InventoryRecord, error) {
	repos := s.store.Repos()
	if _, err := repos.Tools.GetByID(ctx, toolID); err != nil {
		return nil, err
	}
	return repos.Inventory.ListByTool(ctx, toolID)
}

func (s *inventoryService) TotalStock(ctx context.Context, toolID int32) (int64, error) {
	records, err := s.RecordsByTool(ctx, toolID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, rec := range records {
		total += int64(rec.Stock)
	}
	return total, nil
}
