package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/repository"
)

type toolStateService struct {
	store repository.Store
}

func NewToolStateService(store repository.Store) ToolStateService {
	return &toolStateService{store: store}
}

func (s *toolStateService) List(ctx context.Context) ([]domain.ToolState, error) {
	return s.store.Repos().States.List(ctx)
}

// Create registers an operator-defined state, or returns the state already
// holding that name. New states get an empty record for every tool.
func (s *toolStateService) Create(ctx context.Context, actorID int32, name, color string) (*domain.ToolState, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validationf("state name is required")
	}

	var state *domain.ToolState
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := requireAdmin(ctx, repos, actorID); err != nil {
			return err
		}
		existing, err := repos.States.GetByName(ctx, name)
		if err == nil {
			state = existing
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		state = &domain.ToolState{Name: name, Color: color}
		if err := repos.States.Create(ctx, state); err != nil {
			return fmt.Errorf("failed to create state: %w", err)
		}
		tools, err := repos.Tools.List(ctx)
		if err != nil {
			return err
		}
		for _, t := range tools {
			if err := repos.Inventory.Create(ctx, &domain.InventoryRecord{ToolID: t.ID, StateID: state.ID}); err != nil {
				return fmt.Errorf("failed to backfill inventory for tool %d: %w", t.ID, err)
			}
		}
		logger.Info("Tool state registered", "stateID", state.ID, "name", name, "tools", len(tools))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Update renames or recolors a state. Canonical codes never change.
func (s *toolStateService) Update(ctx context.Context, actorID, stateID int32, name, color string) (*domain.ToolState, error) {
	var state *domain.ToolState
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := requireAdmin(ctx, repos, actorID); err != nil {
			return err
		}
		var err error
		state, err = repos.States.GetByID(ctx, stateID)
		if err != nil {
			return err
		}
		if name = strings.TrimSpace(name); name != "" {
			state.Name = name
		}
		if color != "" {
			state.Color = color
		}
		return repos.States.Update(ctx, state)
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *toolStateService) Delete(ctx context.Context, actorID, stateID int32) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := requireAdmin(ctx, repos, actorID); err != nil {
			return err
		}
		state, err := repos.States.GetByID(ctx, stateID)
		if err != nil {
			return err
		}
		if state.IsCanonical() {
			return domain.ErrCanonicalState
		}
		stock, err := repos.Inventory.SumStockByState(ctx, stateID)
		if err != nil {
			return err
		}
		if stock > 0 {
			return fmt.Errorf("%w: %d units in %s", domain.ErrStateHoldsStock, stock, state.Name)
		}
		if err := repos.Inventory.DeleteByState(ctx, stateID); err != nil {
			return err
		}
		return repos.States.Delete(ctx, stateID)
	})
}
