package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/repository"
	"toolrental-backend/internal/utils"
)

// The helpers below run against repositories bound to the caller's transaction.

func requireRole(ctx context.Context, repos repository.Repositories, actorID int32, allowed func(domain.UserRole) bool) (*domain.User, error) {
	actor, err := repos.Users.GetByID(ctx, actorID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.PermissionDeniedf("unknown actor %d", actorID)
	}
	if err != nil {
		return nil, err
	}
	if !allowed(actor.Role) {
		logger.Warn("Actor lacks capability", "actorID", actorID, "role", actor.Role)
		return nil, domain.PermissionDeniedf("user %d with role %s cannot perform this operation", actorID, actor.Role)
	}
	return actor, nil
}

// requireStaff admits employees, admins and superadmins.
func requireStaff(ctx context.Context, repos repository.Repositories, actorID int32) (*domain.User, error) {
	return requireRole(ctx, repos, actorID, domain.UserRole.IsStaff)
}

func requireAdmin(ctx context.Context, repos repository.Repositories, actorID int32) (*domain.User, error) {
	return requireRole(ctx, repos, actorID, domain.UserRole.IsAdmin)
}

// loadClient locks the client row since open, delete and receive all rewrite its counter.
func loadClient(ctx context.Context, repos repository.Repositories, clientID int32) (*domain.User, error) {
	client, err := repos.Users.GetForUpdate(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.Role != domain.UserRoleClient {
		return nil, domain.Validationf("user %d is not a client", clientID)
	}
	return client, nil
}

func stateByCode(ctx context.Context, repos repository.Repositories, code domain.StateCode) (*domain.ToolState, error) {
	state, err := repos.States.GetByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: state %s is not registered", domain.ErrMissingRecord, code)
	}
	return state, err
}

func lockRecord(ctx context.Context, repos repository.Repositories, toolID int32, state *domain.ToolState) (*domain.InventoryRecord, error) {
	rec, err := repos.Inventory.GetForUpdate(ctx, toolID, state.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: tool %d, state %s", domain.ErrMissingRecord, toolID, state.Name)
	}
	return rec, err
}

// transition moves quantity units from one state record of a tool to another.
// Records are locked lower state id first so concurrent transitions cannot deadlock.
func transition(ctx context.Context, repos repository.Repositories, toolID int32, from, to domain.StateCode, quantity int32) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	if from == to {
		return domain.Validationf("cannot move stock from %s to itself", from)
	}

	src, err := stateByCode(ctx, repos, from)
	if err != nil {
		return err
	}
	dst, err := stateByCode(ctx, repos, to)
	if err != nil {
		return err
	}

	first, second := src, dst
	if second.ID < first.ID {
		first, second = second, first
	}
	locked := make(map[int32]*domain.InventoryRecord, 2)
	for _, st := range []*domain.ToolState{first, second} {
		rec, err := lockRecord(ctx, repos, toolID, st)
		if err != nil {
			return err
		}
		locked[st.ID] = rec
	}
	srcRec, dstRec := locked[src.ID], locked[dst.ID]

	if srcRec.Stock < quantity {
		return fmt.Errorf("%w: tool %d has %d in %s", domain.ErrInsufficientStock, toolID, srcRec.Stock, from)
	}
	if dstRec.Stock > math.MaxInt32-quantity {
		return fmt.Errorf("%w: stock overflow for tool %d in %s", domain.ErrConsistency, toolID, to)
	}

	if err := repos.Inventory.UpdateStock(ctx, srcRec.ID, srcRec.Stock-quantity); err != nil {
		return fmt.Errorf("failed to update %s stock: %w", from, err)
	}
	if err := repos.Inventory.UpdateStock(ctx, dstRec.ID, dstRec.Stock+quantity); err != nil {
		return fmt.Errorf("failed to update %s stock: %w", to, err)
	}
	logger.Movement("transition", toolID, quantity, "from", from, "to", to)
	return nil
}

// availableStock reads the AVAILABLE record, locking it when lock is set.
func availableStock(ctx context.Context, repos repository.Repositories, toolID int32, lock bool) (int32, error) {
	state, err := stateByCode(ctx, repos, domain.StateAvailable)
	if err != nil {
		return 0, err
	}
	var rec *domain.InventoryRecord
	if lock {
		rec, err = lockRecord(ctx, repos, toolID, state)
	} else {
		rec, err = repos.Inventory.Get(ctx, toolID, state.ID)
		if errors.Is(err, domain.ErrNotFound) {
			err = fmt.Errorf("%w: tool %d, state %s", domain.ErrMissingRecord, toolID, state.Name)
		}
	}
	if err != nil {
		return 0, err
	}
	return rec.Stock, nil
}

func recordKardex(ctx context.Context, repos repository.Repositories, entry *domain.KardexEntry) error {
	switch {
	case entry.ToolID == 0:
		return domain.Validationf("kardex entry requires a tool")
	case strings.TrimSpace(string(entry.Type)) == "":
		return domain.Validationf("kardex entry requires a movement type")
	case entry.Date.IsZero():
		return domain.Validationf("kardex entry requires a date")
	case entry.EmployeeID == 0:
		return domain.Validationf("kardex entry requires the employee responsible")
	case entry.Quantity < 0:
		return domain.ErrInvalidQuantity
	}
	if err := repos.Kardex.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to append kardex entry: %w", err)
	}
	logger.Movement(string(entry.Type), entry.ToolID, entry.Quantity, "kardexID", entry.ID)
	return nil
}

func clientHasDebt(ctx context.Context, repos repository.Repositories, clientID int32) (bool, error) {
	total, err := repos.LineItems.SumFineByClient(ctx, clientID)
	if err != nil {
		return false, err
	}
	return total != 0, nil
}

func loanNeedsRepair(items []domain.LineItem) bool {
	for _, item := range items {
		if item.NeedsRepair {
			return true
		}
	}
	return false
}

func sumFines(items []domain.LineItem) int64 {
	var total int64
	for _, item := range items {
		total += int64(item.Fine)
	}
	return total
}

func validLoanDates(initDate, returnDate time.Time) bool {
	if initDate.IsZero() || returnDate.IsZero() {
		return false
	}
	return utils.DaysBetween(initDate, returnDate) > 0
}

func ptr[T any](v T) *T {
	return &v
}
