package service

import (
	"context"
	"testing"

	"toolrental-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryService_AddStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tool := f.addTool(t, "Taladro", 100, 10, 5, 0)

	t.Run("Admin adds stock", func(t *testing.T) {
		rec, err := f.inventory.AddStock(ctx, f.adminID, tool.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, int32(5), rec.Stock)
		assert.Equal(t, int32(5), f.stock(t, tool.ID, domain.StateAvailable))

		entries := f.movements(t, tool.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.MovementIncome, entries[0].Type)
		assert.Equal(t, int32(5), entries[0].Quantity)
		assert.Equal(t, f.adminID, entries[0].EmployeeID)
		assert.Nil(t, entries[0].ClientID)
		assert.Nil(t, entries[0].Cost)
	})

	t.Run("Employee is refused", func(t *testing.T) {
		_, err := f.inventory.AddStock(ctx, f.employeeID, tool.ID, 5)
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
		assert.Equal(t, int32(5), f.stock(t, tool.ID, domain.StateAvailable))
		assert.Len(t, f.movements(t, tool.ID), 1)
	})

	t.Run("Quantity must be positive", func(t *testing.T) {
		_, err := f.inventory.AddStock(ctx, f.adminID, tool.ID, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Unknown tool", func(t *testing.T) {
		_, err := f.inventory.AddStock(ctx, f.adminID, 999, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestInventoryService_Transition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tool := f.addTool(t, "Sierra", 80, 8, 4, 2)

	require.NoError(t, f.inventory.Transition(ctx, tool.ID, domain.StateAvailable, domain.StateInRepair, 2))
	assert.Equal(t, int32(0), f.stock(t, tool.ID, domain.StateAvailable))
	assert.Equal(t, int32(2), f.stock(t, tool.ID, domain.StateInRepair))

	err := f.inventory.Transition(ctx, tool.ID, domain.StateAvailable, domain.StateLoaned, 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int32(0), f.stock(t, tool.ID, domain.StateLoaned))

	err = f.inventory.Transition(ctx, tool.ID, domain.StateInRepair, domain.StateAvailable, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	total, err := f.inventory.TotalStock(ctx, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestInventoryService_MissingRecordIsConsistencyFault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A tool inserted behind the service's back has no inventory records.
	tool := &domain.Tool{Name: "Huérfana", RepoCost: 1, RentPrice: 1, LateFineDaily: 1}
	require.NoError(t, f.store.Repos().Tools.Create(ctx, tool))

	_, err := f.inventory.GetRecord(ctx, tool.ID, domain.StateAvailable)
	assert.ErrorIs(t, err, domain.ErrMissingRecord)
	assert.ErrorIs(t, err, domain.ErrConsistency)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	_, err = f.inventory.IsAvailable(ctx, tool.ID)
	assert.ErrorIs(t, err, domain.ErrConsistency)
}

func TestInventoryService_IsAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	empty := f.addTool(t, "Lijadora", 50, 5, 2, 0)
	stocked := f.addTool(t, "Martillo", 20, 2, 1, 1)

	ok, err := f.inventory.IsAvailable(ctx, empty.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.inventory.IsAvailable(ctx, stocked.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInventoryService_Filter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cheap := f.addTool(t, "Martillo", 20, 2, 1, 3)
	pricey := f.addTool(t, "Taladro percutor", 300, 30, 10, 1)

	t.Run("State and price", func(t *testing.T) {
		minPrice := int32(10)
		records, err := f.inventory.Filter(ctx, domain.InventoryFilter{State: "AVAILABLE", MinPrice: &minPrice})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, pricey.ID, records[0].ToolID)
	})

	t.Run("Descending wins over ascending", func(t *testing.T) {
		records, err := f.inventory.Filter(ctx, domain.InventoryFilter{State: "AVAILABLE", Asc: true, Desc: true})
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, pricey.ID, records[0].ToolID)
		assert.Equal(t, cheap.ID, records[1].ToolID)
	})

	t.Run("Search", func(t *testing.T) {
		records, err := f.inventory.Filter(ctx, domain.InventoryFilter{Search: "taladro"})
		require.NoError(t, err)
		assert.Len(t, records, len(domain.CanonicalStates))
	})

	t.Run("Inverted price range", func(t *testing.T) {
		lo, hi := int32(50), int32(10)
		_, err := f.inventory.Filter(ctx, domain.InventoryFilter{MinPrice: &lo, MaxPrice: &hi})
		assert.ErrorIs(t, err, domain.ErrInvalidPriceRange)
	})
}
