package service

import (
	"context"
	"testing"

	"toolrental-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolStateService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	drill := f.addTool(t, "Taladro", 100, 10, 5, 2)
	saw := f.addTool(t, "Sierra", 80, 8, 4, 0)

	state, err := f.states.Create(ctx, f.adminID, "En bodega", "#ccc")
	require.NoError(t, err)
	assert.False(t, state.IsCanonical())

	for _, tool := range []*domain.Tool{drill, saw} {
		records, err := f.inventory.RecordsByTool(ctx, tool.ID)
		require.NoError(t, err)
		assert.Len(t, records, len(domain.CanonicalStates)+1)
	}

	again, err := f.states.Create(ctx, f.adminID, "En bodega", "#000")
	require.NoError(t, err)
	assert.Equal(t, state.ID, again.ID)
	assert.Equal(t, "#ccc", again.Color)

	states, err := f.states.List(ctx)
	require.NoError(t, err)
	assert.Len(t, states, len(domain.CanonicalStates)+1)

	t.Run("Tools created later get the state too", func(t *testing.T) {
		sander := f.addTool(t, "Lijadora", 50, 5, 2, 0)
		records, err := f.inventory.RecordsByTool(ctx, sander.ID)
		require.NoError(t, err)
		assert.Len(t, records, len(domain.CanonicalStates)+1)
	})

	t.Run("Name is required", func(t *testing.T) {
		_, err := f.states.Create(ctx, f.adminID, "  ", "")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Employee is refused", func(t *testing.T) {
		_, err := f.states.Create(ctx, f.employeeID, "Perdida", "")
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})
}

func TestToolStateService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	available, err := f.store.Repos().States.GetByCode(ctx, domain.StateAvailable)
	require.NoError(t, err)

	updated, err := f.states.Update(ctx, f.adminID, available.ID, "Disponible", "green")
	require.NoError(t, err)
	assert.Equal(t, "Disponible", updated.Name)
	assert.Equal(t, "green", updated.Color)
	assert.Equal(t, domain.StateAvailable, updated.Code)

	// The engine still finds the renamed state by code.
	tool := f.addTool(t, "Taladro", 100, 10, 5, 3)
	assert.Equal(t, int32(3), f.stock(t, tool.ID, domain.StateAvailable))
}

func TestToolStateService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tool := f.addTool(t, "Taladro", 100, 10, 5, 2)

	loaned, err := f.store.Repos().States.GetByCode(ctx, domain.StateLoaned)
	require.NoError(t, err)
	assert.ErrorIs(t, f.states.Delete(ctx, f.adminID, loaned.ID), domain.ErrCanonicalState)

	custom, err := f.states.Create(ctx, f.adminID, "Exhibición", "")
	require.NoError(t, err)

	repos := f.store.Repos()
	rec, err := repos.Inventory.Get(ctx, tool.ID, custom.ID)
	require.NoError(t, err)
	require.NoError(t, repos.Inventory.UpdateStock(ctx, rec.ID, 1))
	assert.ErrorIs(t, f.states.Delete(ctx, f.adminID, custom.ID), domain.ErrStateHoldsStock)

	require.NoError(t, repos.Inventory.UpdateStock(ctx, rec.ID, 0))
	assert.ErrorIs(t, f.states.Delete(ctx, f.employeeID, custom.ID), domain.ErrPermissionDenied)
	require.NoError(t, f.states.Delete(ctx, f.adminID, custom.ID))

	records, err := f.inventory.RecordsByTool(ctx, tool.ID)
	require.NoError(t, err)
	assert.Len(t, records, len(domain.CanonicalStates))

	assert.ErrorIs(t, f.states.Delete(ctx, f.adminID, custom.ID), domain.ErrNotFound)
}
