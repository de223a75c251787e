package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_SeedsCanonicalStates(t *testing.T) {
	store := NewStore()
	states, err := store.Repos().States.List(context.Background())
	require.NoError(t, err)
	require.Len(t, states, len(domain.CanonicalStates))
	for i, code := range domain.CanonicalStates {
		assert.Equal(t, code, states[i].Code)
	}
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repos := store.Repos()

	tool := &domain.Tool{Name: "Martillo", RepoCost: 10, RentPrice: 2, LateFineDaily: 1}
	require.NoError(t, repos.Tools.Create(ctx, tool))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		if err := tx.Tools.Create(ctx, &domain.Tool{Name: "Sierra", RepoCost: 1, RentPrice: 1, LateFineDaily: 1}); err != nil {
			return err
		}
		renamed := *tool
		renamed.Name = "Renamed"
		if err := tx.Tools.Update(ctx, &renamed); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	tools, err := repos.Tools.List(ctx)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "Martillo", tools[0].Name)
}

func TestWithinTx_Commits(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		return tx.Categories.Create(ctx, &domain.Category{Name: "Jardín"})
	})
	require.NoError(t, err)

	c, err := store.Repos().Categories.GetByName(ctx, "jardín")
	require.NoError(t, err)
	assert.Equal(t, "Jardín", c.Name)
}

func TestInventory_UniqueAndNonNegative(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repos := store.Repos()

	rec := &domain.InventoryRecord{ToolID: 1, StateID: 1}
	require.NoError(t, repos.Inventory.Create(ctx, rec))
	err := repos.Inventory.Create(ctx, &domain.InventoryRecord{ToolID: 1, StateID: 1})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	assert.Error(t, repos.Inventory.UpdateStock(ctx, rec.ID, -1))

	_, err = repos.Inventory.Get(ctx, 1, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInventory_FilterSortPrecedence(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repos := store.Repos()

	cheap := &domain.Tool{Name: "Alicate", RepoCost: 5, RentPrice: 1, LateFineDaily: 1}
	pricey := &domain.Tool{Name: "Taladro", RepoCost: 50, RentPrice: 9, LateFineDaily: 1}
	require.NoError(t, repos.Tools.Create(ctx, cheap))
	require.NoError(t, repos.Tools.Create(ctx, pricey))
	require.NoError(t, repos.Inventory.Create(ctx, &domain.InventoryRecord{ToolID: cheap.ID, StateID: 1}))
	require.NoError(t, repos.Inventory.Create(ctx, &domain.InventoryRecord{ToolID: pricey.ID, StateID: 1}))

	asc, err := repos.Inventory.Filter(ctx, domain.InventoryFilter{Asc: true})
	require.NoError(t, err)
	assert.Equal(t, cheap.ID, asc[0].ToolID)

	desc, err := repos.Inventory.Filter(ctx, domain.InventoryFilter{Asc: true, Desc: true})
	require.NoError(t, err)
	assert.Equal(t, pricey.ID, desc[0].ToolID)

	recent, err := repos.Inventory.Filter(ctx, domain.InventoryFilter{Asc: true, Recent: true})
	require.NoError(t, err)
	assert.Greater(t, recent[0].ID, recent[1].ID)

	byState, err := repos.Inventory.Filter(ctx, domain.InventoryFilter{State: "available", Search: "tala"})
	require.NoError(t, err)
	require.Len(t, byState, 1)
	assert.Equal(t, "Taladro", byState[0].Tool.Name)
}

func TestKardex_FindNewestFirstAndHalfOpenRange(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repos := store.Repos()

	day := func(d int) time.Time { return time.Date(2023, 1, d, 12, 0, 0, 0, time.UTC) }
	for _, d := range []int{1, 2, 3} {
		require.NoError(t, repos.Kardex.Create(ctx, &domain.KardexEntry{ToolID: 1, Type: domain.MovementLoan, Date: day(d), Quantity: 1, EmployeeID: 1}))
	}

	from := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	until := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	entries, err := repos.Kardex.Find(ctx, repository.KardexQuery{From: &from, Until: &until})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, day(2), entries[0].Date)

	all, err := repos.Kardex.Find(ctx, repository.KardexQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Greater(t, all[0].ID, all[2].ID)
}
