package service

import (
	"context"
	"testing"
	"time"

	"toolrental-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKardexService_RecordValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tool := f.addTool(t, "Taladro", 100, 10, 5, 0)

	tests := []struct {
		name  string
		entry domain.KardexEntry
	}{
		{"Missing tool", domain.KardexEntry{Type: domain.MovementIncome, Date: f.clock.Now(), Quantity: 1, EmployeeID: f.adminID}},
		{"Missing type", domain.KardexEntry{ToolID: tool.ID, Date: f.clock.Now(), Quantity: 1, EmployeeID: f.adminID}},
		{"Missing date", domain.KardexEntry{ToolID: tool.ID, Type: domain.MovementIncome, Quantity: 1, EmployeeID: f.adminID}},
		{"Missing employee", domain.KardexEntry{ToolID: tool.ID, Type: domain.MovementIncome, Date: f.clock.Now(), Quantity: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.kardex.Record(ctx, &tt.entry)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	entry := &domain.KardexEntry{ToolID: tool.ID, Type: domain.MovementIncome, Date: f.clock.Now(), Quantity: 3, EmployeeID: f.adminID}
	require.NoError(t, f.kardex.Record(ctx, entry))

	got, err := f.kardex.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(3), got.Quantity)
	assert.Len(t, f.movements(t, tool.ID), 1)
}

func TestKardexService_Filter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tool := f.addTool(t, "Taladro", 100, 10, 5, 0)
	repo := f.store.Repos().Kardex
	clientID := f.addClient(t, "cliente").ID

	add := func(typ domain.MovementType, at time.Time, client *int32) {
		require.NoError(t, repo.Create(ctx, &domain.KardexEntry{ToolID: tool.ID, Type: typ, Date: at, Quantity: 1, ClientID: client, EmployeeID: f.employeeID}))
	}
	add(domain.MovementIncome, time.Date(2023, 1, 1, 9, 0, 0, 0, time.UTC), nil)
	add(domain.MovementLoan, time.Date(2023, 1, 2, 23, 59, 0, 0, time.UTC), &clientID)
	add(domain.MovementReturn, time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC), &clientID)

	t.Run("Calendar range is inclusive", func(t *testing.T) {
		from, to := date(2023, 1, 2), date(2023, 1, 2)
		entries, err := f.kardex.Filter(ctx, domain.KardexFilter{From: &from, To: &to})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.MovementLoan, entries[0].Type)
	})

	t.Run("Newest first", func(t *testing.T) {
		entries, err := f.kardex.Filter(ctx, domain.KardexFilter{ClientID: &clientID})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, domain.MovementReturn, entries[0].Type)
		assert.Equal(t, domain.MovementLoan, entries[1].Type)
	})

	t.Run("Type is case insensitive", func(t *testing.T) {
		entries, err := f.kardex.Filter(ctx, domain.KardexFilter{Type: "income"})
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("Between requires both dates", func(t *testing.T) {
		_, err := f.kardex.Between(ctx, time.Time{}, date(2023, 1, 3))
		assert.ErrorIs(t, err, domain.ErrValidation)

		entries, err := f.kardex.Between(ctx, date(2023, 1, 1), date(2023, 1, 3))
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})
}

func TestKardexService_Ranking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := f.store.Repos().Kardex

	var tools []*domain.Tool
	for _, name := range []string{"Taladro", "Sierra", "Lijadora"} {
		tools = append(tools, f.addTool(t, name, 100, 10, 5, 0))
	}
	loan := func(toolID, qty int32, at time.Time) {
		require.NoError(t, repo.Create(ctx, &domain.KardexEntry{ToolID: toolID, Type: domain.MovementLoan, Date: at, Quantity: qty, EmployeeID: f.employeeID}))
	}
	loan(tools[1].ID, 3, date(2023, 1, 5))
	loan(tools[0].ID, 1, date(2023, 1, 31))
	loan(tools[0].ID, 9, date(2023, 2, 1))

	t.Run("Defaults to the current month and pads idle tools", func(t *testing.T) {
		ranking, err := f.kardex.Ranking(ctx, nil, nil)
		require.NoError(t, err)
		require.Len(t, ranking, 3)
		assert.Equal(t, tools[1].ID, ranking[0].Tool.ID)
		assert.Equal(t, int32(3), ranking[0].TotalLoaned)
		assert.Equal(t, tools[0].ID, ranking[1].Tool.ID)
		assert.Equal(t, int32(1), ranking[1].TotalLoaned)
		assert.Equal(t, tools[2].ID, ranking[2].Tool.ID)
		assert.Zero(t, ranking[2].TotalLoaned)
	})

	t.Run("Explicit window", func(t *testing.T) {
		from, to := date(2023, 2, 1), date(2023, 2, 1)
		ranking, err := f.kardex.Ranking(ctx, &from, &to)
		require.NoError(t, err)
		require.Len(t, ranking, 3)
		assert.Equal(t, tools[0].ID, ranking[0].Tool.ID)
		assert.Equal(t, int32(9), ranking[0].TotalLoaned)
	})

	t.Run("Capped at ranking size", func(t *testing.T) {
		for i := 0; i < domain.RankingSize; i++ {
			f.addTool(t, "Extra", 10, 1, 1, 0)
		}
		ranking, err := f.kardex.Ranking(ctx, nil, nil)
		require.NoError(t, err)
		assert.Len(t, ranking, domain.RankingSize)
	})
}
