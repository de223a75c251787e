package jobs

import (
	"context"
	"testing"
	"time"

	"toolrental-backend/internal/clock"
	"toolrental-backend/internal/config"
	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/repository/memory"
	"toolrental-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jobFixture struct {
	runner     *JobRunner
	store      *memory.Store
	loans      service.LoanService
	employeeID int32
	clientID   int32
}

func newJobFixture(t *testing.T) *jobFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	clk := clock.NewFixed(time.Date(2023, 1, 15, 7, 0, 0, 0, time.UTC))

	employee := &domain.User{Username: "employee", Name: "E", LastName: "Test", Role: domain.UserRoleEmployee}
	client := &domain.User{Username: "cliente", Name: "C", LastName: "Test", Role: domain.UserRoleClient}
	require.NoError(t, store.Repos().Users.Create(ctx, employee))
	require.NoError(t, store.Repos().Users.Create(ctx, client))

	loans := service.NewLoanService(store, clk)
	runner := NewJobRunner(&Services{
		Loan:     loans,
		LineItem: service.NewLineItemService(store, clk),
	}, &config.Config{})

	return &jobFixture{runner: runner, store: store, loans: loans, employeeID: employee.ID, clientID: client.ID}
}

func (f *jobFixture) open(t *testing.T, from, to time.Time) *domain.Loan {
	t.Helper()
	loan, err := f.loans.Open(context.Background(), f.employeeID, f.clientID, from, to)
	require.NoError(t, err)
	return loan
}

func day(d int) time.Time {
	return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestReportOverdueLoans(t *testing.T) {
	f := newJobFixture(t)
	late := f.open(t, day(1), day(10))
	f.open(t, day(10), day(20))

	overdue, err := f.runner.reportOverdueLoans(context.Background())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)

	assert.NotPanics(t, f.runner.ReportOverdueLoans)
}

func TestCloseEmptyLoans(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	empty := f.open(t, day(1), day(10))
	busy := f.open(t, day(1), day(10))

	require.NoError(t, f.store.Repos().LineItems.Create(ctx, &domain.LineItem{LoanID: busy.ID, ToolID: 1, Debt: 10}))

	closed, err := f.runner.closeEmptyLoans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	got, err := f.loans.Get(ctx, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusFinished, got.Status)
	got, err = f.loans.Get(ctx, busy.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusActive, got.Status)

	closed, err = f.runner.closeEmptyLoans(ctx)
	require.NoError(t, err)
	assert.Zero(t, closed)
}
