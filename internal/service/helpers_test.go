package service

import (
	"context"
	"io"
	"testing"
	"time"

	"toolrental-backend/internal/clock"
	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/identity"
	"toolrental-backend/internal/repository/memory"
	"toolrental-backend/internal/storage"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	store      *memory.Store
	clock      *clock.Fixed
	inventory  InventoryService
	kardex     KardexService
	loans      LoanService
	items      LineItemService
	settlement SettlementService
	tools      ToolService
	states     ToolStateService

	adminID    int32
	employeeID int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	store := memory.NewStore()
	clk := clock.NewFixed(time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC))
	f := &fixture{
		store:      store,
		clock:      clk,
		inventory:  NewInventoryService(store, clk),
		kardex:     NewKardexService(store, clk),
		loans:      NewLoanService(store, clk),
		items:      NewLineItemService(store, clk),
		settlement: NewSettlementService(store, clk),
		tools:      NewToolService(store, blobs, storage.Config{MaxFileSizeMB: 1, AllowedTypes: []string{"image/png"}}),
		states:     NewToolStateService(store),
	}
	f.adminID = f.addUser(t, "admin", domain.UserRoleAdmin).ID
	f.employeeID = f.addUser(t, "employee", domain.UserRoleEmployee).ID
	return f
}

func (f *fixture) addUser(t *testing.T, username string, role domain.UserRole) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, Name: username, LastName: "Test", Role: role, State: domain.ClientStateActive}
	require.NoError(t, f.store.Repos().Users.Create(context.Background(), u))
	return u
}

func (f *fixture) addClient(t *testing.T, username string) *domain.User {
	return f.addUser(t, username, domain.UserRoleClient)
}

// addTool registers a tool with the given prices and AVAILABLE stock.
func (f *fixture) addTool(t *testing.T, name string, repoCost, rentPrice, fineDaily, stock int32) *domain.Tool {
	t.Helper()
	ctx := context.Background()
	tool, err := f.tools.Create(ctx, f.adminID, &domain.Tool{
		Name:          name,
		RepoCost:      repoCost,
		RentPrice:     rentPrice,
		LateFineDaily: fineDaily,
	}, "Herramientas", nil)
	require.NoError(t, err)
	if stock > 0 {
		_, err = f.inventory.AddStock(ctx, f.adminID, tool.ID, stock)
		require.NoError(t, err)
	}
	return tool
}

func (f *fixture) stock(t *testing.T, toolID int32, code domain.StateCode) int32 {
	t.Helper()
	rec, err := f.inventory.GetRecord(context.Background(), toolID, code)
	require.NoError(t, err)
	return rec.Stock
}

func (f *fixture) user(t *testing.T, id int32) *domain.User {
	t.Helper()
	u, err := f.store.Repos().Users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (f *fixture) item(t *testing.T, id int32) *domain.LineItem {
	t.Helper()
	li, err := f.items.Get(context.Background(), id)
	require.NoError(t, err)
	return li
}

func (f *fixture) loan(t *testing.T, id int32) *domain.Loan {
	t.Helper()
	l, err := f.loans.Get(context.Background(), id)
	require.NoError(t, err)
	return l
}

// openDelivered opens a loan for the tools and delivers every line item.
func (f *fixture) openDelivered(t *testing.T, clientID int32, from, to time.Time, toolIDs ...int32) (*domain.Loan, []domain.LineItem) {
	t.Helper()
	ctx := context.Background()
	loan, items, err := f.loans.OpenWithLineItems(ctx, f.employeeID, clientID, from, to, toolIDs)
	require.NoError(t, err)
	for i := range items {
		delivered, err := f.items.Deliver(ctx, f.employeeID, items[i].ID)
		require.NoError(t, err)
		items[i] = *delivered
	}
	return loan, items
}

func (f *fixture) movements(t *testing.T, toolID int32) []domain.KardexEntry {
	t.Helper()
	entries, err := f.kardex.Filter(context.Background(), domain.KardexFilter{ToolID: &toolID})
	require.NoError(t, err)
	return entries
}

type mockBlobStore struct {
	mock.Mock
}

func (m *mockBlobStore) Store(ctx context.Context, data io.Reader, name string) (string, error) {
	args := m.Called(ctx, data, name)
	return args.String(0), args.Error(1)
}

func (m *mockBlobStore) Delete(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *mockBlobStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	args := m.Called(ctx, ref)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

type mockIdentity struct {
	mock.Mock
}

func (m *mockIdentity) CreateAccount(ctx context.Context, profile identity.Profile, role domain.UserRole) (string, error) {
	args := m.Called(ctx, profile, role)
	return args.String(0), args.Error(1)
}

func (m *mockIdentity) VerifyCredentials(ctx context.Context, identifier, password string) (string, error) {
	args := m.Called(ctx, identifier, password)
	return args.String(0), args.Error(1)
}

func (m *mockIdentity) DeleteAccount(ctx context.Context, externalID string) error {
	args := m.Called(ctx, externalID)
	return args.Error(0)
}
