package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"toolrental-backend/internal/clock"
	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/identity"
	"toolrental-backend/internal/repository/memory"
	"toolrental-backend/internal/security"
	"toolrental-backend/internal/service"
	"toolrental-backend/internal/storage"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	router   *mux.Router
	store    *memory.Store
	clock    *clock.Fixed
	provider identity.Provider
	users    service.UserService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewFixed(time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC))
	tokens := security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	provider := identity.NewLocalProvider(store.Repos().Accounts, tokens)

	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	uploads := storage.Config{BaseURL: "http://localhost:8080", MaxFileSizeMB: 1, AllowedTypes: []string{"image/png"}}

	users := service.NewUserService(store, provider)
	svc := &Services{
		Inventory:  service.NewInventoryService(store, clk),
		Kardex:     service.NewKardexService(store, clk),
		Loans:      service.NewLoanService(store, clk),
		Items:      service.NewLineItemService(store, clk),
		Settlement: service.NewSettlementService(store, clk),
		Tools:      service.NewToolService(store, blobs, uploads),
		States:     service.NewToolStateService(store),
		Users:      users,
	}
	return &apiFixture{
		router:   NewRouter(NewHandler(svc, tokens, uploads, time.UTC)),
		store:    store,
		clock:    clk,
		provider: provider,
		users:    users,
	}
}

// seed creates an account and local user directly, bypassing registration rules,
// and returns the user with a fresh access token.
func (f *apiFixture) seed(t *testing.T, username string, role domain.UserRole) (*domain.User, string) {
	t.Helper()
	ctx := context.Background()
	externalID, err := f.provider.CreateAccount(ctx, identity.Profile{Username: username, Password: "secreto123"}, role)
	require.NoError(t, err)
	u := &domain.User{ExternalID: externalID, Username: username, Name: username, LastName: "Test", Role: role}
	require.NoError(t, f.store.Repos().Users.Create(ctx, u))
	token, err := f.users.Login(ctx, username, "secreto123")
	require.NoError(t, err)
	return u, token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	decodeBody(t, rec, &body)
	return body.Code
}

// createTool posts a multipart tool form with a small PNG.
func (f *apiFixture) createTool(t *testing.T, token, name string) toolView {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{"name": name, "category": "Eléctricas", "repo_cost": "100", "rent_price": "10", "late_fine_daily": "5"} {
		require.NoError(t, mw.WriteField(k, v))
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="tool.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tools", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var tool toolView
	decodeBody(t, rec, &tool)
	return tool
}

func TestAuth(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "jperez", "name": "Juan", "last_name": "Pérez", "password": "secreto123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", "", loginRequest{Username: "jperez", Password: "secreto123"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login loginResponse
	decodeBody(t, rec, &login)
	require.NotEmpty(t, login.AccessToken)

	rec = f.do(t, http.MethodGet, "/api/v1/users/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me domain.User
	decodeBody(t, rec, &me)
	assert.Equal(t, "jperez", me.Username)
	assert.Equal(t, domain.UserRoleClient, me.Role)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	t.Run("Wrong password", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", loginRequest{Username: "jperez", Password: "incorrecta"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))
	})

	t.Run("Missing token", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/tools", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Forged token", func(t *testing.T) {
		forged := security.NewTokenManager("ffffffffffffffffffffffffffffffff", time.Hour)
		token, err := forged.GenerateAccessToken("x", "jperez", domain.UserRoleAdmin)
		require.NoError(t, err)
		rec := f.do(t, http.MethodGet, "/api/v1/tools", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Clients cannot reach staff routes", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/loans", login.AccessToken, openLoanRequest{ClientID: me.ID})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Public sign-up cannot create staff", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"username": "colado", "name": "X", "last_name": "Y", "password": "secreto123", "role": "ADMIN",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestLoanLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	_, adminToken := f.seed(t, "admin", domain.UserRoleAdmin)
	_, employeeToken := f.seed(t, "employee", domain.UserRoleEmployee)
	client, clientToken := f.seed(t, "cliente", domain.UserRoleClient)
	other, otherToken := f.seed(t, "otro", domain.UserRoleClient)

	tool := f.createTool(t, adminToken, "Taladro")
	assert.Equal(t, "http://localhost:8080/api/v1/images/"+tool.ImageRef, tool.ImageURL)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/tools/%d/stock", tool.ID), employeeToken, addStockRequest{Quantity: 2})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/tools/%d/stock", tool.ID), adminToken, addStockRequest{Quantity: 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v1/loans", employeeToken, map[string]interface{}{
		"client_id": client.ID, "init_date": "2023-01-01", "return_date": "2023-01-10", "tool_ids": []int32{tool.ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var opened loanResponse
	decodeBody(t, rec, &opened)
	require.Len(t, opened.Items, 1)
	loanID, itemID := opened.Loan.ID, opened.Items[0].ID

	rec = f.do(t, http.MethodPost, "/api/v1/items/deliver", employeeToken, deliverBatchRequest{ItemIDs: []int32{itemID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	t.Run("Clients only see their own loans", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/loans/%d", loanID), otherToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/clients/%d/loans", client.ID), otherToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/clients/%d/loans", other.ID), otherToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	f.clock.Set(time.Date(2023, 1, 12, 9, 0, 0, 0, time.UTC))
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/loans/%d/receive", loanID), employeeToken, receiveAllRequest{
		Damages: map[string]string{fmt.Sprint(itemID): "NO_DAMAGE"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var received batchResponse
	decodeBody(t, rec, &received)
	assert.Equal(t, domain.LoanStatusPending, received.Loan.Status)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/loans/%d", loanID), clientToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Status    domain.LoanStatus `json:"status"`
		TotalDebt int64             `json:"total_debt"`
		TotalFine int64             `json:"total_fine"`
	}
	decodeBody(t, rec, &detail)
	assert.Equal(t, int64(10), detail.TotalDebt)
	assert.Equal(t, int64(10), detail.TotalFine)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/clients/%d/debt", client.ID), employeeToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var debt debtResponse
	decodeBody(t, rec, &debt)
	assert.True(t, debt.HasDebt)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/loans/%d/pay-debt", loanID), employeeToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var paid paidResponse
	decodeBody(t, rec, &paid)
	assert.True(t, paid.Paid)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/kardex?tool_id=%d", tool.ID), employeeToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []domain.KardexEntry
	decodeBody(t, rec, &entries)
	require.Len(t, entries, 4)
	assert.Equal(t, domain.MovementDebtPayment, entries[0].Type)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/tools/%d/inventory", tool.ID), clientToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var inv toolInventory
	decodeBody(t, rec, &inv)
	assert.Equal(t, int64(2), inv.Total)
}

func TestErrorMapping(t *testing.T) {
	f := newAPIFixture(t)
	_, employeeToken := f.seed(t, "employee", domain.UserRoleEmployee)
	client, _ := f.seed(t, "cliente", domain.UserRoleClient)

	rec := f.do(t, http.MethodPost, "/api/v1/loans", employeeToken, map[string]interface{}{
		"client_id": client.ID, "init_date": "2023-01-01", "return_date": "2023-01-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_DATE_RANGE", errorCode(t, rec))

	rec = f.do(t, http.MethodGet, "/api/v1/loans/999", employeeToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/items/5/receive", employeeToken, receiveItemRequest{Damage: "ROTA"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_DAMAGE", errorCode(t, rec))

	for i := 0; i < domain.MaxOpenLoans; i++ {
		rec = f.do(t, http.MethodPost, "/api/v1/loans", employeeToken, map[string]interface{}{
			"client_id": client.ID, "init_date": "2023-01-01", "return_date": "2023-01-10",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec = f.do(t, http.MethodPost, "/api/v1/loans", employeeToken, map[string]interface{}{
		"client_id": client.ID, "init_date": "2023-01-01", "return_date": "2023-01-10",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "QUOTA_EXCEEDED", errorCode(t, rec))

	rec = f.do(t, http.MethodGet, "/api/v1/kardex?from=01-01-2023", employeeToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind domain.ErrorKind
		want int
	}{
		{domain.KindValidation, http.StatusBadRequest},
		{domain.KindNotFound, http.StatusNotFound},
		{domain.KindPermissionDenied, http.StatusForbidden},
		{domain.KindBusinessRule, http.StatusConflict},
		{domain.KindConsistency, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.kind))
		})
	}
}

func TestGetImage(t *testing.T) {
	f := newAPIFixture(t)
	_, adminToken := f.seed(t, "admin", domain.UserRoleAdmin)
	tool := f.createTool(t, adminToken, "Sierra")

	rec := f.do(t, http.MethodGet, "/api/v1/images/"+tool.ImageRef, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/v1/images/missing.png", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
