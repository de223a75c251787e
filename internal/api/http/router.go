package http

import (
	"net/http"
	"time"

	"toolrental-backend/internal/security"
	"toolrental-backend/internal/service"
	"toolrental-backend/internal/storage"

	"github.com/gorilla/mux"
)

// Services are the application services exposed over HTTP.
type Services struct {
	Inventory  service.InventoryService
	Kardex     service.KardexService
	Loans      service.LoanService
	Items      service.LineItemService
	Settlement service.SettlementService
	Tools      service.ToolService
	States     service.ToolStateService
	Users      service.UserService
}

// Handler serves the REST API. Handlers only decode input, call one service
// operation and encode the result.
type Handler struct {
	svc     *Services
	tokens  security.TokenManager
	uploads storage.Config
	loc     *time.Location
}

// NewHandler creates the API handler. Dates in requests are read in loc.
func NewHandler(svc *Services, tokens security.TokenManager, uploads storage.Config, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{svc: svc, tokens: tokens, uploads: uploads, loc: loc}
}

// NewRouter registers every route under /api/v1. Route names key the
// security levels in config.EndpointSecurityConfig.
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLogger)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(h.authenticate)

	route := func(method, path, name string, fn http.HandlerFunc) {
		api.HandleFunc(path, fn).Methods(method).Name(name)
	}

	route(http.MethodPost, "/auth/register", "auth.register", h.register)
	route(http.MethodPost, "/auth/login", "auth.login", h.login)

	route(http.MethodGet, "/users/me", "users.me", h.me)
	route(http.MethodPost, "/users", "users.register_staff", h.registerByStaff)
	route(http.MethodDelete, "/users/{id:[0-9]+}", "users.delete", h.deleteUser)
	route(http.MethodGet, "/clients", "users.list_clients", h.listClients)
	route(http.MethodGet, "/clients/{id:[0-9]+}/debt", "users.debt", h.clientDebt)
	route(http.MethodGet, "/clients/{id:[0-9]+}/loans", "loans.by_client", h.loansByClient)
	route(http.MethodGet, "/clients/{id:[0-9]+}/items", "items.by_client", h.itemsByClient)
	route(http.MethodGet, "/employees", "users.list_employees", h.listEmployees)

	route(http.MethodGet, "/tools", "tools.list", h.listTools)
	route(http.MethodPost, "/tools", "tools.create", h.createTool)
	route(http.MethodGet, "/tools/{id:[0-9]+}", "tools.get", h.getTool)
	route(http.MethodPut, "/tools/{id:[0-9]+}", "tools.update", h.updateTool)
	route(http.MethodDelete, "/tools/{id:[0-9]+}", "tools.delete", h.deleteTool)
	route(http.MethodGet, "/tools/{id:[0-9]+}/inventory", "inventory.by_tool", h.inventoryByTool)
	route(http.MethodPost, "/tools/{id:[0-9]+}/stock", "inventory.add", h.addStock)
	route(http.MethodGet, "/images/{ref}", "images.get", h.getImage)

	route(http.MethodGet, "/states", "states.list", h.listStates)
	route(http.MethodPost, "/states", "states.create", h.createState)
	route(http.MethodPut, "/states/{id:[0-9]+}", "states.update", h.updateState)
	route(http.MethodDelete, "/states/{id:[0-9]+}", "states.delete", h.deleteState)

	route(http.MethodGet, "/inventory", "inventory.filter", h.filterInventory)

	route(http.MethodGet, "/kardex", "kardex.filter", h.filterKardex)
	route(http.MethodGet, "/kardex/ranking", "kardex.ranking", h.ranking)
	route(http.MethodGet, "/kardex/{id:[0-9]+}", "kardex.get", h.getKardex)

	route(http.MethodPost, "/loans", "loans.open", h.openLoan)
	route(http.MethodGet, "/loans", "loans.filter", h.filterLoans)
	route(http.MethodGet, "/loans/overdue", "loans.overdue", h.overdueLoans)
	route(http.MethodGet, "/loans/{id:[0-9]+}", "loans.get", h.getLoan)
	route(http.MethodDelete, "/loans/{id:[0-9]+}", "loans.delete", h.deleteLoan)
	route(http.MethodPost, "/loans/{id:[0-9]+}/close", "loans.close", h.closeLoan)
	route(http.MethodGet, "/loans/{id:[0-9]+}/items", "loans.items", h.loanItems)
	route(http.MethodPost, "/loans/{id:[0-9]+}/items", "items.create", h.createItem)
	route(http.MethodPost, "/loans/{id:[0-9]+}/receive", "loans.receive_all", h.receiveAll)
	route(http.MethodPost, "/loans/{id:[0-9]+}/pay-debt", "loans.pay_debt", h.payDebt)
	route(http.MethodPost, "/loans/{id:[0-9]+}/pay-repair", "loans.pay_repair", h.payRepair)
	route(http.MethodGet, "/loans/{id:[0-9]+}/repairs", "loans.repair_items", h.repairItems)

	route(http.MethodPost, "/items/deliver", "items.deliver_batch", h.deliverBatch)
	route(http.MethodPost, "/items/{id:[0-9]+}/deliver", "items.deliver", h.deliverItem)
	route(http.MethodPost, "/items/{id:[0-9]+}/receive", "items.receive", h.receiveItem)
	route(http.MethodDelete, "/items/{id:[0-9]+}", "items.delete", h.deleteItem)

	return router
}
