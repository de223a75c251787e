package repository

import (
	"context"
	"time"

	"toolrental-backend/internal/domain"
)

// Lookups by id return a domain NotFound error when the row is absent.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	// GetForUpdate reads the user and holds the row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id int32) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int32) error
	ListByRoles(ctx context.Context, roles ...domain.UserRole) ([]domain.User, error)
}

// Account is a credential held by the local identity provider.
type Account struct {
	ExternalID   string
	Username     string
	PasswordHash string
	Role         domain.UserRole
	CreatedOn    time.Time
}

type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByUsername(ctx context.Context, username string) (*Account, error)
	Delete(ctx context.Context, externalID string) error
}

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id int32) (*domain.Category, error)
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

type ToolRepository interface {
	Create(ctx context.Context, tool *domain.Tool) error
	GetByID(ctx context.Context, id int32) (*domain.Tool, error)
	Update(ctx context.Context, tool *domain.Tool) error
	// Delete marks the tool deleted; it stays referenced by its history.
	Delete(ctx context.Context, id int32) error
	List(ctx context.Context) ([]domain.Tool, error)
}

type ToolStateRepository interface {
	Create(ctx context.Context, state *domain.ToolState) error
	GetByID(ctx context.Context, id int32) (*domain.ToolState, error)
	GetByCode(ctx context.Context, code domain.StateCode) (*domain.ToolState, error)
	GetByName(ctx context.Context, name string) (*domain.ToolState, error)
	Update(ctx context.Context, state *domain.ToolState) error
	Delete(ctx context.Context, id int32) error
	List(ctx context.Context) ([]domain.ToolState, error)
}

type InventoryRepository interface {
	Create(ctx context.Context, record *domain.InventoryRecord) error
	// GetForUpdate reads the (tool, state) record and holds it for the rest of the transaction.
	GetForUpdate(ctx context.Context, toolID, stateID int32) (*domain.InventoryRecord, error)
	Get(ctx context.Context, toolID, stateID int32) (*domain.InventoryRecord, error)
	UpdateStock(ctx context.Context, id int32, stock int32) error
	ListByTool(ctx context.Context, toolID int32) ([]domain.InventoryRecord, error)
	SumStockByState(ctx context.Context, stateID int32) (int64, error)
	DeleteByState(ctx context.Context, stateID int32) error
	// Filter applies every predicate set in f; sort follows f.Sort().
	Filter(ctx context.Context, f domain.InventoryFilter) ([]domain.InventoryRecord, error)
}

// KardexQuery is a resolved kardex filter: the date range is half-open [From, Until).
type KardexQuery struct {
	ToolID     *int32
	Type       *domain.MovementType
	From       *time.Time
	Until      *time.Time
	ClientID   *int32
	EmployeeID *int32
}

// ToolLoanTotal is the units loaned for one tool.
type ToolLoanTotal struct {
	ToolID int32
	Total  int32
}

type KardexRepository interface {
	Create(ctx context.Context, entry *domain.KardexEntry) error
	GetByID(ctx context.Context, id int32) (*domain.KardexEntry, error)
	// Find returns matching entries newest id first.
	Find(ctx context.Context, q KardexQuery) ([]domain.KardexEntry, error)
	// SumLoansByTool totals LOAN quantities in [from, until), highest first.
	SumLoansByTool(ctx context.Context, from, until time.Time, limit int) ([]ToolLoanTotal, error)
}

type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) error
	GetByID(ctx context.Context, id int32) (*domain.Loan, error)
	Update(ctx context.Context, loan *domain.Loan) error
	Delete(ctx context.Context, id int32) error
	List(ctx context.Context) ([]domain.Loan, error)
	ListByClient(ctx context.Context, clientID int32) ([]domain.Loan, error)
	ListByStatus(ctx context.Context, status domain.LoanStatus) ([]domain.Loan, error)
	// ListDueBefore returns loans whose expected return date is strictly before t.
	ListDueBefore(ctx context.Context, t time.Time) ([]domain.Loan, error)
}

type LineItemRepository interface {
	Create(ctx context.Context, item *domain.LineItem) error
	GetByID(ctx context.Context, id int32) (*domain.LineItem, error)
	Update(ctx context.Context, item *domain.LineItem) error
	Delete(ctx context.Context, id int32) error
	ListByLoan(ctx context.Context, loanID int32) ([]domain.LineItem, error)
	CountByLoan(ctx context.Context, loanID int32) (int, error)
	// HasUnreturned reports whether the client holds a line item for the tool that was not returned yet.
	HasUnreturned(ctx context.Context, clientID, toolID int32) (bool, error)
	CountUnreturnedByTool(ctx context.Context, toolID int32) (int, error)
	// SumFineByClient totals fines across every loan of the client.
	SumFineByClient(ctx context.Context, clientID int32) (int64, error)
}

// Repositories is the set of repositories bound to one connection or transaction.
type Repositories struct {
	Users      UserRepository
	Accounts   AccountRepository
	Categories CategoryRepository
	Tools      ToolRepository
	States     ToolStateRepository
	Inventory  InventoryRepository
	Kardex     KardexRepository
	Loans      LoanRepository
	LineItems  LineItemRepository
}

// TxFunc runs inside a transaction; returning an error rolls every write back.
type TxFunc func(ctx context.Context, repos Repositories) error

type Transactor interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// Store is a persistence backend.
type Store interface {
	Transactor
	Repos() Repositories
	Ping(ctx context.Context) error
	Close() error
}
