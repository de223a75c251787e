package service

import (
	"context"
	"io"
	"time"

	"toolrental-backend/internal/domain"
)

// Mutating operations take the acting user's id explicitly and check its role
// against the local user mirror.

type InventoryService interface {
	GetRecord(ctx context.Context, toolID int32, state domain.StateCode) (*domain.InventoryRecord, error)
	// Transition moves quantity units of a tool between two canonical states.
	Transition(ctx context.Context, toolID int32, from, to domain.StateCode, quantity int32) error
	IsAvailable(ctx context.Context, toolID int32) (bool, error)
	AddStock(ctx context.Context, actorID, toolID, quantity int32) (*domain.InventoryRecord, error)
	Filter(ctx context.Context, f domain.InventoryFilter) ([]domain.InventoryRecord, error)
	RecordsByTool(ctx context.Context, toolID int32) ([]domain.InventoryRecord, error)
	TotalStock(ctx context.Context, toolID int32) (int64, error)
}

type KardexService interface {
	Record(ctx context.Context, entry *domain.KardexEntry) error
	Get(ctx context.Context, id int32) (*domain.KardexEntry, error)
	Filter(ctx context.Context, f domain.KardexFilter) ([]domain.KardexEntry, error)
	Between(ctx context.Context, start, end time.Time) ([]domain.KardexEntry, error)
	// Ranking defaults to the current month when either bound is nil.
	Ranking(ctx context.Context, start, end *time.Time) ([]domain.RankingEntry, error)
}

type LoanService interface {
	Open(ctx context.Context, actorID, clientID int32, initDate, returnDate time.Time) (*domain.Loan, error)
	OpenWithLineItems(ctx context.Context, actorID, clientID int32, initDate, returnDate time.Time, toolIDs []int32) (*domain.Loan, []domain.LineItem, error)
	Close(ctx context.Context, loanID int32) (*domain.Loan, error)
	// Delete reports failure as false and logs the cause.
	Delete(ctx context.Context, loanID int32) bool
	Overdue(ctx context.Context) ([]domain.Loan, error)
	Get(ctx context.Context, loanID int32) (*domain.Loan, error)
	ListByClient(ctx context.Context, clientID int32) ([]domain.Loan, error)
	// Filter accepts a loan status, OVERDUE, or "" for every loan.
	Filter(ctx context.Context, status string) ([]domain.Loan, error)
	TotalDebt(ctx context.Context, loanID int32) (int64, error)
	TotalFine(ctx context.Context, loanID int32) (int64, error)
}

// BatchResult is the outcome for one line item of a batch call.
type BatchResult struct {
	LineItemID int32            `json:"line_item_id"`
	Item       *domain.LineItem `json:"item,omitempty"`
	Skipped    bool             `json:"skipped,omitempty"`
	Err        error            `json:"-"`
}

type LineItemService interface {
	Create(ctx context.Context, actorID, loanID, toolID int32) (*domain.LineItem, error)
	Deliver(ctx context.Context, actorID, itemID int32) (*domain.LineItem, error)
	// DeliverBatch commits item by item and stops at the first failure.
	DeliverBatch(ctx context.Context, actorID int32, itemIDs []int32) ([]BatchResult, error)
	Receive(ctx context.Context, actorID, itemID int32, damage string) (*domain.LineItem, error)
	// ReceiveBatch needs one damage label per line item of the loan.
	ReceiveBatch(ctx context.Context, actorID, loanID int32, damages map[int32]string) (*domain.Loan, []BatchResult, error)
	Delete(ctx context.Context, actorID, itemID int32) error
	Get(ctx context.Context, itemID int32) (*domain.LineItem, error)
	ListByLoan(ctx context.Context, loanID int32) ([]domain.LineItem, error)
	ListByClient(ctx context.Context, clientID int32) ([]domain.LineItem, error)
}

type SettlementService interface {
	PayDebt(ctx context.Context, actorID, loanID int32) (bool, error)
	PayRepair(ctx context.Context, actorID, loanID, cost int32) (bool, error)
	NeedsRepair(ctx context.Context, loanID int32) (bool, error)
	ItemsNeedingRepair(ctx context.Context, loanID int32) ([]domain.LineItem, error)
	HasOutstandingDebt(ctx context.Context, clientID int32) (bool, error)
}

// Upload is an image sent along with a tool.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Data        io.Reader
}

// ToolChanges holds the fields of a tool update; nil and non-positive values are ignored.
type ToolChanges struct {
	Name          *string
	Category      *string
	RepoCost      *int32
	RentPrice     *int32
	LateFineDaily *int32
}

type ToolService interface {
	Create(ctx context.Context, actorID int32, tool *domain.Tool, category string, image *Upload) (*domain.Tool, error)
	Update(ctx context.Context, actorID, toolID int32, changes ToolChanges, image *Upload) (*domain.Tool, error)
	Delete(ctx context.Context, actorID, toolID int32) error
	Get(ctx context.Context, toolID int32) (*domain.Tool, error)
	List(ctx context.Context) ([]domain.Tool, error)
	OpenImage(ctx context.Context, ref string) (io.ReadCloser, error)
}

type ToolStateService interface {
	List(ctx context.Context) ([]domain.ToolState, error)
	Create(ctx context.Context, actorID int32, name, color string) (*domain.ToolState, error)
	Update(ctx context.Context, actorID, stateID int32, name, color string) (*domain.ToolState, error)
	Delete(ctx context.Context, actorID, stateID int32) error
}

// Registration is the profile of a new user.
type Registration struct {
	Username string
	Email    string
	Name     string
	LastName string
	Rut      string
	Phone    string
	Password string
	Role     domain.UserRole
}

type UserService interface {
	// Register opens the identity account and mirrors it locally. A nil actor may only register clients.
	Register(ctx context.Context, actorID *int32, reg Registration) (*domain.User, error)
	Login(ctx context.Context, identifier, password string) (string, error)
	Delete(ctx context.Context, actorID, userID int32) error
	Get(ctx context.Context, userID int32) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ListClients(ctx context.Context, state string) ([]domain.User, error)
	ListEmployees(ctx context.Context, role string) ([]domain.User, error)
}
