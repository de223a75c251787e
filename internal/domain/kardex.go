package domain

import "time"

type MovementType string

const (
	MovementIncome        MovementType = "INCOME"
	MovementLoan          MovementType = "LOAN"
	MovementReturn        MovementType = "RETURN"
	MovementToRepair      MovementType = "TO-REPAIR"
	MovementDiscarded     MovementType = "DISCARDED"
	MovementDebtPayment   MovementType = "DEBT-PAYMENT"
	MovementRepairPayment MovementType = "REPAIR-PAYMENT"
)

// KardexEntry is one append-only stock or settlement movement.
type KardexEntry struct {
	ID         int32        `json:"id"`
	ToolID     int32        `json:"tool_id"`
	Type       MovementType `json:"type"`
	Date       time.Time    `json:"date"`
	Quantity   int32        `json:"quantity"`
	Cost       *int32       `json:"cost,omitempty"`
	ClientID   *int32       `json:"client_id,omitempty"`
	EmployeeID int32        `json:"employee_id"`
}

// KardexFilter holds the optional predicates of a kardex search. Dates compare by calendar day.
type KardexFilter struct {
	ToolID     *int32
	Type       string
	From       *time.Time
	To         *time.Time
	ClientID   *int32
	EmployeeID *int32
}

// RankingEntry is a tool with the units loaned in a window.
type RankingEntry struct {
	Tool        Tool  `json:"tool"`
	TotalLoaned int32 `json:"total_loans"`
}

// RankingSize is the number of tools returned by a ranking query.
const RankingSize = 10
