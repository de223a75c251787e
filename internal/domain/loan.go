package domain

import (
	"strings"
	"time"
)

type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "ACTIVE"
	LoanStatusPending  LoanStatus = "PENDING"
	LoanStatusFinished LoanStatus = "FINISHED"
)

// LoanFilterOverdue is the pseudo-status accepted by loan filtering.
const LoanFilterOverdue = "OVERDUE"

type Loan struct {
	ID             int32      `json:"id"`
	ClientID       int32      `json:"client_id"`
	InitDate       time.Time  `json:"init_date"`
	ReturnDate     time.Time  `json:"return_date"`
	RealReturnDate *time.Time `json:"real_return_date,omitempty"`
	Status         LoanStatus `json:"status"`
}

type Activity string

const (
	ActivityNone      Activity = ""
	ActivityDelivered Activity = "DELIVERED"
	ActivityReturned  Activity = "RETURNED"
)

// LineItem is one tool attached to one loan.
type LineItem struct {
	ID            int32    `json:"id"`
	LoanID        int32    `json:"loan_id"`
	ToolID        int32    `json:"tool_id"`
	DeliveredByID *int32   `json:"delivered_by,omitempty"`
	ReceivedByID  *int32   `json:"received_by,omitempty"`
	Activity      Activity `json:"activity"`
	Debt          int32    `json:"debt"`
	Fine          int32    `json:"fine"`
	NeedsRepair   bool     `json:"needs_repair"`
}

// HasActivity reports whether the item left the created state.
func (li *LineItem) HasActivity() bool {
	return strings.TrimSpace(string(li.Activity)) != ""
}

type DamageClassification string

const (
	DamageNone        DamageClassification = "NO_DAMAGE"
	DamageRepairable  DamageClassification = "DAMAGED"
	DamageIrreparable DamageClassification = "IRREPARABLE"
)

// ParseDamage accepts the canonical names and the legacy labels used by older clients.
func ParseDamage(s string) (DamageClassification, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NO_DAMAGE", "SIN DAÑO":
		return DamageNone, nil
	case "DAMAGED", "DAÑO":
		return DamageRepairable, nil
	case "IRREPARABLE":
		return DamageIrreparable, nil
	}
	return "", ErrInvalidDamage
}

// Destination returns the inventory state and kardex movement for a return.
func (d DamageClassification) Destination() (StateCode, MovementType) {
	switch d {
	case DamageRepairable:
		return StateInRepair, MovementToRepair
	case DamageIrreparable:
		return StateDecommissioned, MovementDiscarded
	}
	return StateAvailable, MovementReturn
}
