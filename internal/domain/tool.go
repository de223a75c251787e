package domain

import "time"

type Category struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

type Tool struct {
	ID            int32      `json:"id"`
	Name          string     `json:"name"`
	Category      *Category  `json:"category,omitempty"`
	RepoCost      int32      `json:"repo_cost"`
	RentPrice     int32      `json:"rent_price"`
	LateFineDaily int32      `json:"late_fine_daily"`
	ImageRef      string     `json:"image_ref"`
	DeletedOn     *time.Time `json:"deleted_on,omitempty"`
}

// CategoryName returns the category name or "" when the tool has none.
func (t *Tool) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.Name
}

// StateCode identifies the states the loan engine moves stock between.
// Operator-defined states carry an empty code.
type StateCode string

const (
	StateAvailable      StateCode = "AVAILABLE"
	StateLoaned         StateCode = "LOANED"
	StateInRepair       StateCode = "IN_REPAIR"
	StateDecommissioned StateCode = "DECOMMISSIONED"
)

// CanonicalStates lists the engine states in seeding order.
var CanonicalStates = []StateCode{StateAvailable, StateLoaned, StateInRepair, StateDecommissioned}

type ToolState struct {
	ID    int32     `json:"id"`
	Name  string    `json:"name"`
	Code  StateCode `json:"code,omitempty"`
	Color string    `json:"color,omitempty"`
}

// IsCanonical reports whether the engine depends on this state.
func (s *ToolState) IsCanonical() bool {
	return s.Code != ""
}
