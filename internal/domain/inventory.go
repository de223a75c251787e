package domain

// InventoryRecord counts the units of one tool sitting in one state.
type InventoryRecord struct {
	ID        int32     `json:"id"`
	ToolID    int32     `json:"tool_id"`
	StateID   int32     `json:"state_id"`
	StateName string    `json:"state_name"`
	StateCode StateCode `json:"state_code,omitempty"`
	Stock     int32     `json:"stock"`
	Tool      *Tool     `json:"tool,omitempty"`
}

type InventorySort string

const (
	InventorySortNone   InventorySort = ""
	InventorySortAsc    InventorySort = "ASC"
	InventorySortDesc   InventorySort = "DESC"
	InventorySortRecent InventorySort = "RECENT"
)

// InventoryFilter holds the optional predicates of an inventory search.
type InventoryFilter struct {
	State    string
	Category string
	ToolID   *int32
	MinPrice *int32
	MaxPrice *int32
	Asc      bool
	Desc     bool
	Recent   bool
	Search   string
}

// Sort resolves the requested sort flags: recent wins over desc, desc over asc.
func (f InventoryFilter) Sort() InventorySort {
	switch {
	case f.Recent:
		return InventorySortRecent
	case f.Desc:
		return InventorySortDesc
	case f.Asc:
		return InventorySortAsc
	}
	return InventorySortNone
}
