package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/repository"
)

func duplicate(what string) error {
	return fmt.Errorf("%w: %s", domain.ErrDuplicate, what)
}

func sortedValues[K comparable, V any](m map[K]V, id func(V) int32) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b V) int { return cmp.Compare(id(a), id(b)) })
	return out
}

type userRepository struct{ base }

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	return r.update(func(d *data) error {
		for _, existing := range d.users {
			if strings.EqualFold(existing.Username, u.Username) {
				return duplicate("users_username_key")
			}
		}
		if u.State == "" {
			u.State = domain.ClientStateActive
		}
		u.ID = d.nextID("users")
		d.users[u.ID] = *u
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	var u domain.User
	err := r.view(func(d *data) error {
		found, ok := d.users[id]
		if !ok {
			return domain.NotFoundf("user %d not found", id)
		}
		u = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetForUpdate relies on the store-wide lock held by WithinTx.
func (r *userRepository) GetForUpdate(ctx context.Context, id int32) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u *domain.User
	err := r.view(func(d *data) error {
		for _, existing := range d.users {
			if strings.EqualFold(existing.Username, strings.TrimSpace(username)) {
				found := existing
				u = &found
				return nil
			}
		}
		return domain.NotFoundf("user %s not found", username)
	})
	return u, err
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	return r.update(func(d *data) error {
		if _, ok := d.users[u.ID]; !ok {
			return domain.NotFoundf("user %d not found", u.ID)
		}
		if u.Loans < 0 {
			return fmt.Errorf("users_loans_check: loans cannot be negative")
		}
		d.users[u.ID] = *u
		return nil
	})
}

func (r *userRepository) Delete(ctx context.Context, id int32) error {
	return r.update(func(d *data) error {
		if _, ok := d.users[id]; !ok {
			return domain.NotFoundf("user %d not found", id)
		}
		delete(d.users, id)
		return nil
	})
}

func (r *userRepository) ListByRoles(ctx context.Context, roles ...domain.UserRole) ([]domain.User, error) {
	var users []domain.User
	err := r.view(func(d *data) error {
		for _, u := range sortedValues(d.users, func(u domain.User) int32 { return u.ID }) {
			if slices.Contains(roles, u.Role) {
				users = append(users, u)
			}
		}
		return nil
	})
	return users, err
}

type accountRepository struct{ base }

func (r *accountRepository) Create(ctx context.Context, a *repository.Account) error {
	return r.update(func(d *data) error {
		if _, ok := d.accounts[a.ExternalID]; ok {
			return duplicate("identity_accounts_pkey")
		}
		for _, existing := range d.accounts {
			if strings.EqualFold(existing.Username, a.Username) {
				return duplicate("identity_accounts_username_key")
			}
		}
		d.accounts[a.ExternalID] = *a
		return nil
	})
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*repository.Account, error) {
	var a *repository.Account
	err := r.view(func(d *data) error {
		for _, existing := range d.accounts {
			if strings.EqualFold(existing.Username, username) {
				found := existing
				a = &found
				return nil
			}
		}
		return domain.NotFoundf("account %s not found", username)
	})
	return a, err
}

func (r *accountRepository) Delete(ctx context.Context, externalID string) error {
	return r.update(func(d *data) error {
		if _, ok := d.accounts[externalID]; !ok {
			return domain.NotFoundf("account %s not found", externalID)
		}
		delete(d.accounts, externalID)
		return nil
	})
}

type categoryRepository struct{ base }

func (r *categoryRepository) Create(ctx context.Context, c *domain.Category) error {
	return r.update(func(d *data) error {
		for _, existing := range d.categories {
			if strings.EqualFold(existing.Name, c.Name) {
				return duplicate("categories_name_key")
			}
		}
		c.ID = d.nextID("categories")
		d.categories[c.ID] = *c
		return nil
	})
}

func (r *categoryRepository) GetByID(ctx context.Context, id int32) (*domain.Category, error) {
	var c domain.Category
	err := r.view(func(d *data) error {
		found, ok := d.categories[id]
		if !ok {
			return domain.NotFoundf("category %d not found", id)
		}
		c = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	var c *domain.Category
	err := r.view(func(d *data) error {
		for _, existing := range d.categories {
			if strings.EqualFold(existing.Name, name) {
				found := existing
				c = &found
				return nil
			}
		}
		return domain.NotFoundf("category %s not found", name)
	})
	return c, err
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := r.view(func(d *data) error {
		out = sortedValues(d.categories, func(c domain.Category) int32 { return c.ID })
		slices.SortStableFunc(out, func(a, b domain.Category) int { return strings.Compare(a.Name, b.Name) })
		return nil
	})
	return out, err
}

type toolRepository struct{ base }

// withCategory refreshes the embedded category from the categories table.
func withCategory(d *data, t domain.Tool) domain.Tool {
	if t.Category != nil {
		if c, ok := d.categories[t.Category.ID]; ok {
			t.Category = &c
		}
	}
	return t
}

func (r *toolRepository) Create(ctx context.Context, t *domain.Tool) error {
	return r.update(func(d *data) error {
		t.ID = d.nextID("tools")
		d.tools[t.ID] = *t
		return nil
	})
}

func (r *toolRepository) GetByID(ctx context.Context, id int32) (*domain.Tool, error) {
	var t domain.Tool
	err := r.view(func(d *data) error {
		found, ok := d.tools[id]
		if !ok || found.DeletedOn != nil {
			return domain.NotFoundf("tool %d not found", id)
		}
		t = withCategory(d, found)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *toolRepository) Update(ctx context.Context, t *domain.Tool) error {
	return r.update(func(d *data) error {
		found, ok := d.tools[t.ID]
		if !ok || found.DeletedOn != nil {
			return domain.NotFoundf("tool %d not found", t.ID)
		}
		updated := *t
		updated.DeletedOn = nil
		d.tools[t.ID] = updated
		return nil
	})
}

func (r *toolRepository) Delete(ctx context.Context, id int32) error {
	return r.update(func(d *data) error {
		found, ok := d.tools[id]
		if !ok || found.DeletedOn != nil {
			return domain.NotFoundf("tool %d not found", id)
		}
		now := time.Now()
		found.DeletedOn = &now
		d.tools[id] = found
		return nil
	})
}

func (r *toolRepository) List(ctx context.Context) ([]domain.Tool, error) {
	var tools []domain.Tool
	err := r.view(func(d *data) error {
		for _, t := range sortedValues(d.tools, func(t domain.Tool) int32 { return t.ID }) {
			if t.DeletedOn == nil {
				tools = append(tools, withCategory(d, t))
			}
		}
		return nil
	})
	return tools, err
}

type toolStateRepository struct{ base }

func (r *toolStateRepository) Create(ctx context.Context, s *domain.ToolState) error {
	return r.update(func(d *data) error {
		for _, existing := range d.states {
			if strings.EqualFold(existing.Name, s.Name) {
				return duplicate("tool_states_name_key")
			}
			if s.Code != "" && existing.Code == s.Code {
				return duplicate("tool_states_code_key")
			}
		}
		s.ID = d.nextID("states")
		d.states[s.ID] = *s
		return nil
	})
}

func (r *toolStateRepository) GetByID(ctx context.Context, id int32) (*domain.ToolState, error) {
	var s domain.ToolState
	err := r.view(func(d *data) error {
		found, ok := d.states[id]
		if !ok {
			return domain.NotFoundf("tool state %d not found", id)
		}
		s = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *toolStateRepository) find(match func(domain.ToolState) bool, format string, arg any) (*domain.ToolState, error) {
	var s *domain.ToolState
	err := r.view(func(d *data) error {
		for _, existing := range d.states {
			if match(existing) {
				found := existing
				s = &found
				return nil
			}
		}
		return domain.NotFoundf(format, arg)
	})
	return s, err
}

func (r *toolStateRepository) GetByCode(ctx context.Context, code domain.StateCode) (*domain.ToolState, error) {
	return r.find(func(s domain.ToolState) bool { return s.Code == code }, "tool state %s not found", code)
}

func (r *toolStateRepository) GetByName(ctx context.Context, name string) (*domain.ToolState, error) {
	return r.find(func(s domain.ToolState) bool { return strings.EqualFold(s.Name, name) }, "tool state %s not found", name)
}

func (r *toolStateRepository) Update(ctx context.Context, s *domain.ToolState) error {
	return r.update(func(d *data) error {
		found, ok := d.states[s.ID]
		if !ok {
			return domain.NotFoundf("tool state %d not found", s.ID)
		}
		for _, existing := range d.states {
			if existing.ID != s.ID && strings.EqualFold(existing.Name, s.Name) {
				return duplicate("tool_states_name_key")
			}
		}
		found.Name = s.Name
		found.Color = s.Color
		d.states[s.ID] = found
		return nil
	})
}

func (r *toolStateRepository) Delete(ctx context.Context, id int32) error {
	return r.update(func(d *data) error {
		found, ok := d.states[id]
		if !ok || found.IsCanonical() {
			return domain.NotFoundf("tool state %d not found", id)
		}
		delete(d.states, id)
		return nil
	})
}

func (r *toolStateRepository) List(ctx context.Context) ([]domain.ToolState, error) {
	var out []domain.ToolState
	err := r.view(func(d *data) error {
		out = sortedValues(d.states, func(s domain.ToolState) int32 { return s.ID })
		return nil
	})
	return out, err
}

type inventoryRepository struct{ base }

func withState(d *data, rec domain.InventoryRecord) domain.InventoryRecord {
	if s, ok := d.states[rec.StateID]; ok {
		rec.StateName = s.Name
		rec.StateCode = s.Code
	}
	return rec
}

func (r *inventoryRepository) Create(ctx context.Context, rec *domain.InventoryRecord) error {
	return r.update(func(d *data) error {
		for _, existing := range d.inventory {
			if existing.ToolID == rec.ToolID && existing.StateID == rec.StateID {
				return duplicate("inventory_records_tool_id_state_id_key")
			}
		}
		rec.ID = d.nextID("inventory")
		stored := *rec
		stored.Tool = nil
		d.inventory[rec.ID] = stored
		return nil
	})
}

// GetForUpdate relies on the store-wide lock held by WithinTx.
func (r *inventoryRepository) GetForUpdate(ctx context.Context, toolID, stateID int32) (*domain.InventoryRecord, error) {
	return r.Get(ctx, toolID, stateID)
}

func (r *inventoryRepository) Get(ctx context.Context, toolID, stateID int32) (*domain.InventoryRecord, error) {
	var rec *domain.InventoryRecord
	err := r.view(func(d *data) error {
		for _, existing := range d.inventory {
			if existing.ToolID == toolID && existing.StateID == stateID {
				found := withState(d, existing)
				rec = &found
				return nil
			}
		}
		return domain.NotFoundf("inventory record for tool %d state %d not found", toolID, stateID)
	})
	return rec, err
}

func (r *inventoryRepository) UpdateStock(ctx context.Context, id int32, stock int32) error {
	return r.update(func(d *data) error {
		rec, ok := d.inventory[id]
		if !ok {
			return domain.NotFoundf("inventory record %d not found", id)
		}
		if stock < 0 {
			return fmt.Errorf("inventory_records_stock_check: stock cannot be negative")
		}
		rec.Stock = stock
		d.inventory[id] = rec
		return nil
	})
}

func (r *inventoryRepository) ListByTool(ctx context.Context, toolID int32) ([]domain.InventoryRecord, error) {
	var out []domain.InventoryRecord
	err := r.view(func(d *data) error {
		for _, rec := range sortedValues(d.inventory, func(rec domain.InventoryRecord) int32 { return rec.StateID }) {
			if rec.ToolID == toolID {
				out = append(out, withState(d, rec))
			}
		}
		return nil
	})
	return out, err
}

func (r *inventoryRepository) SumStockByState(ctx context.Context, stateID int32) (int64, error) {
	var total int64
	err := r.view(func(d *data) error {
		for _, rec := range d.inventory {
			if rec.StateID == stateID {
				total += int64(rec.Stock)
			}
		}
		return nil
	})
	return total, err
}

func (r *inventoryRepository) DeleteByState(ctx context.Context, stateID int32) error {
	return r.update(func(d *data) error {
		for id, rec := range d.inventory {
			if rec.StateID == stateID {
				delete(d.inventory, id)
			}
		}
		return nil
	})
}

func (r *inventoryRepository) Filter(ctx context.Context, f domain.InventoryFilter) ([]domain.InventoryRecord, error) {
	var out []domain.InventoryRecord
	err := r.view(func(d *data) error {
		search := strings.ToLower(strings.TrimSpace(f.Search))
		for _, rec := range sortedValues(d.inventory, func(rec domain.InventoryRecord) int32 { return rec.ID }) {
			tool, ok := d.tools[rec.ToolID]
			if !ok || tool.DeletedOn != nil {
				continue
			}
			tool = withCategory(d, tool)
			rec = withState(d, rec)

			if f.State != "" && !strings.EqualFold(rec.StateName, f.State) && !strings.EqualFold(string(rec.StateCode), f.State) {
				continue
			}
			if f.Category != "" && !strings.EqualFold(tool.CategoryName(), f.Category) {
				continue
			}
			if f.ToolID != nil && rec.ToolID != *f.ToolID {
				continue
			}
			if f.MinPrice != nil && tool.RentPrice < *f.MinPrice {
				continue
			}
			if f.MaxPrice != nil && tool.RentPrice > *f.MaxPrice {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(tool.Name), search) {
				continue
			}
			rec.Tool = &tool
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch f.Sort() {
	case domain.InventorySortRecent:
		slices.SortStableFunc(out, func(a, b domain.InventoryRecord) int { return cmp.Compare(b.ID, a.ID) })
	case domain.InventorySortDesc:
		slices.SortStableFunc(out, func(a, b domain.InventoryRecord) int { return cmp.Compare(b.Tool.RentPrice, a.Tool.RentPrice) })
	case domain.InventorySortAsc:
		slices.SortStableFunc(out, func(a, b domain.InventoryRecord) int { return cmp.Compare(a.Tool.RentPrice, b.Tool.RentPrice) })
	}
	return out, nil
}

type kardexRepository struct{ base }

func (r *kardexRepository) Create(ctx context.Context, e *domain.KardexEntry) error {
	return r.update(func(d *data) error {
		e.ID = d.nextID("kardex")
		d.kardex[e.ID] = *e
		return nil
	})
}

func (r *kardexRepository) GetByID(ctx context.Context, id int32) (*domain.KardexEntry, error) {
	var e domain.KardexEntry
	err := r.view(func(d *data) error {
		found, ok := d.kardex[id]
		if !ok {
			return domain.NotFoundf("kardex entry %d not found", id)
		}
		e = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func matchesKardex(e domain.KardexEntry, q repository.KardexQuery) bool {
	switch {
	case q.ToolID != nil && e.ToolID != *q.ToolID:
		return false
	case q.Type != nil && e.Type != *q.Type:
		return false
	case q.From != nil && e.Date.Before(*q.From):
		return false
	case q.Until != nil && !e.Date.Before(*q.Until):
		return false
	case q.ClientID != nil && (e.ClientID == nil || *e.ClientID != *q.ClientID):
		return false
	case q.EmployeeID != nil && e.EmployeeID != *q.EmployeeID:
		return false
	}
	return true
}

func (r *kardexRepository) Find(ctx context.Context, q repository.KardexQuery) ([]domain.KardexEntry, error) {
	var out []domain.KardexEntry
	err := r.view(func(d *data) error {
		for _, e := range sortedValues(d.kardex, func(e domain.KardexEntry) int32 { return -e.ID }) {
			if matchesKardex(e, q) {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

func (r *kardexRepository) SumLoansByTool(ctx context.Context, from, until time.Time, limit int) ([]repository.ToolLoanTotal, error) {
	loan := domain.MovementLoan
	q := repository.KardexQuery{Type: &loan, From: &from, Until: &until}

	totals := map[int32]int32{}
	err := r.view(func(d *data) error {
		for _, e := range d.kardex {
			if t, ok := d.tools[e.ToolID]; ok && t.DeletedOn == nil && matchesKardex(e, q) {
				totals[e.ToolID] += e.Quantity
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]repository.ToolLoanTotal, 0, len(totals))
	for toolID, total := range totals {
		out = append(out, repository.ToolLoanTotal{ToolID: toolID, Total: total})
	}
	slices.SortFunc(out, func(a, b repository.ToolLoanTotal) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.ToolID, b.ToolID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type loanRepository struct{ base }

func (r *loanRepository) Create(ctx context.Context, l *domain.Loan) error {
	return r.update(func(d *data) error {
		if !l.ReturnDate.After(l.InitDate) {
			return fmt.Errorf("loans_check: return date must follow init date")
		}
		l.ID = d.nextID("loans")
		d.loans[l.ID] = *l
		return nil
	})
}

func (r *loanRepository) GetByID(ctx context.Context, id int32) (*domain.Loan, error) {
	var l domain.Loan
	err := r.view(func(d *data) error {
		found, ok := d.loans[id]
		if !ok {
			return domain.NotFoundf("loan %d not found", id)
		}
		l = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *loanRepository) Update(ctx context.Context, l *domain.Loan) error {
	return r.update(func(d *data) error {
		found, ok := d.loans[l.ID]
		if !ok {
			return domain.NotFoundf("loan %d not found", l.ID)
		}
		updated := *l
		updated.ClientID = found.ClientID
		d.loans[l.ID] = updated
		return nil
	})
}

func (r *loanRepository) Delete(ctx context.Context, id int32) error {
	return r.update(func(d *data) error {
		if _, ok := d.loans[id]; !ok {
			return domain.NotFoundf("loan %d not found", id)
		}
		for _, li := range d.items {
			if li.LoanID == id {
				return fmt.Errorf("loan_line_items_loan_id_fkey: loan %d still has line items", id)
			}
		}
		delete(d.loans, id)
		return nil
	})
}

func (r *loanRepository) list(match func(domain.Loan) bool) ([]domain.Loan, error) {
	var out []domain.Loan
	err := r.view(func(d *data) error {
		for _, l := range sortedValues(d.loans, func(l domain.Loan) int32 { return l.ID }) {
			if match(l) {
				out = append(out, l)
			}
		}
		return nil
	})
	return out, err
}

func (r *loanRepository) List(ctx context.Context) ([]domain.Loan, error) {
	return r.list(func(domain.Loan) bool { return true })
}

func (r *loanRepository) ListByClient(ctx context.Context, clientID int32) ([]domain.Loan, error) {
	return r.list(func(l domain.Loan) bool { return l.ClientID == clientID })
}

func (r *loanRepository) ListByStatus(ctx context.Context, status domain.LoanStatus) ([]domain.Loan, error) {
	return r.list(func(l domain.Loan) bool { return l.Status == status })
}

func (r *loanRepository) ListDueBefore(ctx context.Context, t time.Time) ([]domain.Loan, error) {
	out, err := r.list(func(l domain.Loan) bool { return l.ReturnDate.Before(t) })
	slices.SortStableFunc(out, func(a, b domain.Loan) int { return a.ReturnDate.Compare(b.ReturnDate) })
	return out, err
}

type lineItemRepository struct{ base }

func (r *lineItemRepository) Create(ctx context.Context, li *domain.LineItem) error {
	return r.update(func(d *data) error {
		if _, ok := d.loans[li.LoanID]; !ok {
			return fmt.Errorf("loan_line_items_loan_id_fkey: loan %d does not exist", li.LoanID)
		}
		li.ID = d.nextID("items")
		d.items[li.ID] = *li
		return nil
	})
}

func (r *lineItemRepository) GetByID(ctx context.Context, id int32) (*domain.LineItem, error) {
	var li domain.LineItem
	err := r.view(func(d *data) error {
		found, ok := d.items[id]
		if !ok {
			return domain.NotFoundf("line item %d not found", id)
		}
		li = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &li, nil
}

func (r *lineItemRepository) Update(ctx context.Context, li *domain.LineItem) error {
	return r.update(func(d *data) error {
		found, ok := d.items[li.ID]
		if !ok {
			return domain.NotFoundf("line item %d not found", li.ID)
		}
		updated := *li
		updated.LoanID = found.LoanID
		updated.ToolID = found.ToolID
		d.items[li.ID] = updated
		return nil
	})
}

func (r *lineItemRepository) Delete(ctx context.Context, id int32) error {
	return r.update(func(d *data) error {
		if _, ok := d.items[id]; !ok {
			return domain.NotFoundf("line item %d not found", id)
		}
		delete(d.items, id)
		return nil
	})
}

func (r *lineItemRepository) ListByLoan(ctx context.Context, loanID int32) ([]domain.LineItem, error) {
	var out []domain.LineItem
	err := r.view(func(d *data) error {
		for _, li := range sortedValues(d.items, func(li domain.LineItem) int32 { return li.ID }) {
			if li.LoanID == loanID {
				out = append(out, li)
			}
		}
		return nil
	})
	return out, err
}

func (r *lineItemRepository) CountByLoan(ctx context.Context, loanID int32) (int, error) {
	items, err := r.ListByLoan(ctx, loanID)
	return len(items), err
}

func (r *lineItemRepository) HasUnreturned(ctx context.Context, clientID, toolID int32) (bool, error) {
	var found bool
	err := r.view(func(d *data) error {
		for _, li := range d.items {
			if li.ToolID != toolID || li.Activity == domain.ActivityReturned {
				continue
			}
			if l, ok := d.loans[li.LoanID]; ok && l.ClientID == clientID {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *lineItemRepository) CountUnreturnedByTool(ctx context.Context, toolID int32) (int, error) {
	var n int
	err := r.view(func(d *data) error {
		for _, li := range d.items {
			if li.ToolID == toolID && li.Activity != domain.ActivityReturned {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *lineItemRepository) SumFineByClient(ctx context.Context, clientID int32) (int64, error) {
	var total int64
	err := r.view(func(d *data) error {
		for _, li := range d.items {
			if l, ok := d.loans[li.LoanID]; ok && l.ClientID == clientID {
				total += int64(li.Fine)
			}
		}
		return nil
	})
	return total, err
}
