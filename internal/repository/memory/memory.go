// Package memory is a process-local repository backend for development and tests.
package memory

import (
	"context"
	"maps"
	"sync"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/repository"
)

type data struct {
	users      map[int32]domain.User
	accounts   map[string]repository.Account
	categories map[int32]domain.Category
	tools      map[int32]domain.Tool
	states     map[int32]domain.ToolState
	inventory  map[int32]domain.InventoryRecord
	kardex     map[int32]domain.KardexEntry
	loans      map[int32]domain.Loan
	items      map[int32]domain.LineItem
	seq        map[string]int32
}

func newData() *data {
	return &data{
		users:      map[int32]domain.User{},
		accounts:   map[string]repository.Account{},
		categories: map[int32]domain.Category{},
		tools:      map[int32]domain.Tool{},
		states:     map[int32]domain.ToolState{},
		inventory:  map[int32]domain.InventoryRecord{},
		kardex:     map[int32]domain.KardexEntry{},
		loans:      map[int32]domain.Loan{},
		items:      map[int32]domain.LineItem{},
		seq:        map[string]int32{},
	}
}

// clone copies every table. Rows are stored by value and replaced wholesale on
// update, so a shallow copy of each map is a full snapshot.
func (d *data) clone() *data {
	return &data{
		users:      maps.Clone(d.users),
		accounts:   maps.Clone(d.accounts),
		categories: maps.Clone(d.categories),
		tools:      maps.Clone(d.tools),
		states:     maps.Clone(d.states),
		inventory:  maps.Clone(d.inventory),
		kardex:     maps.Clone(d.kardex),
		loans:      maps.Clone(d.loans),
		items:      maps.Clone(d.items),
		seq:        maps.Clone(d.seq),
	}
}

func (d *data) nextID(table string) int32 {
	d.seq[table]++
	return d.seq[table]
}

var canonicalStateNames = map[domain.StateCode]string{
	domain.StateAvailable:      "Disponible",
	domain.StateLoaned:         "Prestada",
	domain.StateInRepair:       "En reparación",
	domain.StateDecommissioned: "Dada de baja",
}

type Store struct {
	mu sync.RWMutex
	d  *data
}

// NewStore returns an empty store seeded with the canonical tool states.
func NewStore() *Store {
	d := newData()
	for _, code := range domain.CanonicalStates {
		id := d.nextID("states")
		d.states[id] = domain.ToolState{ID: id, Name: canonicalStateNames[code], Code: code}
	}
	return &Store{d: d}
}

func (s *Store) Repos() repository.Repositories {
	return s.repositories(false)
}

func (s *Store) repositories(inTx bool) repository.Repositories {
	b := base{s: s, inTx: inTx}
	return repository.Repositories{
		Users:      &userRepository{b},
		Accounts:   &accountRepository{b},
		Categories: &categoryRepository{b},
		Tools:      &toolRepository{b},
		States:     &toolStateRepository{b},
		Inventory:  &inventoryRepository{b},
		Kardex:     &kardexRepository{b},
		Loans:      &loanRepository{b},
		LineItems:  &lineItemRepository{b},
	}
}

// WithinTx serializes fn against every other store access and restores the
// pre-call snapshot when fn fails. Calls must not nest.
func (s *Store) WithinTx(ctx context.Context, fn repository.TxFunc) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.d.clone()
	defer func() {
		if p := recover(); p != nil {
			s.d = snapshot
			panic(p)
		}
		if err != nil {
			s.d = snapshot
		}
	}()

	return fn(ctx, s.repositories(true))
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

type base struct {
	s    *Store
	inTx bool
}

func (b base) view(fn func(d *data) error) error {
	if !b.inTx {
		b.s.mu.RLock()
		defer b.s.mu.RUnlock()
	}
	return fn(b.s.d)
}

func (b base) update(fn func(d *data) error) error {
	if !b.inTx {
		b.s.mu.Lock()
		defer b.s.mu.Unlock()
	}
	return fn(b.s.d)
}
