package inmemdb

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolsite/core"
	"github.com/trezcool/schoolsite/core/crud"
)

// Gateway operations, as counted by Calls and accepted by Fail.
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

var (
	ErrInjected = errors.New("injected failure")
	ErrNotFound = errors.New("no such record")
)

// Table keeps records in insertion order. It implements crud.Gateway.
type Table struct {
	name  string
	mutex sync.RWMutex
	rows  []crud.Record

	failing map[string]bool
	calls   map[string]int
	now     func() time.Time
}

var _ crud.Gateway = (*Table)(nil)

func newTable(name string) *Table {
	return &Table{
		name:    name,
		failing: make(map[string]bool),
		calls:   make(map[string]int),
		now:     time.Now,
	}
}

// Fail makes every following call of ops fail with a transport error.
func (t *Table) Fail(ops ...string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	for _, op := range ops {
		t.failing[op] = true
	}
}

// Recover undoes Fail.
func (t *Table) Recover() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.failing = make(map[string]bool)
}

// Calls returns how many times op was called, failed calls included.
func (t *Table) Calls(op string) int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.calls[op]
}

// Len returns the number of stored records.
func (t *Table) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.rows)
}

// Insert stores records as they are; records without an id get one.
func (t *Table) Insert(recs ...crud.Record) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	for _, rec := range recs {
		rec = rec.Clone()
		if rec.ID() == "" {
			rec[crud.IDKey] = uuid.NewString()
		}
		t.rows = append(t.rows, rec)
	}
}

// begin counts op and returns the injected failure, if any. Caller holds the lock.
func (t *Table) begin(op string) error {
	t.calls[op]++
	if t.failing[op] {
		return &core.TransportError{Op: op, Entity: t.name, Status: http.StatusServiceUnavailable, Err: ErrInjected}
	}
	return nil
}

func (t *Table) index(id string) int {
	for i, r := range t.rows {
		if r.ID() == id {
			return i
		}
	}
	return -1
}

func (t *Table) List(_ context.Context, page crud.Page) (crud.ListResult, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if err := t.begin(OpList); err != nil {
		return crud.ListResult{}, err
	}

	res := crud.ListResult{Items: make([]crud.Record, 0, page.Size), Total: len(t.rows)}
	from := page.Offset()
	if from >= len(t.rows) {
		return res, nil
	}
	to := from + page.Size
	if page.Size <= 0 || to > len(t.rows) {
		to = len(t.rows)
	}
	for _, r := range t.rows[from:to] {
		res.Items = append(res.Items, r.Clone())
	}
	return res, nil
}

func (t *Table) Create(_ context.Context, draft crud.Record) (crud.Record, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if err := t.begin(OpCreate); err != nil {
		return nil, err
	}
	rec := draft.Clone()
	if rec == nil {
		rec = make(crud.Record)
	}
	rec[crud.IDKey] = uuid.NewString()
	if _, ok := rec["created_at"]; !ok {
		rec["created_at"] = t.now().UTC().Format(time.RFC3339)
	}
	t.rows = append(t.rows, rec)
	return rec.Clone(), nil
}

func (t *Table) Update(_ context.Context, id string, draft crud.Record) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if err := t.begin(OpUpdate); err != nil {
		return err
	}
	i := t.index(id)
	if i < 0 {
		return &core.TransportError{Op: OpUpdate, Entity: t.name, Status: http.StatusNotFound, Err: ErrNotFound}
	}
	patch := draft.Clone()
	delete(patch, crud.IDKey)
	t.rows[i] = t.rows[i].Merge(patch)
	return nil
}

func (t *Table) Delete(_ context.Context, id string) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if err := t.begin(OpDelete); err != nil {
		return err
	}
	i := t.index(id)
	if i < 0 {
		return &core.TransportError{Op: OpDelete, Entity: t.name, Status: http.StatusNotFound, Err: ErrNotFound}
	}
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	return nil
}
