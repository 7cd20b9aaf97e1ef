package crud

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolsite/core"
)

var (
	ErrBusy       = errors.New("another operation is in progress")
	ErrNoDialog   = errors.New("no dialog is open")
	ErrNoDelete   = errors.New("no delete is pending")
	ErrNotFound   = errors.New("record not found")
	ErrUnknownKey = errors.New("unknown field")
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateDialogOpen
	StateDeleteConfirm
)

func (s State) String() string {
	return [...]string{"idle", "loading", "dialog", "delete-confirm"}[s]
}

// Action names the in-flight gateway call.
type Action string

const (
	ActionNone     Action = ""
	ActionLoading  Action = "loading"
	ActionAdding   Action = "adding"
	ActionEditing  Action = "editing"
	ActionDeleting Action = "deleting"
)

type DialogMode int

const (
	DialogNone DialogMode = iota
	DialogAdd
	DialogEdit
)

// Source tells where the displayed records come from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback" // samples or optimistic patches
)

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a one-shot user message about the outcome of a mutation.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// Snapshot is a copy of the engine state for rendering.
type Snapshot struct {
	State         State
	Action        Action
	LoadingText   string
	Dialog        DialogMode
	Records       []Record
	Window        Window
	Source        Source
	Draft         Record
	Editing       Record
	PendingDelete string
	Errors        map[string]string
}

type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine owns the paging, form and record state of one entity grid.
//
// The engine never returns transport errors: a failed list falls back to the entity
// samples and a failed mutation is replaced by an optimistic local patch.
// The lock is not held during gateway calls.
type Engine struct {
	entity    Entity
	validator *Validator
	logger    core.Logger
	now       func() time.Time

	mu            sync.Mutex
	records       []Record
	window        Window
	source        Source
	action        Action
	dialog        DialogMode
	draft         Record
	editing       Record
	pendingDelete string
	confirming    bool
	errors        map[string]string
	seq           uint64 // token of the latest list
	notice        *Notice
}

func NewEngine(ent Entity, v *Validator, logger core.Logger, opts ...Option) *Engine {
	e := &Engine{
		entity:    ent,
		validator: v,
		logger:    logger,
		now:       time.Now,
		window:    Window{Current: 1, PerPage: ent.perPage()},
		source:    SourceRemote,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Entity() Entity { return e.entity }

// Load lists the current page.
func (e *Engine) Load(ctx context.Context) {
	e.list(ctx)
}

// SetPage moves to page n, bounded to the known page count, and lists it.
func (e *Engine) SetPage(ctx context.Context, n int) {
	e.mu.Lock()
	e.window.Current = e.window.Clamp(n)
	e.mu.Unlock()
	e.list(ctx)
}

func (e *Engine) NextPage(ctx context.Context) {
	e.mu.Lock()
	n := e.window.Current + 1
	e.mu.Unlock()
	e.SetPage(ctx, n)
}

func (e *Engine) PrevPage(ctx context.Context) {
	e.mu.Lock()
	n := e.window.Current - 1
	e.mu.Unlock()
	e.SetPage(ctx, n)
}

func (e *Engine) list(ctx context.Context) {
	for e.listPage(ctx) {
	}
}

// listPage lists the current page. It reports whether the page is now past the last
// page and was moved back, so that the caller lists again.
func (e *Engine) listPage(ctx context.Context) bool {
	e.mu.Lock()
	e.seq++
	token := e.seq
	page := e.window.Page()
	e.action = ActionLoading
	e.mu.Unlock()

	res, err := e.entity.Gateway.List(ctx, page)

	e.mu.Lock()
	defer e.mu.Unlock()
	if token != e.seq {
		return false // superseded by a newer list or a local patch
	}
	if e.action == ActionLoading {
		e.action = ActionNone
	}

	if err != nil {
		e.logger.Error(fmt.Sprintf("listing %s: %v", e.entity.Plural, err), err)
		e.records = cloneAll(e.entity.Samples)
		e.window.Total = len(e.entity.Samples)
		e.window.Current = 1
		e.source = SourceFallback
		return false
	}
	e.records = cloneAll(res.Items)
	e.window.Total = res.Total
	e.source = SourceRemote

	// rows were removed behind the current page
	if last := e.window.TotalPages(); e.window.Current > last {
		e.window.Current = last
		return true
	}
	return false
}

// OpenAdd opens the add dialog with an empty draft.
func (e *Engine) OpenAdd() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.action != ActionNone && e.action != ActionLoading {
		return ErrBusy
	}
	e.reset()
	e.dialog = DialogAdd
	e.draft = make(Record)
	return nil
}

// OpenEdit opens the edit dialog with a full copy of the record id.
func (e *Engine) OpenEdit(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.action != ActionNone && e.action != ActionLoading {
		return ErrBusy
	}
	rec, ok := e.find(id)
	if !ok {
		return errors.Wrapf(ErrNotFound, "editing %s %q", e.entity.Name, id)
	}
	e.reset()
	e.dialog = DialogEdit
	e.draft = rec.Clone()
	e.editing = rec.Clone()
	return nil
}

// SetField sets one form field of the open draft.
func (e *Engine) SetField(key string, value interface{}) error {
	return e.SetFields(Record{key: value})
}

// SetFields merges fields into the open draft. Only form columns may be set.
func (e *Engine) SetFields(fields Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dialog == DialogNone {
		return ErrNoDialog
	}
	form := e.entity.Schema.Form()
	for k := range fields {
		if _, ok := form.Column(k); !ok {
			return errors.Wrap(ErrUnknownKey, k)
		}
	}
	e.draft = e.draft.Merge(fields)
	return nil
}

// Submit validates the draft and creates or updates the record.
//
// An invalid draft keeps the dialog open and returns a *core.ValidationError.
// Transport failures are absorbed: the dialog closes and a local patch is applied.
func (e *Engine) Submit(ctx context.Context) error {
	e.mu.Lock()
	if e.dialog == DialogNone {
		e.mu.Unlock()
		return ErrNoDialog
	}
	if e.action != ActionNone && e.action != ActionLoading {
		e.mu.Unlock()
		return ErrBusy
	}

	e.errors = nil
	now := e.now()
	mode := e.dialog
	if mode == DialogAdd {
		e.draft = e.entity.ApplyDefaults(e.draft, now)
	}
	draft := e.draft.Clone()

	if verr := e.validator.Validate(e.entity.Schema, draft); verr != nil {
		e.errors = verr.FieldMap()
		e.mu.Unlock()
		return verr
	}

	var id string
	action := ActionAdding
	if mode == DialogEdit {
		id = e.editing.ID()
		action = ActionEditing
	}
	e.action = action
	e.mu.Unlock()

	var err error
	if mode == DialogAdd {
		_, err = e.entity.Gateway.Create(ctx, Payload(e.entity.Schema, draft))
	} else {
		err = e.entity.Gateway.Update(ctx, id, Payload(e.entity.Schema, draft))
	}

	e.mu.Lock()
	e.action = ActionNone
	e.reset()
	if err != nil {
		e.logger.Error(fmt.Sprintf("%s %s: %v", action, e.entity.Name, err), err)
		e.setNotice(e.entity.notice(action, true))
		if mode == DialogAdd {
			e.records = append(e.records, e.stamp(draft, now))
		} else {
			e.splice(id, draft)
		}
		e.source = SourceFallback
		e.seq++ // discard lists started before the patch
		e.mu.Unlock()
		return nil
	}
	e.setNotice(e.entity.notice(action, false))
	e.mu.Unlock()

	e.list(ctx)
	return nil
}

// RequestDelete asks for confirmation before deleting id. No call is made.
func (e *Engine) RequestDelete(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.action != ActionNone && e.action != ActionLoading {
		return ErrBusy
	}
	e.reset()
	e.pendingDelete = id
	e.confirming = true
	return nil
}

// ConfirmDelete deletes the pending id. On failure the id is filtered out locally.
func (e *Engine) ConfirmDelete(ctx context.Context) error {
	e.mu.Lock()
	if !e.confirming {
		e.mu.Unlock()
		return ErrNoDelete
	}
	if e.action != ActionNone && e.action != ActionLoading {
		e.mu.Unlock()
		return ErrBusy
	}
	id := e.pendingDelete
	e.action = ActionDeleting
	e.mu.Unlock()

	err := e.entity.Gateway.Delete(ctx, id)

	e.mu.Lock()
	e.action = ActionNone
	e.reset()
	if err != nil {
		e.logger.Error(fmt.Sprintf("deleting %s: %v", e.entity.Name, err), err)
		e.setNotice(e.entity.notice(ActionDeleting, true))
		e.remove(id)
		e.source = SourceFallback
		e.seq++
		e.mu.Unlock()
		return nil
	}
	e.setNotice(e.entity.notice(ActionDeleting, false))
	e.mu.Unlock()

	e.list(ctx)
	return nil
}

// Cancel closes any dialog or confirmation without side effects.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

// TakeNotice returns the pending notice once.
func (e *Engine) TakeNotice() *Notice {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.notice
	e.notice = nil
	return n
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		State:         e.state(),
		Action:        e.action,
		LoadingText:   e.entity.LoadingText(e.action),
		Dialog:        e.dialog,
		Records:       cloneAll(e.records),
		Window:        e.window,
		Source:        e.source,
		Draft:         e.draft.Clone(),
		Editing:       e.editing.Clone(),
		PendingDelete: e.pendingDelete,
	}
	if len(e.errors) > 0 {
		snap.Errors = make(map[string]string, len(e.errors))
		for k, v := range e.errors {
			snap.Errors[k] = v
		}
	}
	return snap
}

func (e *Engine) state() State {
	switch {
	case e.action != ActionNone:
		return StateLoading
	case e.dialog != DialogNone:
		return StateDialogOpen
	case e.confirming:
		return StateDeleteConfirm
	}
	return StateIdle
}

// reset clears the dialog, draft, editing row, pending delete and errors.
func (e *Engine) reset() {
	e.dialog = DialogNone
	e.draft = nil
	e.editing = nil
	e.pendingDelete = ""
	e.confirming = false
	e.errors = nil
}

func (e *Engine) setNotice(n Notice) {
	e.notice = &n
}

func (e *Engine) find(id string) (Record, bool) {
	for _, r := range e.records {
		if r.ID() == id {
			return r, true
		}
	}
	return nil, false
}

func (e *Engine) stamp(draft Record, now time.Time) Record {
	rec := draft.Clone()
	if rec.ID() == "" {
		rec[IDKey] = strconv.FormatInt(now.UnixMilli(), 10)
	}
	if e.entity.Stamp != nil {
		e.entity.Stamp(rec, now)
	}
	return rec
}

func (e *Engine) splice(id string, patch Record) {
	for i, r := range e.records {
		if r.ID() == id {
			e.records[i] = r.Merge(patch)
			return
		}
	}
}

func (e *Engine) remove(id string) {
	kept := e.records[:0]
	for _, r := range e.records {
		if r.ID() != id {
			kept = append(kept, r)
		}
	}
	e.records = kept
}
