// Package editor holds the in-memory editing session of one article: the
// block document, its undo history, selection and focus, and the debounced
// autosave that hands the document to a Saver.
package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"kbedit/internal/domain"
	"kbedit/internal/ulid"
)

const (
	EventDirty      = "editor:dirty"
	EventSaved      = "editor:saved"
	EventSaveFailed = "editor:save-failed"
)

// Saver persists the block sequence of a session.
type Saver interface {
	Save(ctx context.Context, blocks []domain.Block) error
}

type SaverFunc func(ctx context.Context, blocks []domain.Block) error

func (f SaverFunc) Save(ctx context.Context, blocks []domain.Block) error { return f(ctx, blocks) }

// Emitter receives editor lifecycle events.
type Emitter interface {
	Emit(ctx context.Context, event string, data any)
}

// SaveEvent is the payload of EventSaved and EventSaveFailed.
type SaveEvent struct {
	Blocks int    `json:"blocks"`
	Error  string `json:"error,omitempty"`
}

// Editor is one editing session. All methods are safe for concurrent use;
// autosaves run on a timer goroutine.
//
// The Saver runs without the state lock held, so it may call editing
// methods, but it must not call Save or Close.
type Editor struct {
	mu      sync.Mutex
	state   *State
	history *History
	rev     uint64
	closed  bool

	saveMu sync.Mutex

	saver         Saver
	emitter       Emitter
	logger        *zap.Logger
	ctx           context.Context
	now           func() time.Time
	autosaveDelay time.Duration
	autosave      *Autosaver
}

// New opens a session over blocks. An empty sequence yields a document with
// one empty paragraph.
func New(blocks []domain.Block, opts ...Option) *Editor {
	e := &Editor{
		state:         newState(blocks),
		history:       NewHistory(DefaultHistoryLimit),
		logger:        zap.NewNop(),
		ctx:           context.Background(),
		now:           func() time.Time { return time.Now().UTC() },
		autosaveDelay: DefaultAutosaveDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.autosave = NewAutosaver(e.autosaveDelay, e.autosaveFire)
	return e
}

// ─────────────────────────────────────────────────────────────
// Editing operations
// ─────────────────────────────────────────────────────────────

// AddBlock inserts a new block of type t (at the end unless At is given),
// focuses it, and returns its id.
func (e *Editor) AddBlock(t domain.BlockType, opts ...AddOption) (string, error) {
	var cfg addConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	b, err := domain.NewDefaultBlock(t)
	if err != nil {
		return "", err
	}
	if cfg.content != nil {
		b.Content = cfg.content
	}
	if cfg.meta != nil {
		b.Meta = cfg.meta
	}
	if err := domain.Validate(b); err != nil {
		return "", err
	}
	b = b.Clone()

	e.mu.Lock()
	cur := e.state
	index := len(cur.Blocks)
	if cfg.hasIndex {
		index = clamp(cfg.index, 0, len(cur.Blocks))
	}
	next := cur.withBlocks(insertAt(cur.Blocks, index, b))
	next.FocusedBlockID = b.ID
	dirtied := e.commitLocked(next, newCommand(CommandAdd, b.ID, AddData{Index: index, Block: b}, e.now()))
	e.mu.Unlock()

	e.afterMutation(dirtied)
	return b.ID, nil
}

// UpdateBlock merges the non-nil parts of p into the block and refreshes
// its UpdatedAt. An unknown id is a no-op.
func (e *Editor) UpdateBlock(id string, p domain.Patch) error {
	e.mu.Lock()
	cur := e.state
	idx := cur.indexOf(id)
	if idx < 0 {
		e.mu.Unlock()
		return nil
	}
	before := cur.Blocks[idx]
	if err := domain.CheckPatch(before.Type, p); err != nil {
		e.mu.Unlock()
		return err
	}
	after := before.Apply(p, e.now())
	next := cur.withBlocks(replaceID(cur.Blocks, after))
	dirtied := e.commitLocked(next, newCommand(CommandUpdate, id, UpdateData{Before: before, After: after}, e.now()))
	e.mu.Unlock()

	e.afterMutation(dirtied)
	return nil
}

// DeleteBlock removes the block. Removing the last block leaves a fresh
// empty paragraph behind.
func (e *Editor) DeleteBlock(id string) bool {
	e.mu.Lock()
	cur := e.state
	idx := cur.indexOf(id)
	if idx < 0 {
		e.mu.Unlock()
		return false
	}
	data := RemoveData{Index: idx, Block: cur.Blocks[idx]}
	blocks := removeAt(cur.Blocks, idx)
	if len(blocks) == 0 {
		repl := domain.NewParagraph("")
		data.Replacement = &repl
		blocks = []domain.Block{repl}
	}
	next := cur.withBlocks(blocks)
	next.SelectedBlockIDs = removeString(cur.SelectedBlockIDs, id)
	if next.FocusedBlockID == id {
		next.FocusedBlockID = ""
	}
	dirtied := e.commitLocked(next, newCommand(CommandRemove, id, data, e.now()))
	e.mu.Unlock()

	e.afterMutation(dirtied)
	return true
}

// DuplicateBlock inserts a deep copy of the block right after it, focuses the
// copy and returns its id, or "" if id is unknown.
func (e *Editor) DuplicateBlock(id string) string {
	e.mu.Lock()
	cur := e.state
	idx := cur.indexOf(id)
	if idx < 0 {
		e.mu.Unlock()
		return ""
	}
	now := e.now()
	clone := cur.Blocks[idx].Clone()
	clone.ID = ulid.GenerateID()
	clone.CreatedAt = now
	clone.UpdatedAt = now

	next := cur.withBlocks(insertAt(cur.Blocks, idx+1, clone))
	next.FocusedBlockID = clone.ID
	data := DuplicateData{SourceID: id, Index: idx + 1, Block: clone}
	dirtied := e.commitLocked(next, newCommand(CommandDuplicate, clone.ID, data, now))
	e.mu.Unlock()

	e.afterMutation(dirtied)
	return clone.ID
}

// MoveBlock moves the block at from so that it ends up at index to. Equal or
// out-of-range indices are a no-op.
func (e *Editor) MoveBlock(from, to int) bool {
	e.mu.Lock()
	cur := e.state
	n := len(cur.Blocks)
	if from == to || from < 0 || from >= n || to < 0 || to >= n {
		e.mu.Unlock()
		return false
	}
	id := cur.Blocks[from].ID
	next := cur.withBlocks(moveIndex(cur.Blocks, from, to))
	dirtied := e.commitLocked(next, newCommand(CommandMove, id, MoveData{From: from, To: to}, e.now()))
	e.mu.Unlock()

	e.afterMutation(dirtied)
	return true
}

// SelectBlock replaces the selection with id and focuses it, or with multi
// toggles id's membership in the selection.
func (e *Editor) SelectBlock(id string, multi bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.state
	if cur.indexOf(id) < 0 {
		return
	}
	next := cur.with()
	switch {
	case !multi:
		next.SelectedBlockIDs = []string{id}
		next.FocusedBlockID = id
	case cur.isSelected(id):
		next.SelectedBlockIDs = removeString(cur.SelectedBlockIDs, id)
	default:
		next.SelectedBlockIDs = append(append([]string(nil), cur.SelectedBlockIDs...), id)
	}
	e.state = next
}

// ClearSelection empties the selection and clears focus.
func (e *Editor) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.state.with()
	next.SelectedBlockIDs = nil
	next.FocusedBlockID = ""
	e.state = next
}

func (e *Editor) FocusBlock(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.indexOf(id) < 0 {
		return
	}
	next := e.state.with()
	next.FocusedBlockID = id
	e.state = next
}

// ─────────────────────────────────────────────────────────────
// Undo / redo
// ─────────────────────────────────────────────────────────────

func (e *Editor) Undo() bool {
	e.mu.Lock()
	cmd, ok := e.history.Undo()
	if !ok {
		e.mu.Unlock()
		return false
	}
	dirtied := e.replaceLocked(e.state.withBlocks(invert(e.state.Blocks, cmd)).repair())
	e.mu.Unlock()

	e.logger.Debug("undo", zap.String("kind", string(cmd.Kind)), zap.String("block", cmd.BlockID))
	e.afterMutation(dirtied)
	return true
}

func (e *Editor) Redo() bool {
	e.mu.Lock()
	cmd, ok := e.history.Redo()
	if !ok {
		e.mu.Unlock()
		return false
	}
	dirtied := e.replaceLocked(e.state.withBlocks(apply(e.state.Blocks, cmd)).repair())
	e.mu.Unlock()

	e.logger.Debug("redo", zap.String("kind", string(cmd.Kind)), zap.String("block", cmd.BlockID))
	e.afterMutation(dirtied)
	return true
}

func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// ─────────────────────────────────────────────────────────────
// Saving
// ─────────────────────────────────────────────────────────────

// Save cancels any pending autosave and saves the document now.
func (e *Editor) Save(ctx context.Context) error {
	e.autosave.Cancel()
	return e.flush(ctx, true)
}

// Close stops autosave and flushes unsaved changes. The editor stays
// readable; later edits are no longer autosaved.
func (e *Editor) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.autosave.Stop()
	return e.flush(ctx, false)
}

// AutosavePending reports whether an autosave is scheduled.
func (e *Editor) AutosavePending() bool {
	return e.autosave.Pending()
}

func (e *Editor) autosaveFire() {
	if err := e.flush(e.ctx, false); err != nil {
		e.logger.Warn("autosave failed", zap.Error(err))
	}
}

// flush hands a snapshot of the blocks to the saver. The dirty flag is only
// cleared when no edit landed while the saver ran.
func (e *Editor) flush(ctx context.Context, force bool) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	if !force && !e.state.HasUnsavedChanges {
		e.mu.Unlock()
		return nil
	}
	blocks := cloneBlocks(e.state.Blocks)
	rev := e.rev
	e.mu.Unlock()

	if e.saver != nil {
		if err := e.saver.Save(ctx, blocks); err != nil {
			e.logger.Error("save failed", zap.Int("blocks", len(blocks)), zap.Error(err))
			e.emit(ctx, EventSaveFailed, SaveEvent{Blocks: len(blocks), Error: err.Error()})
			return fmt.Errorf("save document: %w", err)
		}
	}

	e.mu.Lock()
	if e.rev == rev && e.state.HasUnsavedChanges {
		e.state = e.state.withDirty(false)
	}
	e.mu.Unlock()

	e.logger.Debug("saved", zap.Int("blocks", len(blocks)))
	e.emit(ctx, EventSaved, SaveEvent{Blocks: len(blocks)})
	return nil
}

// ─────────────────────────────────────────────────────────────
// Readers
// ─────────────────────────────────────────────────────────────

// Blocks returns a deep copy of the document.
func (e *Editor) Blocks() []domain.Block {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneBlocks(e.state.Blocks)
}

func (e *Editor) Block(id string) (domain.Block, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := e.state.indexOf(id)
	if idx < 0 {
		return domain.Block{}, false
	}
	return e.state.Blocks[idx].Clone(), true
}

// IndexOf returns the position of the block, or -1.
func (e *Editor) IndexOf(id string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.indexOf(id)
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func (e *Editor) HasUnsavedChanges() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.HasUnsavedChanges
}

func (e *Editor) BlockCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.state.Blocks)
}

func (e *Editor) SelectionCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.state.SelectedBlockIDs)
}

func (e *Editor) FocusedBlockID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.FocusedBlockID
}

// HistoryView is a read-only snapshot of the undo stack.
type HistoryView struct {
	Commands []Command `json:"commands"`
	Cursor   int       `json:"cursor"`
	Limit    int       `json:"limit"`
}

func (e *Editor) History() HistoryView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return HistoryView{
		Commands: e.history.Commands(),
		Cursor:   e.history.Cursor(),
		Limit:    e.history.Limit(),
	}
}

// ─────────────────────────────────────────────────────────────
// Internal helpers
// ─────────────────────────────────────────────────────────────

// commitLocked publishes next and records cmd. It reports whether the
// document went from clean to dirty.
func (e *Editor) commitLocked(next *State, cmd Command) bool {
	e.history.Execute(cmd)
	return e.replaceLocked(next)
}

func (e *Editor) replaceLocked(next *State) bool {
	wasDirty := e.state.HasUnsavedChanges
	next.HasUnsavedChanges = true
	e.state = next
	e.rev++
	return !wasDirty
}

func (e *Editor) afterMutation(dirtied bool) {
	e.autosave.Trigger()
	if dirtied {
		e.emit(e.ctx, EventDirty, nil)
	}
}

func (e *Editor) emit(ctx context.Context, event string, data any) {
	if e.emitter != nil {
		e.emitter.Emit(ctx, event, data)
	}
}
