package editor

import (
	"context"
	"strings"
)

type Action string

const (
	ActionNone            Action = ""
	ActionUndo            Action = "undo"
	ActionRedo            Action = "redo"
	ActionSave            Action = "save"
	ActionOpenBlockPicker Action = "open-block-picker"
	ActionMoveCell        Action = "move-cell"
	ActionDeleteBlock     Action = "delete-block"
)

// KeyEvent is a key press inside the editing surface. BlockID names the
// block holding the caret; Cell is set when the caret is in a table cell.
type KeyEvent struct {
	Key     string   `json:"key"`
	Ctrl    bool     `json:"ctrl,omitempty"`
	Meta    bool     `json:"meta,omitempty"`
	Shift   bool     `json:"shift,omitempty"`
	Alt     bool     `json:"alt,omitempty"`
	BlockID string   `json:"blockId,omitempty"`
	Cell    *CellPos `json:"cell,omitempty"`
}

// KeyResult tells the surface what happened. PreventDefault means the native
// behaviour of the key must be suppressed.
type KeyResult struct {
	Action         Action   `json:"action"`
	PreventDefault bool     `json:"preventDefault"`
	Applied        bool     `json:"applied"`
	FocusBlockID   string   `json:"focusBlockId,omitempty"`
	Cell           *CellPos `json:"cell,omitempty"`
}

// HandleKey maps a key press to an editing operation and runs it. Keys with
// no binding return ActionNone.
func (e *Editor) HandleKey(ctx context.Context, ev KeyEvent) (KeyResult, error) {
	primary := ev.Ctrl || ev.Meta
	key := ev.Key
	if len(key) == 1 {
		key = strings.ToLower(key)
	}

	if primary && !ev.Alt {
		switch {
		case key == "z" && ev.Shift, key == "y":
			return KeyResult{Action: ActionRedo, PreventDefault: true, Applied: e.Redo()}, nil
		case key == "z":
			return KeyResult{Action: ActionUndo, PreventDefault: true, Applied: e.Undo()}, nil
		case key == "s":
			err := e.Save(ctx)
			return KeyResult{Action: ActionSave, PreventDefault: true, Applied: err == nil}, err
		}
		return KeyResult{}, nil
	}

	switch key {
	case "/":
		if b, ok := e.Block(ev.BlockID); ok && b.IsEmptyParagraph() {
			return KeyResult{Action: ActionOpenBlockPicker, PreventDefault: true, Applied: true}, nil
		}
	case "Tab":
		if ev.Cell == nil {
			break
		}
		pos, ok, err := e.NextCell(ev.BlockID, *ev.Cell, ev.Shift)
		if err != nil {
			return KeyResult{}, err
		}
		if ok {
			return KeyResult{Action: ActionMoveCell, PreventDefault: true, Applied: true, Cell: &pos}, nil
		}
	case "Backspace":
		return e.backspace(ev.BlockID), nil
	}
	return KeyResult{}, nil
}

func (e *Editor) backspace(id string) KeyResult {
	e.mu.Lock()
	idx := e.state.indexOf(id)
	if idx <= 0 || !e.state.Blocks[idx].IsEmptyParagraph() {
		e.mu.Unlock()
		return KeyResult{}
	}
	prev := e.state.Blocks[idx-1].ID
	e.mu.Unlock()

	if !e.DeleteBlock(id) {
		return KeyResult{}
	}
	e.FocusBlock(prev)
	return KeyResult{Action: ActionDeleteBlock, PreventDefault: true, Applied: true, FocusBlockID: prev}
}
