package editor_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbedit/internal/editor"
)

func cmd(n int) editor.Command {
	return editor.Command{ID: strconv.Itoa(n), Kind: editor.CommandMove, Data: editor.MoveData{From: 0, To: 1}}
}

func TestHistory_UndoRedoWalksCursor(t *testing.T) {
	h := editor.NewHistory(0)
	assert.Equal(t, editor.DefaultHistoryLimit, h.Limit())
	assert.False(t, h.CanUndo())

	_, ok := h.Undo()
	assert.False(t, ok)

	h.Execute(cmd(1))
	h.Execute(cmd(2))
	assert.Equal(t, 1, h.Cursor())

	c, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, "2", c.ID)
	assert.True(t, h.CanRedo())

	c, ok = h.Redo()
	require.True(t, ok)
	assert.Equal(t, "2", c.ID)

	_, ok = h.Redo()
	assert.False(t, ok, "redo at the end of history is a no-op")
}

func TestHistory_ExecuteDiscardsRedoBranch(t *testing.T) {
	h := editor.NewHistory(10)
	h.Execute(cmd(1))
	h.Execute(cmd(2))
	h.Execute(cmd(3))
	h.Undo()
	h.Undo()

	h.Execute(cmd(4))
	ids := []string{}
	for _, c := range h.Commands() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"1", "4"}, ids)
	assert.False(t, h.CanRedo())
}

func TestHistory_EvictsOldestBeyondLimit(t *testing.T) {
	h := editor.NewHistory(editor.DefaultHistoryLimit)
	for i := 1; i <= 51; i++ {
		h.Execute(cmd(i))
	}
	require.Equal(t, 50, h.Len())
	assert.Equal(t, "2", h.Commands()[0].ID)
	assert.Equal(t, 49, h.Cursor())

	undone := 0
	for i := 0; i < 60; i++ {
		if _, ok := h.Undo(); ok {
			undone++
		}
	}
	assert.Equal(t, 50, undone)
}

func TestHistory_Clear(t *testing.T) {
	h := editor.NewHistory(5)
	h.Execute(cmd(1))
	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, -1, h.Cursor())
}
