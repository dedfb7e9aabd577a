package editor

// DefaultHistoryLimit bounds the undo stack.
const DefaultHistoryLimit = 50

// History is a bounded linear undo stack. Cursor points at the last applied
// command, -1 when nothing can be undone. It is not safe for concurrent use;
// the editor guards it with its own lock.
type History struct {
	limit    int
	commands []Command
	cursor   int
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit, cursor: -1}
}

// Execute records cmd, dropping any undone commands past the cursor and
// evicting the oldest entry once the limit is exceeded.
func (h *History) Execute(cmd Command) {
	h.commands = append(h.commands[:h.cursor+1], cmd)
	h.cursor++
	if len(h.commands) > h.limit {
		drop := len(h.commands) - h.limit
		h.commands = append([]Command(nil), h.commands[drop:]...)
		h.cursor -= drop
	}
}

// Undo returns the command to revert and steps the cursor back.
func (h *History) Undo() (Command, bool) {
	if h.cursor < 0 {
		return Command{}, false
	}
	cmd := h.commands[h.cursor]
	h.cursor--
	return cmd, true
}

// Redo steps the cursor forward and returns the command to replay.
func (h *History) Redo() (Command, bool) {
	if h.cursor >= len(h.commands)-1 {
		return Command{}, false
	}
	h.cursor++
	return h.commands[h.cursor], true
}

func (h *History) CanUndo() bool { return h.cursor >= 0 }
func (h *History) CanRedo() bool { return h.cursor < len(h.commands)-1 }
func (h *History) Len() int      { return len(h.commands) }
func (h *History) Cursor() int   { return h.cursor }
func (h *History) Limit() int    { return h.limit }

// Commands returns a copy of the recorded commands, oldest first.
func (h *History) Commands() []Command {
	return append([]Command(nil), h.commands...)
}

func (h *History) Clear() {
	h.commands = nil
	h.cursor = -1
}
