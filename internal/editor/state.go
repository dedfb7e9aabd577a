package editor

import (
	"kbedit/internal/domain"
	"kbedit/internal/ulid"
)

// State is one immutable snapshot of an editing session. The editor never
// mutates a State after publishing it; every transition builds a new one.
type State struct {
	Blocks            []domain.Block `json:"blocks"`
	FocusedBlockID    string         `json:"focusedBlockId,omitempty"`
	SelectedBlockIDs  []string       `json:"selectedBlockIds,omitempty"`
	HasUnsavedChanges bool           `json:"hasUnsavedChanges"`
}

// newState seeds a session. Blocks with a missing or repeated id get a
// fresh one.
func newState(blocks []domain.Block) *State {
	s := &State{Blocks: cloneBlocks(blocks)}
	seen := make(map[string]struct{}, len(s.Blocks))
	for i := range s.Blocks {
		if _, dup := seen[s.Blocks[i].ID]; dup || s.Blocks[i].ID == "" {
			s.Blocks[i].ID = ulid.GenerateID()
		}
		seen[s.Blocks[i].ID] = struct{}{}
	}
	return s.repair()
}

// Clone returns a deep copy safe to hand to callers.
func (s *State) Clone() State {
	return State{
		Blocks:            cloneBlocks(s.Blocks),
		FocusedBlockID:    s.FocusedBlockID,
		SelectedBlockIDs:  append([]string(nil), s.SelectedBlockIDs...),
		HasUnsavedChanges: s.HasUnsavedChanges,
	}
}

func (s *State) indexOf(id string) int {
	for i := range s.Blocks {
		if s.Blocks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) isSelected(id string) bool {
	for _, sel := range s.SelectedBlockIDs {
		if sel == id {
			return true
		}
	}
	return false
}

// with returns a shallow copy for the next transition. Slices are shared
// with s and must be replaced, not written to.
func (s *State) with() *State {
	next := *s
	return &next
}

func (s *State) withBlocks(blocks []domain.Block) *State {
	next := s.with()
	next.Blocks = blocks
	return next
}

func (s *State) withDirty(dirty bool) *State {
	next := s.with()
	next.HasUnsavedChanges = dirty
	return next
}

// repair restores the document invariants: at least one block, and focus
// and selection only naming blocks that exist.
func (s *State) repair() *State {
	next := s.with()
	if len(next.Blocks) == 0 {
		next.Blocks = []domain.Block{domain.NewParagraph("")}
	}

	present := make(map[string]struct{}, len(next.Blocks))
	for _, b := range next.Blocks {
		present[b.ID] = struct{}{}
	}
	if _, ok := present[next.FocusedBlockID]; !ok {
		next.FocusedBlockID = ""
	}
	if len(next.SelectedBlockIDs) > 0 {
		kept := make([]string, 0, len(next.SelectedBlockIDs))
		for _, id := range next.SelectedBlockIDs {
			if _, ok := present[id]; ok {
				kept = append(kept, id)
			}
		}
		next.SelectedBlockIDs = kept
	}
	return next
}

func cloneBlocks(blocks []domain.Block) []domain.Block {
	out := make([]domain.Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
	}
	return out
}

// ── Slice transitions ──────────────────────────────────────
// All helpers return fresh slices and leave their input untouched.

func insertAt(blocks []domain.Block, index int, b domain.Block) []domain.Block {
	index = clamp(index, 0, len(blocks))
	out := make([]domain.Block, 0, len(blocks)+1)
	out = append(out, blocks[:index]...)
	out = append(out, b)
	return append(out, blocks[index:]...)
}

func removeAt(blocks []domain.Block, index int) []domain.Block {
	out := make([]domain.Block, 0, len(blocks)-1)
	out = append(out, blocks[:index]...)
	return append(out, blocks[index+1:]...)
}

func removeID(blocks []domain.Block, id string) []domain.Block {
	for i := range blocks {
		if blocks[i].ID == id {
			return removeAt(blocks, i)
		}
	}
	return blocks
}

func replaceID(blocks []domain.Block, b domain.Block) []domain.Block {
	out := make([]domain.Block, len(blocks))
	copy(out, blocks)
	for i := range out {
		if out[i].ID == b.ID {
			out[i] = b
			break
		}
	}
	return out
}

func moveIndex(blocks []domain.Block, from, to int) []domain.Block {
	if from < 0 || from >= len(blocks) {
		return blocks
	}
	b := blocks[from]
	rest := removeAt(blocks, from)
	return insertAt(rest, to, b)
}

func removeString(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, s := range ids {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
