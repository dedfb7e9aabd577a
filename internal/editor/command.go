package editor

import (
	"time"

	"github.com/google/uuid"

	"kbedit/internal/domain"
)

type CommandKind string

const (
	CommandAdd       CommandKind = "add"
	CommandUpdate    CommandKind = "update"
	CommandRemove    CommandKind = "remove"
	CommandMove      CommandKind = "move"
	CommandDuplicate CommandKind = "duplicate"
)

// Command records one document mutation. Data holds enough of the before
// and after state to both revert and replay it.
type Command struct {
	ID        string      `json:"id"`
	Kind      CommandKind `json:"kind"`
	BlockID   string      `json:"blockId"`
	Data      CommandData `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type CommandData interface {
	isCommandData()
}

type AddData struct {
	Index int          `json:"index"`
	Block domain.Block `json:"block"`
}

type UpdateData struct {
	Before domain.Block `json:"before"`
	After  domain.Block `json:"after"`
}

// RemoveData keeps the removed block and, when the removal emptied the
// document, the paragraph synthesized in its place.
type RemoveData struct {
	Index       int           `json:"index"`
	Block       domain.Block  `json:"block"`
	Replacement *domain.Block `json:"replacement,omitempty"`
}

type MoveData struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type DuplicateData struct {
	SourceID string       `json:"sourceId"`
	Index    int          `json:"index"`
	Block    domain.Block `json:"block"`
}

func (AddData) isCommandData()       {}
func (UpdateData) isCommandData()    {}
func (RemoveData) isCommandData()    {}
func (MoveData) isCommandData()      {}
func (DuplicateData) isCommandData() {}

func newCommand(kind CommandKind, blockID string, data CommandData, now time.Time) Command {
	return Command{
		ID:        uuid.NewString(),
		Kind:      kind,
		BlockID:   blockID,
		Data:      data,
		Timestamp: now,
	}
}

// apply replays cmd on blocks.
func apply(blocks []domain.Block, cmd Command) []domain.Block {
	switch d := cmd.Data.(type) {
	case AddData:
		return insertAt(blocks, d.Index, d.Block)
	case UpdateData:
		return replaceID(blocks, d.After)
	case RemoveData:
		out := removeID(blocks, d.Block.ID)
		if len(out) == 0 && d.Replacement != nil {
			out = []domain.Block{*d.Replacement}
		}
		return out
	case MoveData:
		return moveIndex(blocks, d.From, d.To)
	case DuplicateData:
		return insertAt(blocks, d.Index, d.Block)
	}
	return blocks
}

// invert reverts cmd on blocks.
func invert(blocks []domain.Block, cmd Command) []domain.Block {
	switch d := cmd.Data.(type) {
	case AddData:
		return removeID(blocks, d.Block.ID)
	case UpdateData:
		return replaceID(blocks, d.Before)
	case RemoveData:
		out := blocks
		if d.Replacement != nil {
			out = removeID(out, d.Replacement.ID)
		}
		return insertAt(out, d.Index, d.Block)
	case MoveData:
		return moveIndex(blocks, d.To, d.From)
	case DuplicateData:
		return removeID(blocks, d.Block.ID)
	}
	return blocks
}
