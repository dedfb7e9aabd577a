package editor

import "kbedit/internal/domain"

// CellPos addresses a table cell. Row -1 is the header row.
type CellPos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// NextCell returns the cell after pos in reading order, or the one before it
// when backward is set. Moving forward from the last cell appends an empty
// row (recorded as an update) and lands on its first cell. Moving backward
// from the first cell stays put. ok is false when id is not a table.
func (e *Editor) NextCell(id string, pos CellPos, backward bool) (next CellPos, ok bool, err error) {
	b, found := e.Block(id)
	if !found || b.Type != domain.BlockTypeTable {
		return pos, false, nil
	}
	tbl, _ := b.Content.(domain.TableContent)
	width := tableWidth(tbl)
	if width == 0 {
		return pos, false, nil
	}

	pos.Row = clamp(pos.Row, -1, len(tbl.Rows)-1)
	pos.Col = clamp(pos.Col, 0, width-1)
	linear := (pos.Row+1)*width + pos.Col

	if backward {
		if linear == 0 {
			return pos, true, nil
		}
		linear--
		return CellPos{Row: linear/width - 1, Col: linear % width}, true, nil
	}

	linear++
	if linear < (len(tbl.Rows)+1)*width {
		return CellPos{Row: linear/width - 1, Col: linear % width}, true, nil
	}

	grown := tbl
	grown.Rows = append(grown.Rows, make([]string, width))
	if err := e.UpdateBlock(id, domain.Patch{Content: grown}); err != nil {
		return pos, false, err
	}
	return CellPos{Row: len(tbl.Rows), Col: 0}, true, nil
}

// SetCell writes one cell, growing the table as needed.
func (e *Editor) SetCell(id string, pos CellPos, value string) error {
	b, found := e.Block(id)
	if !found || b.Type != domain.BlockTypeTable {
		return nil
	}
	tbl, _ := b.Content.(domain.TableContent)
	if pos.Row < -1 || pos.Col < 0 {
		return nil
	}
	if pos.Row == -1 {
		for len(tbl.Headers) <= pos.Col {
			tbl.Headers = append(tbl.Headers, "")
		}
		tbl.Headers[pos.Col] = value
	} else {
		for len(tbl.Rows) <= pos.Row {
			tbl.Rows = append(tbl.Rows, make([]string, tableWidth(tbl)))
		}
		for len(tbl.Rows[pos.Row]) <= pos.Col {
			tbl.Rows[pos.Row] = append(tbl.Rows[pos.Row], "")
		}
		tbl.Rows[pos.Row][pos.Col] = value
	}
	return e.UpdateBlock(id, domain.Patch{Content: tbl})
}

func tableWidth(tbl domain.TableContent) int {
	width := len(tbl.Headers)
	for _, row := range tbl.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}
