package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type BlockType string

const (
	BlockTypeParagraph BlockType = "paragraph"
	BlockTypeHeading   BlockType = "heading"
	BlockTypeQuote     BlockType = "quote"
	BlockTypeCode      BlockType = "code"
	BlockTypeChecklist BlockType = "checklist"
	BlockTypeCallout   BlockType = "callout"
	BlockTypeDivider   BlockType = "divider"
	BlockTypeImage     BlockType = "image"
	BlockTypeTable     BlockType = "table"
	BlockTypeEmbed     BlockType = "embed"
)

// Block is one typed unit of article content. Content and Meta hold the
// variant payloads; their concrete types are fixed by Type (see Validate).
type Block struct {
	ID        string    `json:"id"`
	Type      BlockType `json:"type"`
	Content   Content   `json:"content"`
	Meta      Meta      `json:"meta,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Content is the variant payload of a block. Divider blocks carry nil.
type Content interface {
	isContent()
	cloneContent() Content
}

// Meta is the variant presentation config of a block. Variants without
// presentation config carry nil.
type Meta interface {
	isMeta()
}

// ── Content variants ───────────────────────────────────────

// Text is the content of paragraph, heading, quote, code and callout blocks.
type Text string

type ChecklistItem struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

type Checklist []ChecklistItem

type ImageContent struct {
	Src     string `json:"src"`
	Alt     string `json:"alt"`
	Caption string `json:"caption"`
}

type TableContent struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

type EmbedContent struct {
	URL         string `json:"url"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (Text) isContent()         {}
func (Checklist) isContent()    {}
func (ImageContent) isContent() {}
func (TableContent) isContent() {}
func (EmbedContent) isContent() {}

func (t Text) cloneContent() Content { return t }

func (c Checklist) cloneContent() Content {
	out := make(Checklist, len(c))
	copy(out, c)
	return out
}

func (i ImageContent) cloneContent() Content { return i }

func (t TableContent) cloneContent() Content {
	out := TableContent{
		Headers: append([]string(nil), t.Headers...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

func (e EmbedContent) cloneContent() Content { return e }

// ── Meta variants ──────────────────────────────────────────

type HeadingMeta struct {
	Level int `json:"level"`
}

type CodeMeta struct {
	Language string `json:"language"`
}

type CalloutVariant string

const (
	CalloutInfo    CalloutVariant = "info"
	CalloutWarning CalloutVariant = "warning"
	CalloutSuccess CalloutVariant = "success"
	CalloutError   CalloutVariant = "error"
)

type CalloutMeta struct {
	Variant CalloutVariant `json:"variant"`
}

type ImageMeta struct {
	Alignment string `json:"alignment"`
	Size      string `json:"size"`
}

func (HeadingMeta) isMeta() {}
func (CodeMeta) isMeta()    {}
func (CalloutMeta) isMeta() {}
func (ImageMeta) isMeta()   {}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	out := b
	if b.Content != nil {
		out.Content = b.Content.cloneContent()
	}
	return out
}

// TextValue returns the string content of text-bearing blocks.
func (b Block) TextValue() (string, bool) {
	t, ok := b.Content.(Text)
	return string(t), ok
}

// IsEmptyParagraph reports whether b is a paragraph with no text.
func (b Block) IsEmptyParagraph() bool {
	if b.Type != BlockTypeParagraph {
		return false
	}
	text, _ := b.TextValue()
	return text == ""
}

// UnmarshalJSON decodes content and meta into the concrete variant types
// selected by the block's type.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        string          `json:"id"`
		Type      BlockType       `json:"type"`
		Content   json.RawMessage `json:"content"`
		Meta      json.RawMessage `json:"meta"`
		CreatedAt time.Time       `json:"createdAt"`
		UpdatedAt time.Time       `json:"updatedAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := ParseBlockType(string(raw.Type))
	if err != nil {
		return err
	}
	content, err := DecodeContent(t, raw.Content)
	if err != nil {
		return fmt.Errorf("block %s: %w", raw.ID, err)
	}
	meta, err := DecodeMeta(t, raw.Meta)
	if err != nil {
		return fmt.Errorf("block %s: %w", raw.ID, err)
	}
	*b = Block{
		ID:        raw.ID,
		Type:      t,
		Content:   content,
		Meta:      meta,
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.UpdatedAt,
	}
	return nil
}

// DecodeContent parses raw JSON into the content variant for t.
// Empty or null input yields nil.
func DecodeContent(t BlockType, raw json.RawMessage) (Content, error) {
	if isNull(raw) {
		return nil, nil
	}
	switch t {
	case BlockTypeParagraph, BlockTypeHeading, BlockTypeQuote, BlockTypeCode, BlockTypeCallout:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %s content must be a string", ErrInvalidContent, t)
		}
		return Text(s), nil
	case BlockTypeChecklist:
		var items Checklist
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: checklist content: %v", ErrInvalidContent, err)
		}
		return items, nil
	case BlockTypeImage:
		var img ImageContent
		if err := json.Unmarshal(raw, &img); err != nil {
			return nil, fmt.Errorf("%w: image content: %v", ErrInvalidContent, err)
		}
		return img, nil
	case BlockTypeTable:
		var tbl TableContent
		if err := json.Unmarshal(raw, &tbl); err != nil {
			return nil, fmt.Errorf("%w: table content: %v", ErrInvalidContent, err)
		}
		return tbl, nil
	case BlockTypeEmbed:
		var e EmbedContent
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("%w: embed content: %v", ErrInvalidContent, err)
		}
		return e, nil
	case BlockTypeDivider:
		return nil, fmt.Errorf("%w: divider has no content", ErrInvalidContent)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, t)
}

// DecodeMeta parses raw JSON into the meta variant for t.
// Empty or null input yields nil.
func DecodeMeta(t BlockType, raw json.RawMessage) (Meta, error) {
	if isNull(raw) {
		return nil, nil
	}
	var (
		m   Meta
		err error
	)
	switch t {
	case BlockTypeHeading:
		var hm HeadingMeta
		err = json.Unmarshal(raw, &hm)
		m = hm
	case BlockTypeCode:
		var cm CodeMeta
		err = json.Unmarshal(raw, &cm)
		m = cm
	case BlockTypeCallout:
		var cm CalloutMeta
		err = json.Unmarshal(raw, &cm)
		m = cm
	case BlockTypeImage:
		var im ImageMeta
		err = json.Unmarshal(raw, &im)
		m = im
	case BlockTypeParagraph, BlockTypeQuote, BlockTypeChecklist, BlockTypeDivider, BlockTypeTable, BlockTypeEmbed:
		// Older rows store "{}" for variants without meta.
		if string(raw) == "{}" {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s has no meta", ErrInvalidContent, t)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, t)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s meta: %v", ErrInvalidContent, t, err)
	}
	return m, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
