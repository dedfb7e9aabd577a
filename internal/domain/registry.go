package domain

import (
	"fmt"
	"time"

	"kbedit/internal/ulid"
)

// blockTypes lists the closed set of variants in block-picker order.
var blockTypes = []BlockType{
	BlockTypeParagraph,
	BlockTypeHeading,
	BlockTypeQuote,
	BlockTypeCode,
	BlockTypeChecklist,
	BlockTypeCallout,
	BlockTypeDivider,
	BlockTypeImage,
	BlockTypeTable,
	BlockTypeEmbed,
}

// BlockTypes returns every block type in picker order.
func BlockTypes() []BlockType {
	return append([]BlockType(nil), blockTypes...)
}

// ParseBlockType validates s against the closed set of block types.
func ParseBlockType(s string) (BlockType, error) {
	for _, t := range blockTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBlockType, s)
}

// NewDefaultBlock allocates a block of type t with a fresh id and the
// variant's default content and meta.
func NewDefaultBlock(t BlockType) (Block, error) {
	content, meta, err := defaults(t)
	if err != nil {
		return Block{}, err
	}
	now := time.Now().UTC()
	return Block{
		ID:        ulid.GenerateID(),
		Type:      t,
		Content:   content,
		Meta:      meta,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewParagraph returns a paragraph block holding text.
func NewParagraph(text string) Block {
	b, _ := NewDefaultBlock(BlockTypeParagraph)
	b.Content = Text(text)
	return b
}

func defaults(t BlockType) (Content, Meta, error) {
	switch t {
	case BlockTypeParagraph, BlockTypeQuote:
		return Text(""), nil, nil
	case BlockTypeHeading:
		return Text(""), HeadingMeta{Level: 2}, nil
	case BlockTypeCode:
		return Text(""), CodeMeta{Language: "plaintext"}, nil
	case BlockTypeChecklist:
		return Checklist{{Text: "", Checked: false}}, nil, nil
	case BlockTypeCallout:
		return Text(""), CalloutMeta{Variant: CalloutInfo}, nil
	case BlockTypeDivider:
		return nil, nil, nil
	case BlockTypeImage:
		return ImageContent{}, ImageMeta{Alignment: "center", Size: "medium"}, nil
	case BlockTypeTable:
		return TableContent{
			Headers: []string{"Column 1", "Column 2"},
			Rows:    [][]string{{"", ""}},
		}, nil, nil
	case BlockTypeEmbed:
		return EmbedContent{Type: "link"}, nil, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, t)
}

// ── Validation ─────────────────────────────────────────────

// Patch is a partial block update. Nil fields leave the block unchanged.
type Patch struct {
	Content Content
	Meta    Meta
}

// Apply returns a copy of b with the patch merged and UpdatedAt set to now.
// The patch must have passed CheckPatch for b.Type.
func (b Block) Apply(p Patch, now time.Time) Block {
	out := b.Clone()
	if p.Content != nil {
		out.Content = p.Content.cloneContent()
	}
	if p.Meta != nil {
		out.Meta = p.Meta
	}
	out.UpdatedAt = now
	return out
}

// Validate checks that content and meta have the shape b.Type requires.
func Validate(b Block) error {
	if _, err := ParseBlockType(string(b.Type)); err != nil {
		return err
	}
	if err := checkContent(b.Type, b.Content, true); err != nil {
		return err
	}
	return checkMeta(b.Type, b.Meta, true)
}

// CheckPatch checks that the non-nil parts of p fit block type t.
func CheckPatch(t BlockType, p Patch) error {
	if err := checkContent(t, p.Content, false); err != nil {
		return err
	}
	return checkMeta(t, p.Meta, false)
}

func checkContent(t BlockType, c Content, required bool) error {
	if c == nil {
		if t == BlockTypeDivider || !required {
			return nil
		}
		return fmt.Errorf("%w: %s requires content", ErrInvalidContent, t)
	}
	ok := false
	switch t {
	case BlockTypeParagraph, BlockTypeHeading, BlockTypeQuote, BlockTypeCode, BlockTypeCallout:
		_, ok = c.(Text)
	case BlockTypeChecklist:
		_, ok = c.(Checklist)
	case BlockTypeImage:
		_, ok = c.(ImageContent)
	case BlockTypeTable:
		_, ok = c.(TableContent)
	case BlockTypeEmbed:
		_, ok = c.(EmbedContent)
	case BlockTypeDivider:
		ok = false
	}
	if !ok {
		return fmt.Errorf("%w: %T is not %s content", ErrInvalidContent, c, t)
	}
	return nil
}

func checkMeta(t BlockType, m Meta, required bool) error {
	if m == nil {
		switch t {
		case BlockTypeHeading, BlockTypeCode, BlockTypeCallout, BlockTypeImage:
			if required {
				return fmt.Errorf("%w: %s requires meta", ErrInvalidContent, t)
			}
		}
		return nil
	}
	switch t {
	case BlockTypeHeading:
		hm, ok := m.(HeadingMeta)
		if !ok {
			break
		}
		if hm.Level < 1 || hm.Level > 3 {
			return fmt.Errorf("%w: heading level %d out of range 1..3", ErrInvalidContent, hm.Level)
		}
		return nil
	case BlockTypeCode:
		if _, ok := m.(CodeMeta); ok {
			return nil
		}
	case BlockTypeCallout:
		cm, ok := m.(CalloutMeta)
		if !ok {
			break
		}
		switch cm.Variant {
		case CalloutInfo, CalloutWarning, CalloutSuccess, CalloutError:
			return nil
		}
		return fmt.Errorf("%w: callout variant %q", ErrInvalidContent, cm.Variant)
	case BlockTypeImage:
		if _, ok := m.(ImageMeta); ok {
			return nil
		}
	}
	return fmt.Errorf("%w: %T is not %s meta", ErrInvalidContent, m, t)
}

// ── Exhaustive dispatch ────────────────────────────────────

// Visitor has one method per block variant. Adding a block type means adding
// a method here, which breaks every implementation until it handles the new
// variant.
type Visitor[R any] interface {
	Paragraph(b Block, text Text) R
	Heading(b Block, text Text, meta HeadingMeta) R
	Quote(b Block, text Text) R
	Code(b Block, text Text, meta CodeMeta) R
	Checklist(b Block, items Checklist) R
	Callout(b Block, text Text, meta CalloutMeta) R
	Divider(b Block) R
	Image(b Block, img ImageContent, meta ImageMeta) R
	Table(b Block, table TableContent) R
	Embed(b Block, embed EmbedContent) R
}

// Visit dispatches b to the visitor method for its type.
func Visit[R any](b Block, v Visitor[R]) R {
	switch b.Type {
	case BlockTypeParagraph:
		return v.Paragraph(b, textOf(b))
	case BlockTypeHeading:
		m, _ := b.Meta.(HeadingMeta)
		return v.Heading(b, textOf(b), m)
	case BlockTypeQuote:
		return v.Quote(b, textOf(b))
	case BlockTypeCode:
		m, _ := b.Meta.(CodeMeta)
		return v.Code(b, textOf(b), m)
	case BlockTypeChecklist:
		items, _ := b.Content.(Checklist)
		return v.Checklist(b, items)
	case BlockTypeCallout:
		m, _ := b.Meta.(CalloutMeta)
		return v.Callout(b, textOf(b), m)
	case BlockTypeDivider:
		return v.Divider(b)
	case BlockTypeImage:
		img, _ := b.Content.(ImageContent)
		m, _ := b.Meta.(ImageMeta)
		return v.Image(b, img, m)
	case BlockTypeTable:
		tbl, _ := b.Content.(TableContent)
		return v.Table(b, tbl)
	case BlockTypeEmbed:
		e, _ := b.Content.(EmbedContent)
		return v.Embed(b, e)
	}
	panic(fmt.Sprintf("domain: unhandled block type %q", b.Type))
}

func textOf(b Block) Text {
	t, _ := b.Content.(Text)
	return t
}
