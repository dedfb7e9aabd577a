package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbedit/internal/domain"
	"kbedit/internal/ulid"
)

// ─────────────────────────────────────────────────────────────
// Registry defaults
// ─────────────────────────────────────────────────────────────

func TestNewDefaultBlock_Defaults(t *testing.T) {
	cases := []struct {
		typ     domain.BlockType
		content domain.Content
		meta    domain.Meta
	}{
		{domain.BlockTypeParagraph, domain.Text(""), nil},
		{domain.BlockTypeHeading, domain.Text(""), domain.HeadingMeta{Level: 2}},
		{domain.BlockTypeQuote, domain.Text(""), nil},
		{domain.BlockTypeCode, domain.Text(""), domain.CodeMeta{Language: "plaintext"}},
		{domain.BlockTypeChecklist, domain.Checklist{{Text: "", Checked: false}}, nil},
		{domain.BlockTypeCallout, domain.Text(""), domain.CalloutMeta{Variant: domain.CalloutInfo}},
		{domain.BlockTypeDivider, nil, nil},
		{domain.BlockTypeImage, domain.ImageContent{}, domain.ImageMeta{Alignment: "center", Size: "medium"}},
		{domain.BlockTypeTable, domain.TableContent{
			Headers: []string{"Column 1", "Column 2"},
			Rows:    [][]string{{"", ""}},
		}, nil},
		{domain.BlockTypeEmbed, domain.EmbedContent{Type: "link"}, nil},
	}
	require.Len(t, cases, len(domain.BlockTypes()))

	for _, tc := range cases {
		t.Run(string(tc.typ), func(t *testing.T) {
			b, err := domain.NewDefaultBlock(tc.typ)
			require.NoError(t, err)
			assert.Equal(t, tc.typ, b.Type)
			assert.Equal(t, tc.content, b.Content)
			assert.Equal(t, tc.meta, b.Meta)
			assert.True(t, ulid.ValidID(b.ID))
			assert.Equal(t, b.CreatedAt, b.UpdatedAt)
			assert.NoError(t, domain.Validate(b))
		})
	}
}

func TestNewDefaultBlock_UnknownType(t *testing.T) {
	_, err := domain.NewDefaultBlock("kanban")
	assert.ErrorIs(t, err, domain.ErrUnknownBlockType)
}

func TestParseBlockType(t *testing.T) {
	typ, err := domain.ParseBlockType("callout")
	require.NoError(t, err)
	assert.Equal(t, domain.BlockTypeCallout, typ)

	_, err = domain.ParseBlockType("Callout")
	assert.ErrorIs(t, err, domain.ErrUnknownBlockType)
}

// ─────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────

func TestValidate_RejectsWrongShapes(t *testing.T) {
	heading, _ := domain.NewDefaultBlock(domain.BlockTypeHeading)

	bad := heading
	bad.Meta = domain.HeadingMeta{Level: 4}
	assert.ErrorIs(t, domain.Validate(bad), domain.ErrInvalidContent)

	bad = heading
	bad.Content = domain.Checklist{}
	assert.ErrorIs(t, domain.Validate(bad), domain.ErrInvalidContent)

	bad = heading
	bad.Meta = nil
	assert.ErrorIs(t, domain.Validate(bad), domain.ErrInvalidContent)

	divider, _ := domain.NewDefaultBlock(domain.BlockTypeDivider)
	divider.Content = domain.Text("x")
	assert.ErrorIs(t, domain.Validate(divider), domain.ErrInvalidContent)

	callout, _ := domain.NewDefaultBlock(domain.BlockTypeCallout)
	callout.Meta = domain.CalloutMeta{Variant: "danger"}
	assert.ErrorIs(t, domain.Validate(callout), domain.ErrInvalidContent)
}

func TestCheckPatch(t *testing.T) {
	assert.NoError(t, domain.CheckPatch(domain.BlockTypeHeading, domain.Patch{Meta: domain.HeadingMeta{Level: 1}}))
	assert.NoError(t, domain.CheckPatch(domain.BlockTypeParagraph, domain.Patch{}))
	assert.ErrorIs(t,
		domain.CheckPatch(domain.BlockTypeParagraph, domain.Patch{Meta: domain.CodeMeta{Language: "go"}}),
		domain.ErrInvalidContent)
	assert.ErrorIs(t,
		domain.CheckPatch(domain.BlockTypeTable, domain.Patch{Content: domain.Text("a|b")}),
		domain.ErrInvalidContent)
}

// ─────────────────────────────────────────────────────────────
// Clone / Apply
// ─────────────────────────────────────────────────────────────

func TestClone_IsDeep(t *testing.T) {
	tbl, _ := domain.NewDefaultBlock(domain.BlockTypeTable)
	clone := tbl.Clone()
	clone.Content.(domain.TableContent).Rows[0][0] = "changed"
	assert.Equal(t, "", tbl.Content.(domain.TableContent).Rows[0][0])

	list, _ := domain.NewDefaultBlock(domain.BlockTypeChecklist)
	lc := list.Clone()
	lc.Content.(domain.Checklist)[0].Checked = true
	assert.False(t, list.Content.(domain.Checklist)[0].Checked)
}

func TestApply_MergesOnlyNonNilFields(t *testing.T) {
	b, _ := domain.NewDefaultBlock(domain.BlockTypeCode)
	later := b.UpdatedAt.Add(5)

	out := b.Apply(domain.Patch{Content: domain.Text("fmt.Println()")}, later)
	assert.Equal(t, domain.Text("fmt.Println()"), out.Content)
	assert.Equal(t, domain.CodeMeta{Language: "plaintext"}, out.Meta)
	assert.Equal(t, later, out.UpdatedAt)
	assert.Equal(t, b.CreatedAt, out.CreatedAt)
	assert.Equal(t, domain.Text(""), b.Content, "source block must not change")
}

// ─────────────────────────────────────────────────────────────
// JSON
// ─────────────────────────────────────────────────────────────

func TestBlockJSON_DecodesVariantsByType(t *testing.T) {
	for _, typ := range domain.BlockTypes() {
		t.Run(string(typ), func(t *testing.T) {
			b, err := domain.NewDefaultBlock(typ)
			require.NoError(t, err)

			data, err := json.Marshal(b)
			require.NoError(t, err)

			var got domain.Block
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, b.Content, got.Content)
			assert.Equal(t, b.Meta, got.Meta)
			assert.True(t, b.CreatedAt.Equal(got.CreatedAt))
		})
	}
}

func TestBlockJSON_RejectsBadInput(t *testing.T) {
	var b domain.Block
	err := json.Unmarshal([]byte(`{"id":"x","type":"video","content":""}`), &b)
	assert.ErrorIs(t, err, domain.ErrUnknownBlockType)

	err = json.Unmarshal([]byte(`{"id":"x","type":"checklist","content":"oops"}`), &b)
	assert.ErrorIs(t, err, domain.ErrInvalidContent)

	err = json.Unmarshal([]byte(`{"id":"x","type":"quote","content":"q","meta":{"level":1}}`), &b)
	assert.ErrorIs(t, err, domain.ErrInvalidContent)
}

func TestDecodeContent_NullIsNil(t *testing.T) {
	c, err := domain.DecodeContent(domain.BlockTypeParagraph, json.RawMessage("null"))
	require.NoError(t, err)
	assert.Nil(t, c)
}

// ─────────────────────────────────────────────────────────────
// Visitor
// ─────────────────────────────────────────────────────────────

type typeNamer struct{}

func (typeNamer) Paragraph(domain.Block, domain.Text) string { return "paragraph" }
func (typeNamer) Heading(_ domain.Block, _ domain.Text, m domain.HeadingMeta) string {
	return "heading"
}
func (typeNamer) Quote(domain.Block, domain.Text) string { return "quote" }
func (typeNamer) Code(_ domain.Block, _ domain.Text, m domain.CodeMeta) string {
	return "code:" + m.Language
}
func (typeNamer) Checklist(domain.Block, domain.Checklist) string { return "checklist" }
func (typeNamer) Callout(_ domain.Block, _ domain.Text, m domain.CalloutMeta) string {
	return "callout:" + string(m.Variant)
}
func (typeNamer) Divider(domain.Block) string { return "divider" }
func (typeNamer) Image(domain.Block, domain.ImageContent, domain.ImageMeta) string {
	return "image"
}
func (typeNamer) Table(domain.Block, domain.TableContent) string { return "table" }
func (typeNamer) Embed(domain.Block, domain.EmbedContent) string { return "embed" }

func TestVisit_DispatchesEveryType(t *testing.T) {
	for _, typ := range domain.BlockTypes() {
		b, err := domain.NewDefaultBlock(typ)
		require.NoError(t, err)
		got := domain.Visit[string](b, typeNamer{})
		switch typ {
		case domain.BlockTypeCode:
			assert.Equal(t, "code:plaintext", got)
		case domain.BlockTypeCallout:
			assert.Equal(t, "callout:info", got)
		default:
			assert.Equal(t, string(typ), got)
		}
	}
}

func TestVisit_PanicsOnUnknownType(t *testing.T) {
	assert.Panics(t, func() {
		domain.Visit[string](domain.Block{Type: "kanban"}, typeNamer{})
	})
}

func TestErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(domain.ErrInvalidContent, domain.ErrUnknownBlockType))
}
