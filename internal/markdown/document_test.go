package markdown_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbedit/internal/domain"
	"kbedit/internal/markdown"
)

func TestDocument_RoundTripPreservesStructure(t *testing.T) {
	blocks := []domain.Block{
		block(t, domain.BlockTypeHeading, domain.Text("Title"), domain.HeadingMeta{Level: 1}),
		block(t, domain.BlockTypeTable, nil, nil),
		block(t, domain.BlockTypeCallout, domain.Text("note"), domain.CalloutMeta{Variant: domain.CalloutSuccess}),
		block(t, domain.BlockTypeDivider, nil, nil),
	}
	data, err := markdown.EncodeDocument(blocks)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(data, `{"version":1,`))

	got, err := markdown.DecodeDocument(data)
	require.NoError(t, err)
	require.Len(t, got, len(blocks))
	for i := range blocks {
		assert.Equal(t, blocks[i].ID, got[i].ID)
		assert.Equal(t, blocks[i].Type, got[i].Type)
		assert.Equal(t, blocks[i].Content, got[i].Content)
		assert.Equal(t, blocks[i].Meta, got[i].Meta)
	}
}

func TestDecodeDocument_Rejects(t *testing.T) {
	cases := map[string]string{
		"not json":     `{`,
		"bad version":  `{"version":7,"blocks":[]}`,
		"empty":        `{"version":1,"blocks":[]}`,
		"duplicate id": `{"version":1,"blocks":[{"id":"a","type":"paragraph","content":""},{"id":"a","type":"paragraph","content":""}]}`,
		"missing meta": `{"version":1,"blocks":[{"id":"a","type":"heading","content":"x"}]}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := markdown.DecodeDocument(data)
			assert.Error(t, err)
		})
	}
}

func TestLoad_PrefersStructuredDocument(t *testing.T) {
	heading := block(t, domain.BlockTypeHeading, domain.Text("T"), nil)
	doc, err := markdown.EncodeDocument([]domain.Block{heading})
	require.NoError(t, err)

	blocks, err := markdown.Load("## T", doc)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, domain.BlockTypeHeading, blocks[0].Type)

	blocks, err = markdown.Load("## T", "")
	require.NoError(t, err)
	assert.Equal(t, domain.Text("## T"), blocks[0].Content)

	blocks, err = markdown.Load("## T", "garbage")
	assert.Error(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, domain.Text("## T"), blocks[0].Content)
}

func TestRenderHTML(t *testing.T) {
	out, err := markdown.RenderHTML("## Title\n\n| a | b |\n| --- | --- |\n| 1 | 2 |")
	require.NoError(t, err)
	assert.Contains(t, out, "<h2>Title</h2>")
	assert.Contains(t, out, "<table>")

	out, err = markdown.BlocksToHTML([]domain.Block{
		block(t, domain.BlockTypeChecklist, domain.Checklist{{Text: "ship", Checked: true}}, nil),
	})
	require.NoError(t, err)
	assert.Contains(t, out, `checked=""`)
}
