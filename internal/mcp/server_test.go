package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbedit/internal/domain"
	"kbedit/internal/service"
	"kbedit/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *service.MockEmitter) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "kb.db"), dir)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	emitter := &service.MockEmitter{}
	articles := service.NewArticleService(
		storage.NewArticleStore(db), storage.NewRevisionStore(db),
		service.ArticleConfig{Structured: true, KeepRevisions: 10}, emitter, nil)
	sessions := service.NewSessionService(context.Background(), articles,
		service.SessionConfig{AutosaveDelay: -1}, emitter, nil)
	t.Cleanup(func() { _ = sessions.CloseAll(context.Background()) })

	return New(Deps{Emitter: emitter, Articles: articles, Sessions: sessions}), emitter
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) string {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func listBlocks(t *testing.T, s *Server) []blockSummary {
	t.Helper()
	var out []blockSummary
	raw := decode[[]map[string]any](t, call(t, s.handleListBlocks, nil))
	for _, m := range raw {
		out = append(out, blockSummary{
			Index: int(m["index"].(float64)),
			ID:    m["id"].(string),
			Type:  domain.BlockType(m["type"].(string)),
		})
	}
	return out
}

func TestCreateArticleOpensActiveSession(t *testing.T) {
	s, _ := newTestServer(t)

	out := decode[map[string]any](t, call(t, s.handleCreateArticle, map[string]any{"title": "Onboarding"}))
	article := out["article"].(map[string]any)
	assert.Equal(t, "Onboarding", article["title"])
	assert.Equal(t, article["id"], s.activeArticleID)

	blocks := listBlocks(t, s)
	require.Len(t, blocks, 1)
	assert.Equal(t, domain.BlockTypeParagraph, blocks[0].Type)
}

func TestBlockToolsEditAndUndo(t *testing.T) {
	s, emitter := newTestServer(t)
	call(t, s.handleCreateArticle, map[string]any{"title": "Guide"})

	st := decode[sessionStatus](t, call(t, s.handleAddBlock, map[string]any{
		"type":    "heading",
		"index":   float64(0),
		"content": "Install",
		"meta":    `{"level":1}`,
	}))
	require.True(t, st.Applied)
	assert.Equal(t, 2, st.BlockCount)
	assert.True(t, st.HasUnsavedChanges)
	headingID := st.BlockID

	blocks := listBlocks(t, s)
	assert.Equal(t, headingID, blocks[0].ID)

	st = decode[sessionStatus](t, call(t, s.handleUpdateBlock, map[string]any{
		"blockId": headingID,
		"content": `"Setup"`,
	}))
	assert.True(t, st.Applied)

	st = decode[sessionStatus](t, call(t, s.handleMoveBlock, map[string]any{"from": float64(0), "to": float64(1)}))
	assert.True(t, st.Applied)
	assert.Equal(t, headingID, listBlocks(t, s)[1].ID)

	st = decode[sessionStatus](t, call(t, s.handleUndo, nil))
	assert.True(t, st.Applied)
	assert.True(t, st.CanRedo)
	assert.Equal(t, headingID, listBlocks(t, s)[0].ID)

	st = decode[sessionStatus](t, call(t, s.handleRedo, nil))
	assert.True(t, st.Applied)

	assert.Positive(t, emitter.Count("mcp:blocks-changed"))
}

func TestUpdateBlockRejectsWrongShape(t *testing.T) {
	s, _ := newTestServer(t)
	call(t, s.handleCreateArticle, map[string]any{"title": "Table"})
	st := decode[sessionStatus](t, call(t, s.handleAddBlock, map[string]any{"type": "table"}))

	var req mcp.CallToolRequest
	req.Params.Arguments = map[string]any{"blockId": st.BlockID, "content": `"not a table"`}
	_, err := s.handleUpdateBlock(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidContent)
}

func TestUnknownBlockIsNoOp(t *testing.T) {
	s, _ := newTestServer(t)
	call(t, s.handleCreateArticle, map[string]any{"title": "Noop"})

	st := decode[sessionStatus](t, call(t, s.handleDeleteBlock, map[string]any{"blockId": "missing"}))
	assert.False(t, st.Applied)
	assert.Equal(t, 1, st.BlockCount)

	st = decode[sessionStatus](t, call(t, s.handleDuplicateBlock, map[string]any{"blockId": "missing"}))
	assert.False(t, st.Applied)
}

func TestSelectBlockTool(t *testing.T) {
	s, _ := newTestServer(t)
	call(t, s.handleCreateArticle, map[string]any{"title": "Select"})
	id := listBlocks(t, s)[0].ID

	st := decode[sessionStatus](t, call(t, s.handleSelectBlock, map[string]any{"blockId": id}))
	assert.Equal(t, 1, st.SelectionCount)
	st = decode[sessionStatus](t, call(t, s.handleSelectBlock, nil))
	assert.Equal(t, 0, st.SelectionCount)
}

func TestSaveCloseExportAndRestore(t *testing.T) {
	s, _ := newTestServer(t)
	out := decode[map[string]any](t, call(t, s.handleCreateArticle, map[string]any{"title": "Export"}))
	articleID := out["article"].(map[string]any)["id"].(string)
	id := listBlocks(t, s)[0].ID

	call(t, s.handleUpdateBlock, map[string]any{"blockId": id, "content": "first"})
	st := decode[sessionStatus](t, call(t, s.handleSaveArticle, nil))
	assert.False(t, st.HasUnsavedChanges)

	call(t, s.handleUpdateBlock, map[string]any{"blockId": id, "content": "**second**"})
	call(t, s.handleCloseArticle, nil)
	assert.Empty(t, s.activeArticleID)

	html := call(t, s.handleExportArticle, map[string]any{"articleId": articleID, "format": "html"})
	assert.Contains(t, html, "<strong>second</strong>")

	revs := decode[[]map[string]any](t, call(t, s.handleListRevisions, map[string]any{"articleId": articleID}))
	require.Len(t, revs, 2)
	oldest := revs[1]["id"].(string)

	restored := decode[map[string]any](t, call(t, s.handleRestoreRevision, map[string]any{
		"articleId":  articleID,
		"revisionId": oldest,
	}))
	assert.Equal(t, "first", restored["content"])

	call(t, s.handleOpenArticle, map[string]any{"articleId": articleID})
	var req mcp.CallToolRequest
	req.Params.Arguments = map[string]any{"revisionId": oldest}
	_, err := s.handleRestoreRevision(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrSessionOpen)
}

func TestToolsRequireActiveArticle(t *testing.T) {
	s, _ := newTestServer(t)
	var req mcp.CallToolRequest
	_, err := s.handleListBlocks(context.Background(), req)
	assert.Error(t, err)
}

func TestArticleResources(t *testing.T) {
	s, _ := newTestServer(t)
	out := decode[map[string]any](t, call(t, s.handleCreateArticle, map[string]any{"title": "Res"}))
	articleID := out["article"].(map[string]any)["id"].(string)

	var req mcp.ReadResourceRequest
	req.Params.URI = articlesURI
	contents, err := s.handleArticlesResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text := contents[0].(mcp.TextResourceContents).Text
	assert.Contains(t, text, articleID)
	assert.Contains(t, text, `"open": true`)

	req.Params.URI = "kb://article/" + articleID + "/blocks"
	contents, err = s.handleArticleBlocksResource(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, contents[0].(mcp.TextResourceContents).Text, `"type": "paragraph"`)
}

func TestExtractArticleIDFromURI(t *testing.T) {
	assert.Equal(t, "abc-123", extractArticleIDFromURI("kb://article/abc-123/blocks"))
	assert.Empty(t, extractArticleIDFromURI("kb://article//blocks"))
	assert.Empty(t, extractArticleIDFromURI("kb://article/a/b/blocks"))
	assert.Empty(t, extractArticleIDFromURI("notes://page/abc/blocks"))
}

func TestParseContent(t *testing.T) {
	c, err := parseContent(domain.BlockTypeParagraph, "plain words")
	require.NoError(t, err)
	assert.Equal(t, domain.Text("plain words"), c)

	c, err = parseContent(domain.BlockTypeChecklist, `[{"text":"a","checked":true}]`)
	require.NoError(t, err)
	assert.Equal(t, domain.Checklist{{Text: "a", Checked: true}}, c)

	_, err = parseContent(domain.BlockTypeImage, "not json")
	assert.ErrorIs(t, err, domain.ErrInvalidContent)
}
