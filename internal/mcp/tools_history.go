package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerHistoryTools() {
	// ── undo ───────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last edit of the editing session"),
		mcp.WithString("articleId", mcp.Description("Article ID (optional, defaults to active article)")),
	), s.handleUndo)

	// ── redo ───────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone edit of the editing session"),
		mcp.WithString("articleId", mcp.Description("Article ID (optional, defaults to active article)")),
	), s.handleRedo)
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articleID, ed, err := s.sessionForTool(ctx, req)
	if err != nil {
		return nil, err
	}
	applied := ed.Undo()
	if applied {
		s.emitBlocksChanged(ctx, articleID)
	}
	return jsonResult(status(articleID, ed, "", applied))
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articleID, ed, err := s.sessionForTool(ctx, req)
	if err != nil {
		return nil, err
	}
	applied := ed.Redo()
	if applied {
		s.emitBlocksChanged(ctx, articleID)
	}
	return jsonResult(status(articleID, ed, "", applied))
}
