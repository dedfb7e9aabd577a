package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"kbedit/internal/domain"
	"kbedit/internal/editor"
)

func (s *Server) registerBlockTools() {
	blockTypes := make([]string, 0, len(domain.BlockTypes()))
	for _, t := range domain.BlockTypes() {
		blockTypes = append(blockTypes, string(t))
	}

	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List the blocks of an article's editing session, optionally filtered by type"),
		mcp.WithString("articleId", mcp.Description("Article ID (optional, defaults to active article)")),
		mcp.WithString("type", mcp.Description("Filter by block type (optional)")),
	), s.handleListBlocks)

	// ── add_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Insert a new block. Content and meta are JSON shaped for the block type; text-bearing types also accept plain text."),
		mcp.WithString("type",
			mcp.Description("Block type: "+strings.Join(blockTypes, ", ")),
			mcp.Required(),
			mcp.Enum(blockTypes...),
		),
		mcp.WithString("articleId", mcp.Description("Article ID (optional, defaults to active article)")),
		mcp.WithNumber("index", mcp.Description("Insert position (optional, defaults to the end)")),
		mcp.WithString("content", mcp.Description("Initial content (optional)")),
		mcp.WithString("meta", mcp.Description("Initial meta as JSON, e.g. {\"level\":1} for headings (optional)")),
	), s.handleAddBlock)

	// ── update_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription("Update the content and/or meta of a block"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("articleId", mcp.Description("Article ID (optional, defaults to active article)")),
		mcp.WithString("content", mcp.Description("New content (optional)")),
		mcp.WithString("meta", mcp.Description("New meta as JSON (optional)")),
	), s.handleUpdateBlock)

	// ── delete_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("Delete a block. Deleting the last block leaves one empty paragraph. Undoable."),
		mcp.WithString("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithString("articleId", mcp.Description("Article ID (optional, defaults to active article)")),
	), s.handleDeleteBlock)

	// ── duplicate_block ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("duplicate_block",
		mcp.WithDescription("Insert a copy of a block directly after it"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("articleId", mcp.Description("Article ID (optional, defaults to active article)")),
	), s.handleDuplicateBlock)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move the block at index from to index to"),
		mcp.WithNumber("from", mcp.Description("Current index"), mcp.Required()),
		mcp.WithNumber("to", mcp.Description("Target index"), mcp.Required()),
		mcp.WithString("articleId", mcp.Description("Article ID (optional, defaults to active article)")),
	), s.handleMoveBlock)

	// ── select_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_block",
		mcp.WithDescription("Select a block. With multi, toggle it in the current selection. Without blockId, clear the selection."),
		mcp.WithString("blockId", mcp.Description("Block ID (optional)")),
		mcp.WithBoolean("multi", mcp.Description("Toggle instead of replacing the selection")),
		mcp.WithString("articleId", mcp.Description("Article ID (optional, defaults to active article)")),
	), s.handleSelectBlock)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, ed, err := s.sessionForTool(ctx, req)
	if err != nil {
		return nil, err
	}
	blocks := summarizeBlocks(ed.State())
	if filter := req.GetString("type", ""); filter != "" {
		filtered := blocks[:0]
		for _, b := range blocks {
			if string(b.Type) == filter {
				filtered = append(filtered, b)
			}
		}
		blocks = filtered
	}
	return jsonResult(blocks)
}

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := domain.ParseBlockType(req.GetString("type", ""))
	if err != nil {
		return nil, err
	}
	articleID, ed, err := s.sessionForTool(ctx, req)
	if err != nil {
		return nil, err
	}

	var opts []editor.AddOption
	if args := req.GetArguments(); args["index"] != nil {
		opts = append(opts, editor.At(req.GetInt("index", 0)))
	}
	content, err := parseContent(t, req.GetString("content", ""))
	if err != nil {
		return nil, err
	}
	if content != nil {
		opts = append(opts, editor.WithContent(content))
	}
	meta, err := parseMeta(t, req.GetString("meta", ""))
	if err != nil {
		return nil, err
	}
	if meta != nil {
		opts = append(opts, editor.WithMeta(meta))
	}

	id, err := ed.AddBlock(t, opts...)
	if err != nil {
		return nil, fmt.Errorf("add block: %w", err)
	}
	s.emitBlocksChanged(ctx, articleID)
	return jsonResult(status(articleID, ed, id, true))
}

func (s *Server) handleUpdateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID := req.GetString("blockId", "")
	if blockID == "" {
		return nil, fmt.Errorf("blockId is required")
	}
	articleID, ed, err := s.sessionForTool(ctx, req)
	if err != nil {
		return nil, err
	}
	b, ok := ed.Block(blockID)
	if !ok {
		return jsonResult(status(articleID, ed, blockID, false))
	}

	var p domain.Patch
	if p.Content, err = parseContent(b.Type, req.GetString("content", "")); err != nil {
		return nil, err
	}
	if p.Meta, err = parseMeta(b.Type, req.GetString("meta", "")); err != nil {
		return nil, err
	}
	if p.Content == nil && p.Meta == nil {
		return nil, fmt.Errorf("content or meta is required")
	}
	if err := ed.UpdateBlock(blockID, p); err != nil {
		return nil, fmt.Errorf("update block: %w", err)
	}
	s.emitBlocksChanged(ctx, articleID)
	return jsonResult(status(articleID, ed, blockID, true))
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID := req.GetString("blockId", "")
	if blockID == "" {
		return nil, fmt.Errorf("blockId is required")
	}
	articleID, ed, err := s.sessionForTool(ctx, req)
	if err != nil {
		return nil, err
	}
	applied := ed.DeleteBlock(blockID)
	if applied {
		s.emitBlocksChanged(ctx, articleID)
	}
	return jsonResult(status(articleID, ed, blockID, applied))
}

func (s *Server) handleDuplicateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID := req.GetString("blockId", "")
	if blockID == "" {
		return nil, fmt.Errorf("blockId is required")
	}
	articleID, ed, err := s.sessionForTool(ctx, req)
	if err != nil {
		return nil, err
	}
	newID := ed.DuplicateBlock(blockID)
	if newID != "" {
		s.emitBlocksChanged(ctx, articleID)
	}
	return jsonResult(status(articleID, ed, newID, newID != ""))
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	if args["from"] == nil || args["to"] == nil {
		return nil, fmt.Errorf("from and to are required")
	}
	articleID, ed, err := s.sessionForTool(ctx, req)
	if err != nil {
		return nil, err
	}
	applied := ed.MoveBlock(req.GetInt("from", 0), req.GetInt("to", 0))
	if applied {
		s.emitBlocksChanged(ctx, articleID)
	}
	return jsonResult(status(articleID, ed, "", applied))
}

func (s *Server) handleSelectBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articleID, ed, err := s.sessionForTool(ctx, req)
	if err != nil {
		return nil, err
	}
	blockID := req.GetString("blockId", "")
	if blockID == "" {
		ed.ClearSelection()
	} else {
		ed.SelectBlock(blockID, req.GetBool("multi", false))
	}
	return jsonResult(status(articleID, ed, blockID, true))
}
