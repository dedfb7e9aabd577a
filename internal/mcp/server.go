package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"kbedit/internal/domain"
	"kbedit/internal/editor"
	"kbedit/internal/service"
)

// Server is the MCP server for kbedit.
// It exposes editing-session tools and article resources to AI agents.
type Server struct {
	mcp     *server.MCPServer
	emitter service.EventEmitter
	logger  *zap.Logger

	articles *service.ArticleService
	sessions *service.SessionService

	// Active article context (set by open_article)
	mu              sync.Mutex
	activeArticleID string
}

// Deps holds the services the MCP server drives.
type Deps struct {
	Emitter  service.EventEmitter
	Logger   *zap.Logger
	Articles *service.ArticleService
	Sessions *service.SessionService
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		emitter:  deps.Emitter,
		logger:   logger,
		articles: deps.Articles,
		sessions: deps.Sessions,
	}

	s.mcp = server.NewMCPServer(
		"kbedit-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerArticleTools()
	s.registerBlockTools()
	s.registerHistoryTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

// MCPServer exposes the underlying server for in-process transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ── Helpers ────────────────────────────────────────────────

// emitBlocksChanged notifies listeners that an article's blocks changed.
func (s *Server) emitBlocksChanged(ctx context.Context, articleID string) {
	if s.emitter != nil {
		s.emitter.Emit(ctx, "mcp:blocks-changed", map[string]string{"articleId": articleID})
	}
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func (s *Server) setActive(articleID string) {
	s.mu.Lock()
	s.activeArticleID = articleID
	s.mu.Unlock()
}

// resolveArticleID returns the articleId from tool args or falls back to the
// active article.
func (s *Server) resolveArticleID(req mcp.CallToolRequest) (string, error) {
	if id := req.GetString("articleId", ""); id != "" {
		return id, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeArticleID != "" {
		return s.activeArticleID, nil
	}
	return "", fmt.Errorf("no articleId provided and no article open (use open_article first)")
}

// sessionForTool returns the editing session of the resolved article,
// opening one when needed.
func (s *Server) sessionForTool(ctx context.Context, req mcp.CallToolRequest) (string, *editor.Editor, error) {
	articleID, err := s.resolveArticleID(req)
	if err != nil {
		return "", nil, err
	}
	ed, err := s.sessions.GetOrOpen(ctx, articleID)
	if err != nil {
		return "", nil, fmt.Errorf("open session: %w", err)
	}
	return articleID, ed, nil
}

// blockSummary is the block shape returned to agents.
type blockSummary struct {
	Index    int              `json:"index"`
	ID       string           `json:"id"`
	Type     domain.BlockType `json:"type"`
	Content  domain.Content   `json:"content"`
	Meta     domain.Meta      `json:"meta,omitempty"`
	Focused  bool             `json:"focused,omitempty"`
	Selected bool             `json:"selected,omitempty"`
}

func summarizeBlocks(st editor.State) []blockSummary {
	selected := make(map[string]bool, len(st.SelectedBlockIDs))
	for _, id := range st.SelectedBlockIDs {
		selected[id] = true
	}
	out := make([]blockSummary, len(st.Blocks))
	for i, b := range st.Blocks {
		out[i] = blockSummary{
			Index:    i,
			ID:       b.ID,
			Type:     b.Type,
			Content:  b.Content,
			Meta:     b.Meta,
			Focused:  b.ID == st.FocusedBlockID,
			Selected: selected[b.ID],
		}
	}
	return out
}

// sessionStatus is the result of tools that change a session.
type sessionStatus struct {
	ArticleID         string `json:"articleId"`
	BlockID           string `json:"blockId,omitempty"`
	Applied           bool   `json:"applied"`
	BlockCount        int    `json:"blockCount"`
	SelectionCount    int    `json:"selectionCount"`
	HasUnsavedChanges bool   `json:"hasUnsavedChanges"`
	CanUndo           bool   `json:"canUndo"`
	CanRedo           bool   `json:"canRedo"`
}

func status(articleID string, ed *editor.Editor, blockID string, applied bool) sessionStatus {
	return sessionStatus{
		ArticleID:         articleID,
		BlockID:           blockID,
		Applied:           applied,
		BlockCount:        ed.BlockCount(),
		SelectionCount:    ed.SelectionCount(),
		HasUnsavedChanges: ed.HasUnsavedChanges(),
		CanUndo:           ed.CanUndo(),
		CanRedo:           ed.CanRedo(),
	}
}
