package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"kbedit/internal/domain"
)

func (s *Server) registerArticleTools() {
	// ── list_articles ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_articles",
		mcp.WithDescription("List all articles in the knowledge base"),
	), s.handleListArticles)

	// ── create_article ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_article",
		mcp.WithDescription("Create a new article and open an editing session for it"),
		mcp.WithString("title", mcp.Description("Article title"), mcp.Required()),
		mcp.WithString("content", mcp.Description("Initial body text (optional)")),
	), s.handleCreateArticle)

	// ── open_article ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_article",
		mcp.WithDescription("Open an editing session for an article and make it the active article. Tools that accept articleId default to it."),
		mcp.WithString("articleId", mcp.Description("Article ID"), mcp.Required()),
	), s.handleOpenArticle)

	// ── close_article ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("close_article",
		mcp.WithDescription("Save pending changes and close the editing session"),
		mcp.WithString("articleId", mcp.Description("Article ID (optional, defaults to active article)")),
	), s.handleCloseArticle)

	// ── save_article ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_article",
		mcp.WithDescription("Save the editing session now instead of waiting for autosave"),
		mcp.WithString("articleId", mcp.Description("Article ID (optional, defaults to active article)")),
	), s.handleSaveArticle)

	// ── export_article ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("export_article",
		mcp.WithDescription("Export the stored article body as text or html"),
		mcp.WithString("articleId", mcp.Description("Article ID (optional, defaults to active article)")),
		mcp.WithString("format",
			mcp.Description("Export format"),
			mcp.Enum("text", "html"),
		),
	), s.handleExportArticle)

	// ── list_revisions ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_revisions",
		mcp.WithDescription("List saved revisions of an article, newest first"),
		mcp.WithString("articleId", mcp.Description("Article ID (optional, defaults to active article)")),
	), s.handleListRevisions)

	// ── restore_revision (destructive) ─────────────────
	s.mcp.AddTool(mcp.NewTool("restore_revision",
		mcp.WithDescription("Replace the article body with a saved revision. The article's editing session must be closed."),
		mcp.WithString("articleId", mcp.Description("Article ID (optional, defaults to active article)")),
		mcp.WithString("revisionId", mcp.Description("Revision ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRestoreRevision)
}

func boolPtr(v bool) *bool { return &v }

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articles, err := s.articles.ListArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return jsonResult(summarizeArticles(articles, s.sessions.List()))
}

func (s *Server) handleCreateArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	a, err := s.articles.CreateArticle(ctx, title, req.GetString("content", ""))
	if err != nil {
		return nil, err
	}
	ed, err := s.sessions.Open(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	s.setActive(a.ID)
	return jsonResult(map[string]any{
		"article": a,
		"blocks":  summarizeBlocks(ed.State()),
	})
}

func (s *Server) handleOpenArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articleID := req.GetString("articleId", "")
	if articleID == "" {
		return nil, fmt.Errorf("articleId is required")
	}
	ed, err := s.sessions.GetOrOpen(ctx, articleID)
	if err != nil {
		return nil, err
	}
	s.setActive(articleID)
	return jsonResult(map[string]any{
		"articleId": articleID,
		"blocks":    summarizeBlocks(ed.State()),
	})
}

func (s *Server) handleCloseArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articleID, err := s.resolveArticleID(req)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Close(ctx, articleID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.activeArticleID == articleID {
		s.activeArticleID = ""
	}
	s.mu.Unlock()
	return textResult(fmt.Sprintf("Closed article %s", articleID)), nil
}

func (s *Server) handleSaveArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articleID, ed, err := s.sessionForTool(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := ed.Save(ctx); err != nil {
		return nil, fmt.Errorf("save article: %w", err)
	}
	return jsonResult(status(articleID, ed, "", true))
}

func (s *Server) handleExportArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articleID, err := s.resolveArticleID(req)
	if err != nil {
		return nil, err
	}
	out, err := s.articles.Export(ctx, articleID, req.GetString("format", "text"))
	if err != nil {
		return nil, err
	}
	return textResult(out), nil
}

func (s *Server) handleListRevisions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articleID, err := s.resolveArticleID(req)
	if err != nil {
		return nil, err
	}
	revs, err := s.articles.ListRevisions(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}

	type revisionSummary struct {
		ID        string `json:"id"`
		Label     string `json:"label"`
		CreatedAt string `json:"createdAt"`
		Preview   string `json:"preview"`
	}
	out := make([]revisionSummary, len(revs))
	for i, r := range revs {
		out[i] = revisionSummary{
			ID:        r.ID,
			Label:     r.Label,
			CreatedAt: r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			Preview:   preview(r.Content, 80),
		}
	}
	return jsonResult(out)
}

func (s *Server) handleRestoreRevision(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articleID, err := s.resolveArticleID(req)
	if err != nil {
		return nil, err
	}
	revisionID := req.GetString("revisionId", "")
	if revisionID == "" {
		return nil, fmt.Errorf("revisionId is required")
	}
	a, err := s.sessions.RestoreRevision(ctx, articleID, revisionID)
	if errors.Is(err, domain.ErrSessionOpen) {
		return nil, fmt.Errorf("close the article before restoring a revision: %w", err)
	}
	if err != nil {
		return nil, err
	}
	return jsonResult(a)
}

type articleSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UpdatedAt string `json:"updatedAt"`
	Open      bool   `json:"open,omitempty"`
}

func summarizeArticles(articles []domain.Article, open []string) []articleSummary {
	isOpen := make(map[string]bool, len(open))
	for _, id := range open {
		isOpen[id] = true
	}
	out := make([]articleSummary, len(articles))
	for i, a := range articles {
		out[i] = articleSummary{
			ID:        a.ID,
			Title:     a.Title,
			UpdatedAt: a.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
			Open:      isOpen[a.ID],
		}
	}
	return out
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
