package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	articlesURI       = "kb://articles"
	articleBlocksURI  = "kb://article/{articleId}/blocks"
	articleURIPrefix  = "kb://article/"
	articleBlocksPart = "/blocks"
)

func (s *Server) registerResources() {
	// ── kb://articles ──────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		articlesURI,
		"All Articles",
		mcp.WithMIMEType("application/json"),
	), s.handleArticlesResource)

	// ── kb://article/{articleId}/blocks ────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			articleBlocksURI,
			"Blocks of an Article",
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleArticleBlocksResource,
	)
}

func (s *Server) handleArticlesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	articles, err := s.articles.ListArticles(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(summarizeArticles(articles, s.sessions.List()), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      articlesURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// handleArticleBlocksResource reads the open session when there is one and
// the stored body otherwise. Reading never opens a session.
func (s *Server) handleArticleBlocksResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	articleID := extractArticleIDFromURI(uri)
	if articleID == "" {
		return nil, fmt.Errorf("could not extract articleId from URI: %s", uri)
	}

	var summaries []blockSummary
	if ed, err := s.sessions.Get(articleID); err == nil {
		summaries = summarizeBlocks(ed.State())
	} else {
		blocks, err := s.articles.LoadBlocks(ctx, articleID)
		if err != nil {
			return nil, err
		}
		summaries = make([]blockSummary, len(blocks))
		for i, b := range blocks {
			summaries[i] = blockSummary{Index: i, ID: b.ID, Type: b.Type, Content: b.Content, Meta: b.Meta}
		}
	}

	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// extractArticleIDFromURI extracts the id from "kb://article/{id}/blocks".
func extractArticleIDFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, articleURIPrefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, articleBlocksPart)
	if !ok || id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
