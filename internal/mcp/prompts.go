package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("draft_article",
		mcp.WithPromptDescription("Guide through drafting a structured knowledge-base article"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Topic or title of the article"),
			mcp.RequiredArgument(),
		),
	), s.handleDraftArticlePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("troubleshooting_guide",
		mcp.WithPromptDescription("Create a troubleshooting article with symptoms, checks, and fixes"),
		mcp.WithArgument("product",
			mcp.ArgumentDescription("Product or feature being troubleshot"),
			mcp.RequiredArgument(),
		),
	), s.handleTroubleshootingPrompt)
}

func (s *Server) handleDraftArticlePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Draft an article about: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Draft a knowledge-base article about "%s". Follow these steps:

1. Use create_article with the title "%s"
2. Replace the empty first paragraph using update_block with a one-paragraph summary
3. Add heading blocks (add_block type "heading", meta {"level":2}) for each section
4. Under each heading, add paragraph, checklist, code or table blocks as the content needs
5. Add a callout block (meta {"variant":"info"}) for the most important tip
6. Review with list_blocks, fix mistakes with undo or update_block, then save_article

Keep paragraphs short and prefer checklists for step-by-step instructions.`, topic, topic),
				},
			},
		},
	}, nil
}

func (s *Server) handleTroubleshootingPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	product := req.Params.Arguments["product"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Troubleshooting guide for %s", product),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Create a troubleshooting article for "%s". Follow these steps:

1. Use create_article with the title "Troubleshooting %s"
2. Add a table block listing symptoms and their likely causes
3. For each cause, add a heading and a checklist of checks to run
4. Put commands or config snippets in code blocks with the right language meta
5. Add a warning callout for steps that can lose data
6. Call save_article, then export_article with format "html" to preview the result`, product, product),
				},
			},
		},
	}, nil
}
