package markdown

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"kbedit/internal/domain"
)

var htmlRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithXHTML()),
)

// RenderHTML renders flat article text as HTML. Raw HTML in the source is
// omitted.
func RenderHTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := htmlRenderer.Convert([]byte(text), &buf); err != nil {
		return "", errors.Wrap(err, "render html")
	}
	return buf.String(), nil
}

// BlocksToHTML flattens blocks and renders the result.
func BlocksToHTML(blocks []domain.Block) (string, error) {
	return RenderHTML(ToText(blocks))
}
