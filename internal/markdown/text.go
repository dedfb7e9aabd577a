// Package markdown converts between the block model and the flat text body
// articles are stored as.
package markdown

import (
	"strings"

	"kbedit/internal/domain"
)

// BlockSeparator joins rendered blocks in the flat text form.
const BlockSeparator = "\n\n"

// ToText flattens blocks into markdown-flavoured text.
func ToText(blocks []domain.Block) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = BlockText(b)
	}
	return strings.Join(parts, BlockSeparator)
}

// BlockText renders a single block.
func BlockText(b domain.Block) string {
	return domain.Visit[string](b, textRenderer{})
}

// FromText is the load path for flat text: non-empty text becomes one
// paragraph holding it verbatim, empty text one empty paragraph.
func FromText(s string) []domain.Block {
	return []domain.Block{domain.NewParagraph(s)}
}

type textRenderer struct{}

func (textRenderer) Paragraph(_ domain.Block, text domain.Text) string {
	return string(text)
}

func (textRenderer) Heading(_ domain.Block, text domain.Text, meta domain.HeadingMeta) string {
	level := meta.Level
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + string(text)
}

func (textRenderer) Quote(_ domain.Block, text domain.Text) string {
	return "> " + string(text)
}

func (textRenderer) Code(_ domain.Block, text domain.Text, meta domain.CodeMeta) string {
	ticks := longestBacktickSeq(string(text)) + 1
	if ticks < 3 {
		ticks = 3
	}
	fence := strings.Repeat("`", ticks)

	var sb strings.Builder
	sb.WriteString(fence)
	sb.WriteString(meta.Language)
	sb.WriteByte('\n')
	sb.WriteString(string(text))
	sb.WriteByte('\n')
	sb.WriteString(fence)
	return sb.String()
}

func (textRenderer) Checklist(_ domain.Block, items domain.Checklist) string {
	lines := make([]string, len(items))
	for i, item := range items {
		if item.Checked {
			lines[i] = "- [x] " + item.Text
		} else {
			lines[i] = "- [ ] " + item.Text
		}
	}
	return strings.Join(lines, "\n")
}

func (textRenderer) Callout(_ domain.Block, text domain.Text, meta domain.CalloutMeta) string {
	return "> **" + strings.ToUpper(string(meta.Variant)) + "**: " + string(text)
}

func (textRenderer) Divider(domain.Block) string {
	return "---"
}

func (textRenderer) Image(_ domain.Block, img domain.ImageContent, _ domain.ImageMeta) string {
	out := "![" + img.Alt + "](" + img.Src + ")"
	if img.Caption != "" {
		out += "\n*" + img.Caption + "*"
	}
	return out
}

func (textRenderer) Table(_ domain.Block, table domain.TableContent) string {
	width := len(table.Headers)
	for _, row := range table.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return ""
	}

	lines := make([]string, 0, len(table.Rows)+2)
	lines = append(lines, tableRow(table.Headers, width))
	sep := make([]string, width)
	for i := range sep {
		sep[i] = "---"
	}
	lines = append(lines, "| "+strings.Join(sep, " | ")+" |")
	for _, row := range table.Rows {
		lines = append(lines, tableRow(row, width))
	}
	return strings.Join(lines, "\n")
}

func (textRenderer) Embed(_ domain.Block, embed domain.EmbedContent) string {
	if embed.Title == "" {
		return embed.URL
	}
	return "[" + embed.Title + "](" + embed.URL + ")"
}

func tableRow(cells []string, width int) string {
	out := make([]string, width)
	for i := range out {
		if i < len(cells) {
			out[i] = escapeCell(cells[i])
		}
	}
	return "| " + strings.Join(out, " | ") + " |"
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

func escapeCell(s string) string {
	return cellEscaper.Replace(s)
}

func longestBacktickSeq(data string) int {
	longest, current := 0, 0
	for _, r := range data {
		if r == '`' {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	return longest
}
