package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/docsage/docsage/internal/core/domain"
)

// FormatContent renders a guarded content variant in the requested format.
// HTML renderers escape &<> before insertion; they are not idempotent, so
// callers must not feed pre-escaped text through them twice.
func FormatContent(content domain.Content, format domain.AnswerFormat) string {
	switch c := content.(type) {
	case domain.DirectContent:
		return formatText(c.Text, format)
	case domain.FullDocumentContent:
		return formatText(c.Text, format)
	case domain.SummaryContent:
		return formatBullets(c.Bullets, format)
	case domain.QuoteContent:
		return formatQuote(c.Text, format)
	case domain.ListContent:
		return formatList(c.Items, format)
	case domain.TableContent:
		return formatTable(c.Rows, format)
	default:
		return ""
	}
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

func formatText(text string, format domain.AnswerFormat) string {
	trimmed := strings.TrimSpace(text)
	switch format {
	case domain.FormatMarkdown:
		return tripleNewlineRE.ReplaceAllString(trimmed, "\n\n")
	case domain.FormatHTML:
		return textToHTML(trimmed)
	default:
		return trimmed
	}
}

func textToHTML(text string) string {
	escaped := escapeHTML(text)
	paragraphs := strings.Split(tripleNewlineRE.ReplaceAllString(escaped, "\n\n"), "\n\n")
	var b strings.Builder
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(p, "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

func formatBullets(bullets []string, format domain.AnswerFormat) string {
	switch format {
	case domain.FormatMarkdown:
		lines := make([]string, 0, len(bullets))
		for _, b := range bullets {
			lines = append(lines, "- "+b)
		}
		return strings.Join(lines, "\n")
	case domain.FormatHTML:
		var sb strings.Builder
		sb.WriteString("<ul>")
		for _, b := range bullets {
			sb.WriteString("<li>")
			sb.WriteString(escapeHTML(b))
			sb.WriteString("</li>")
		}
		sb.WriteString("</ul>")
		return sb.String()
	default:
		lines := make([]string, 0, len(bullets))
		for _, b := range bullets {
			lines = append(lines, "- "+b)
		}
		return strings.Join(lines, "\n")
	}
}

func formatQuote(text string, format domain.AnswerFormat) string {
	trimmed := strings.TrimSpace(text)
	switch format {
	case domain.FormatMarkdown:
		return "> " + trimmed
	case domain.FormatHTML:
		return "<blockquote>" + escapeHTML(trimmed) + "</blockquote>"
	default:
		return trimmed
	}
}

func formatList(items []domain.ListItem, format domain.AnswerFormat) string {
	switch format {
	case domain.FormatHTML:
		var sb strings.Builder
		sb.WriteString("<ol>")
		for _, item := range items {
			sb.WriteString("<li>")
			sb.WriteString(escapeHTML(item.Text))
			sb.WriteString("</li>")
		}
		sb.WriteString("</ol>")
		return sb.String()
	default:
		lines := make([]string, 0, len(items))
		for _, item := range items {
			lines = append(lines, fmt.Sprintf("%d. %s", item.Number, item.Text))
		}
		return strings.Join(lines, "\n")
	}
}

func formatTable(rows []domain.TableRow, format domain.AnswerFormat) string {
	switch format {
	case domain.FormatMarkdown:
		var sb strings.Builder
		sb.WriteString("| Campo | Valor |\n|---|---|")
		for _, row := range rows {
			sb.WriteString(fmt.Sprintf("\n| %s | %s |", row.Key, row.Value))
		}
		return sb.String()
	case domain.FormatHTML:
		var sb strings.Builder
		sb.WriteString("<table>")
		for _, row := range rows {
			sb.WriteString("<tr><td>")
			sb.WriteString(escapeHTML(row.Key))
			sb.WriteString("</td><td>")
			sb.WriteString(escapeHTML(row.Value))
			sb.WriteString("</td></tr>")
		}
		sb.WriteString("</table>")
		return sb.String()
	default:
		keyWidth := 0
		for _, row := range rows {
			if w := utf8.RuneCountInString(row.Key); w > keyWidth {
				keyWidth = w
			}
		}
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			lines = append(lines, fmt.Sprintf("%-*s  %s", keyWidth+1, row.Key+":", row.Value))
		}
		return strings.Join(lines, "\n")
	}
}
