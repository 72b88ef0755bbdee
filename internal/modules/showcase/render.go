package showcase

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/uidex/core/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Table,
		extension.Strikethrough,
		extension.TaskList,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithXHTML(),
	),
)

func renderMarkdown(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	var out bytes.Buffer
	if err := markdownEngine.Convert([]byte(text), &out); err != nil {
		return "<p>" + template.HTMLEscapeString(text) + "</p>"
	}
	return out.String()
}

const reviewPageStyle = `body{max-width:720px;margin:2rem auto;padding:0 1rem;font-family:system-ui,sans-serif;line-height:1.6;color:#222}
h1{font-size:1.5rem}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.3rem .6rem}
.meta{color:#666;font-size:.9rem}.tags span{background:#eef;border-radius:3px;padding:.1rem .4rem;margin-right:.3rem}`

// renderReviewPage builds a self-contained HTML page for one showcase's
// review, scores included.
func renderReviewPage(title string, row *models.ShowcaseModel) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>")
	b.WriteString(template.HTMLEscapeString(title))
	b.WriteString("</title><style>")
	b.WriteString(reviewPageStyle)
	b.WriteString("</style></head><body><article><h1>")
	b.WriteString(template.HTMLEscapeString(title))
	b.WriteString("</h1>")

	b.WriteString(fmt.Sprintf("<p class=\"meta\">%s · %s</p>",
		template.HTMLEscapeString(row.UIType),
		row.CreatedAt.Format("2006-01-02")))

	if len(row.Tags) > 0 {
		b.WriteString("<p class=\"tags\">")
		for _, tag := range row.Tags {
			b.WriteString("<span>" + template.HTMLEscapeString(tag) + "</span>")
		}
		b.WriteString("</p>")
	}

	b.WriteString("<h2>Structure</h2>")
	b.WriteString(renderMarkdown(row.StructureNote))
	b.WriteString("<h2>Review</h2>")
	b.WriteString(renderMarkdown(row.ReviewText))

	scores := [][2]interface{}{
		{"Aesthetic", row.ScoreAesthetic},
		{"Usability", row.ScoreUsability},
		{"Alignment", row.ScoreAlignment},
		{"Accessibility", row.ScoreAccessibility},
		{"Consistency", row.ScoreConsistency},
	}
	hasScores := false
	for _, s := range scores {
		if s[1].(*float64) != nil {
			hasScores = true
			break
		}
	}
	if hasScores {
		b.WriteString("<h2>Scores</h2><table><tr><th>Category</th><th>Score</th></tr>")
		for _, s := range scores {
			value := s[1].(*float64)
			if value == nil {
				continue
			}
			b.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%.1f / 10</td></tr>", s[0], *value))
		}
		b.WriteString("</table>")
	}

	b.WriteString("</article></body></html>")
	return b.String()
}
