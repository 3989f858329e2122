// Package chatmd renders chat message content as HTML for the web channel.
//
// Assistant answers are treated as Markdown (GFM). Raw HTML inside an answer
// is dropped by the renderer, so the output is safe to insert into the page.
// User messages are escaped verbatim.
package chatmd

import (
	"bytes"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/linanwx/askchat/chat"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// ToHTML converts Markdown into HTML. On a conversion error the text is
// returned escaped inside a paragraph.
func ToHTML(markdown string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return escapedParagraph(markdown)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// Render returns the HTML body for m. Any content, including "", renders.
func Render(m chat.Message) string {
	if m.Role == chat.RoleAssistant {
		return ToHTML(m.Content)
	}
	return escapedParagraph(m.Content)
}

func escapedParagraph(text string) string {
	escaped := html.EscapeString(text)
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return "<p>" + escaped + "</p>"
}
