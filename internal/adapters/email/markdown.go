package email

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// mdRenderer converts Markdown bodies to HTML. Raw HTML in the input is
// escaped because WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// RenderMarkdown converts a Markdown body to HTML.
func RenderMarkdown(md string) (string, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// NewMarkdownRequest builds a SendRequest whose HTML is rendered from md and
// whose plain-text part is md itself.
func NewMarkdownRequest(to []string, subject, md string) (SendRequest, error) {
	html, err := RenderMarkdown(md)
	if err != nil {
		return SendRequest{}, err
	}
	return SendRequest{
		To:      to,
		Subject: subject,
		HTML:    html,
		Text:    md,
	}, nil
}
