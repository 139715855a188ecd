// Package notify delivers the run summary by e-mail.
package notify

import (
	"context"
	"fmt"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// Message is one rendered notification.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Notifier sends a rendered message.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// policy is safe for concurrent use once built.
var policy = bluemonday.UGCPolicy()

// RenderHTML converts summary markdown to sanitized HTML. Summary cells carry text
// scraped from the panel, so the output is always passed through the UGC policy.
func RenderHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse([]byte(md))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return string(policy.SanitizeBytes(markdown.Render(doc, renderer)))
}

// NewMessage builds the summary message for a run.
func NewMessage(to, runID string, confirmed, total int, summaryMarkdown string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("leasekeeper %s: %d/%d renewals confirmed", runID, confirmed, total),
		HTML:    RenderHTML(summaryMarkdown),
		Text:    summaryMarkdown,
	}
}
