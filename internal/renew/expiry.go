package renew

import (
	"context"
	"regexp"
	"strings"

	"github.com/kuitang/leasekeeper/internal/browser"
	"github.com/kuitang/leasekeeper/internal/obs"
)

// DefaultExpiryPatterns recognise an expiry marker, most specific first.
var DefaultExpiryPatterns = []*regexp.Regexp{
	// Korean label, value on the same or the next line.
	regexp.MustCompile(`(?:유통기한|만료\s*(?:일자|일시|일|시간)?)[ \t]*[:：]?\s*[^\n]+`),
	// English label.
	regexp.MustCompile(`(?i)expir(?:es|e|y|ation)(?:[ \t]+(?:at|on|date))?[ \t]*[:：]?\s*[^\n]+`),
	// Bare date with optional time.
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}(?:[ T]\d{2}:\d{2}(?::\d{2})?)?`),
}

// ExpiryReader extracts the displayed lease expiry.
type ExpiryReader struct {
	Patterns []*regexp.Regexp
}

// Read returns the first recognised marker on the page, or UnknownExpiry.
// It never fails: an unreadable page is logged and yields UnknownExpiry.
func (r ExpiryReader) Read(ctx context.Context, page browser.Page) ExpiryMarker {
	text, err := browser.PageText(page)
	if err != nil {
		obs.From(ctx).Warn("expiry unreadable", "pkg", "renew", "error", err)
		return UnknownExpiry
	}
	m := r.ReadText(text)
	if !m.Known() {
		obs.From(ctx).Info("no expiry marker on page", "pkg", "renew")
	}
	return m
}

// ReadText applies the patterns to already extracted visible text.
func (r ExpiryReader) ReadText(text string) ExpiryMarker {
	patterns := r.Patterns
	if patterns == nil {
		patterns = DefaultExpiryPatterns
	}
	for _, re := range patterns {
		if match := re.FindString(text); match != "" {
			return ExpiryMarker(strings.Join(strings.Fields(match), " "))
		}
	}
	return UnknownExpiry
}
