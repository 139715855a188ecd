package renew

import (
	"context"
	"strconv"

	"github.com/kuitang/leasekeeper/internal/browser"
	"github.com/kuitang/leasekeeper/internal/obs"
)

// MatchKind selects how a Matcher turns its value into a selector.
type MatchKind string

const (
	ExactText   MatchKind = "exact_text"
	Substring   MatchKind = "substring"
	AnyText     MatchKind = "any_text"
	GenericIcon MatchKind = "generic_icon"
)

const defaultIconSelector = "button:has(svg)"

// Matcher is one strategy for finding a control.
type Matcher struct {
	Kind  MatchKind
	Value string
}

// Exact matches a button whose whole text equals label.
func Exact(label string) Matcher { return Matcher{Kind: ExactText, Value: label} }

// Contains matches a button whose text contains label.
func Contains(label string) Matcher { return Matcher{Kind: Substring, Value: label} }

// Text matches any element, not only a button, whose text contains label.
// Panels that render controls as styled links or divs are caught here.
func Text(label string) Matcher { return Matcher{Kind: AnyText, Value: label} }

// Icon matches an icon-bearing button by CSS selector; empty means any button with an svg.
func Icon(selector string) Matcher { return Matcher{Kind: GenericIcon, Value: selector} }

// Selector returns the Playwright selector for the matcher.
func (m Matcher) Selector() string {
	switch m.Kind {
	case ExactText:
		return "button:text-is(" + strconv.Quote(m.Value) + ")"
	case Substring:
		return "button:has-text(" + strconv.Quote(m.Value) + ")"
	case AnyText:
		return "text=" + m.Value
	default:
		if m.Value == "" {
			return defaultIconSelector
		}
		return m.Value
	}
}

func (m Matcher) String() string {
	return string(m.Kind) + ":" + m.Value
}

// Locate tries matchers in order and returns the first visible match of the first
// matcher that has one. Lookup errors on one matcher fall through to the next.
func Locate(ctx context.Context, page browser.Page, matchers []Matcher) (browser.Control, Matcher, bool) {
	logger := obs.From(ctx).With("pkg", "renew")
	for _, m := range matchers {
		c, ok, err := page.FirstVisible(m.Selector())
		if err != nil {
			logger.Debug("matcher lookup failed", "matcher", m.String(), "error", err)
			continue
		}
		if ok {
			logger.Info("control located", "matcher", m.String(), "text", c.Text())
			return c, m, true
		}
	}
	return nil, Matcher{}, false
}
