package renew

import (
	"context"
	"time"

	"github.com/kuitang/leasekeeper/internal/browser"
	"github.com/kuitang/leasekeeper/internal/logutil"
	"github.com/kuitang/leasekeeper/internal/obs"
	"github.com/kuitang/leasekeeper/internal/wait"
)

const defaultControlSelector = "button"

// ReadinessGate decides whether a navigated page is the real control page.
type ReadinessGate struct {
	Challenge ChallengeWaiter
	// ControlSelector is any interactive control expected on a control page.
	ControlSelector string
	Timeout         time.Duration
	Poll            time.Duration
}

// IsReady waits up to Timeout for the page to be off any login URL, free of a
// challenge, and showing at least one visible control.
func (g ReadinessGate) IsReady(ctx context.Context, page browser.Page) bool {
	selector := g.ControlSelector
	if selector == "" {
		selector = defaultControlSelector
	}

	var reason string
	ready := wait.Until(ctx, g.Timeout, g.Poll, func() bool {
		switch {
		case IsAuthURL(page.URL()):
			reason = "redirected to login"
			return false
		case g.Challenge.Present(page):
			reason = "challenge page"
			return false
		}
		_, ok, err := page.FirstVisible(selector)
		if err != nil || !ok {
			reason = "no visible control"
			return false
		}
		return true
	})

	if !ready {
		preview := ""
		if text, err := browser.PageText(page); err == nil {
			preview = logutil.TruncateForLog(text, 200)
		}
		obs.From(ctx).Warn("page not ready",
			"pkg", "renew",
			"url", page.URL(),
			"reason", reason,
			"preview", preview,
		)
	}
	return ready
}
