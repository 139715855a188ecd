package renew

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/kuitang/leasekeeper/internal/browser"
	"github.com/kuitang/leasekeeper/internal/obs"
	"github.com/kuitang/leasekeeper/internal/wait"
)

// DefaultChallengePhrases mark an interstitial bot-challenge page.
var DefaultChallengePhrases = []string{
	"Checking your browser",
	"Just a moment",
	"Cloudflare",
}

// ChallengeWaiter waits out bot-challenge interstitials.
type ChallengeWaiter struct {
	Phrases []string
	Timeout time.Duration
	Poll    time.Duration
}

// Present reports whether the page currently shows a challenge.
// An unreadable page is treated as not showing one.
func (w ChallengeWaiter) Present(page browser.Page) bool {
	text, err := browser.PageText(page)
	if err != nil {
		return false
	}
	return containsAny(text, w.Phrases) != ""
}

// Await blocks up to Timeout while a challenge is shown. It never fails; it reports
// whether the page ended up free of a challenge.
func (w ChallengeWaiter) Await(ctx context.Context, page browser.Page) bool {
	if !w.Present(page) {
		return true
	}
	logger := obs.From(ctx).With("pkg", "renew")
	logger.Info("bot challenge detected; waiting", "timeout", w.Timeout.String())
	cleared := wait.Until(ctx, w.Timeout, w.Poll, func() bool { return !w.Present(page) })
	if cleared {
		logger.Info("bot challenge cleared")
	} else {
		logger.Warn("bot challenge still present after wait")
	}
	return cleared
}

// IsAuthURL reports whether rawURL points at a login or auth page.
func IsAuthURL(rawURL string) bool {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	for _, seg := range strings.Split(strings.ToLower(p), "/") {
		if seg == "auth" || strings.Contains(seg, "login") {
			return true
		}
	}
	return false
}

// containsAny returns the first phrase found in text, compared case-insensitively.
func containsAny(text string, phrases []string) string {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return p
		}
	}
	return ""
}
