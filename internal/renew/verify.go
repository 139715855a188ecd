package renew

import (
	"context"
	"strings"
	"time"

	"github.com/kuitang/leasekeeper/internal/browser"
	"github.com/kuitang/leasekeeper/internal/obs"
	"github.com/kuitang/leasekeeper/internal/wait"
)

// Verification is the evidence gathered after a click and the verdict drawn from it.
type Verification struct {
	Popup       bool
	PopupPhrase string
	Before      ExpiryMarker
	After       ExpiryMarker
	Outcome     Outcome
}

// Signals lists the success signals that fired.
func (v Verification) Signals() []Outcome {
	var s []Outcome
	if v.Popup {
		s = append(s, PopupConfirmed)
	}
	if expiryChanged(v.Before, v.After) {
		s = append(s, ExpiryChanged)
	}
	return s
}

// Decide combines the two signals: either one is enough.
// A popup may vanish before the reload, and the panel may update the expiry
// without any popup, so neither signal is required.
func Decide(popup bool, before, after ExpiryMarker) Outcome {
	if popup || expiryChanged(before, after) {
		return Confirmed
	}
	return Unconfirmed
}

func expiryChanged(before, after ExpiryMarker) bool {
	return before.Known() && after.Known() && before != after
}

// Verifier collects the popup and expiry-delta signals for one click.
// It keeps no state between calls.
type Verifier struct {
	Challenge  ChallengeWaiter
	Expiry     ExpiryReader
	PopupWait  time.Duration
	Poll       time.Duration
	Navigation time.Duration
	Settle     time.Duration
}

// Verify polls for a success phrase that was not in baseline (the page text before
// the click), then, for actions that track expiry, reloads and re-reads the marker.
func (v Verifier) Verify(ctx context.Context, page browser.Page, action Action, before ExpiryMarker, baseline string) Verification {
	logger := obs.From(ctx).With("pkg", "renew")
	res := Verification{Before: before}

	wait.Until(ctx, v.PopupWait, v.Poll, func() bool {
		text, err := browser.PageText(page)
		if err != nil {
			return false
		}
		res.PopupPhrase = newPhrase(text, baseline, action.SuccessPhrases)
		return res.PopupPhrase != ""
	})
	res.Popup = res.PopupPhrase != ""
	logger.Info("popup signal", "observed", res.Popup, "phrase", res.PopupPhrase)

	if action.TrackExpiry {
		res.After = v.reread(ctx, page)
		logger.Info("expiry signal", "before", before.String(), "after", res.After.String(), "changed", expiryChanged(before, res.After))
	}

	res.Outcome = Decide(res.Popup, res.Before, res.After)
	return res
}

func (v Verifier) reread(ctx context.Context, page browser.Page) ExpiryMarker {
	if err := page.Reload(browser.WaitLoad, v.Navigation); err != nil {
		obs.From(ctx).Warn("reload before expiry re-read failed", "pkg", "renew", "error", err)
		return UnknownExpiry
	}
	v.Challenge.Await(ctx, page)
	if err := wait.Sleep(ctx, v.Settle); err != nil {
		return UnknownExpiry
	}
	return v.Expiry.Read(ctx, page)
}

// newPhrase returns the first phrase that occurs more often in text than in
// baseline, so a fresh toast counts even when an older one says the same thing.
func newPhrase(text, baseline string, phrases []string) string {
	lowerText := strings.ToLower(text)
	lowerBase := strings.ToLower(baseline)
	for _, p := range phrases {
		lp := strings.ToLower(p)
		if lp == "" {
			continue
		}
		if strings.Count(lowerText, lp) > strings.Count(lowerBase, lp) {
			return p
		}
	}
	return ""
}
