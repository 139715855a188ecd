package renew

import (
	"strings"
	"time"
)

// Outcome is the verdict recorded for one action on one target.
type Outcome string

const (
	NoButton       Outcome = "no_button"
	ClickFailed    Outcome = "click_failed"
	PopupConfirmed Outcome = "popup_confirmed"
	ExpiryChanged  Outcome = "expiry_changed"
	Confirmed      Outcome = "confirmed"
	Unconfirmed    Outcome = "unconfirmed"
	PageNotReady   Outcome = "page_not_ready"
)

// Succeeded reports whether the outcome counts as the action having taken effect.
func (o Outcome) Succeeded() bool {
	return o == Confirmed || o == PopupConfirmed || o == ExpiryChanged
}

// ExpiryMarker is the expiry text shown on a control page. The zero value is unknown.
type ExpiryMarker string

// UnknownExpiry is returned when no expiry marker could be read.
const UnknownExpiry ExpiryMarker = ""

// Known reports whether a marker was read.
func (m ExpiryMarker) Known() bool {
	return strings.TrimSpace(string(m)) != ""
}

func (m ExpiryMarker) String() string {
	if !m.Known() {
		return "unknown"
	}
	return string(m)
}

// ActionResult is the immutable record of one action on one target.
type ActionResult struct {
	Action  string
	Outcome Outcome
	// Signals lists which verification signals fired (PopupConfirmed, ExpiryChanged).
	Signals  []Outcome
	Before   ExpiryMarker
	After    ExpiryMarker
	Matched  string
	Duration time.Duration
}

// TargetResult holds the action results of one target in execution order.
type TargetResult struct {
	Target  Target
	Actions []ActionResult
}

// Outcome returns the recorded outcome for the named action.
func (r TargetResult) Outcome(action string) (Outcome, bool) {
	for _, a := range r.Actions {
		if a.Action == action {
			return a.Outcome, true
		}
	}
	return "", false
}
