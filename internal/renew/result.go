package renew

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// RunResult aggregates target results in processing order.
type RunResult struct {
	RunID     string
	Session   Session
	StartedAt time.Time

	targets []TargetResult
	index   map[string]int
}

// NewRunResult returns an empty result for runID.
func NewRunResult(runID string) *RunResult {
	return &RunResult{
		RunID:     runID,
		StartedAt: time.Now(),
		index:     make(map[string]int),
	}
}

// Add records a target's result. A target already recorded is left untouched:
// outcomes are immutable once written.
func (r *RunResult) Add(tr TargetResult) bool {
	if _, exists := r.index[tr.Target.ID]; exists {
		return false
	}
	r.index[tr.Target.ID] = len(r.targets)
	r.targets = append(r.targets, tr)
	return true
}

// Targets returns the recorded results in processing order.
func (r *RunResult) Targets() []TargetResult {
	out := make([]TargetResult, len(r.targets))
	copy(out, r.targets)
	return out
}

// Len returns the number of recorded targets.
func (r *RunResult) Len() int {
	return len(r.targets)
}

// Counts tallies outcomes per action name.
func (r *RunResult) Counts() map[string]map[Outcome]int {
	counts := make(map[string]map[Outcome]int)
	for _, tr := range r.targets {
		for _, a := range tr.Actions {
			if counts[a.Action] == nil {
				counts[a.Action] = make(map[Outcome]int)
			}
			counts[a.Action][a.Outcome]++
		}
	}
	return counts
}

// WriteSummary prints the per-target outcome table.
func (r *RunResult) WriteSummary(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "TARGET\tACTION\tOUTCOME\tSIGNALS\tEXPIRY BEFORE\tEXPIRY AFTER\n")
	for _, tr := range r.targets {
		for _, a := range tr.Actions {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				tr.Target.ID, a.Action, a.Outcome, signalList(a.Signals), a.Before, a.After)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\n%d target(s), run %s\n", len(r.targets), r.RunID); err != nil {
		return err
	}
	for _, line := range r.tally() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// tally renders Counts as one "action: outcome=n, ..." line per action, sorted.
func (r *RunResult) tally() []string {
	counts := r.Counts()
	actions := make([]string, 0, len(counts))
	for action := range counts {
		actions = append(actions, action)
	}
	sort.Strings(actions)

	lines := make([]string, 0, len(actions))
	for _, action := range actions {
		outcomes := make([]string, 0, len(counts[action]))
		for o, n := range counts[action] {
			outcomes = append(outcomes, fmt.Sprintf("%s=%d", o, n))
		}
		sort.Strings(outcomes)
		lines = append(lines, action+": "+strings.Join(outcomes, ", "))
	}
	return lines
}

// Markdown renders the summary as a markdown table.
func (r *RunResult) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Lease renewal run `%s`\n\n", r.RunID)
	fmt.Fprintf(&b, "Session: %s\n\n", r.Session.Method)
	b.WriteString("| Target | Action | Outcome | Signals | Expiry before | Expiry after |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, tr := range r.targets {
		for _, a := range tr.Actions {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				mdCell(tr.Target.ID), a.Action, a.Outcome, signalList(a.Signals),
				mdCell(a.Before.String()), mdCell(a.After.String()))
		}
	}
	return b.String()
}

func signalList(s []Outcome) string {
	if len(s) == 0 {
		return "-"
	}
	parts := make([]string, len(s))
	for i, o := range s {
		parts[i] = string(o)
	}
	return strings.Join(parts, "+")
}

func mdCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
