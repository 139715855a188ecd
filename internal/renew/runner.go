package renew

import (
	"context"
	"fmt"
	"time"

	"github.com/kuitang/leasekeeper/internal/browser"
	"github.com/kuitang/leasekeeper/internal/config"
	"github.com/kuitang/leasekeeper/internal/errs"
	"github.com/kuitang/leasekeeper/internal/obs"
	"github.com/kuitang/leasekeeper/internal/shots"
	"github.com/kuitang/leasekeeper/internal/wait"
)

// Runner executes one renewal run over the configured targets.
type Runner struct {
	cfg       *config.Config
	page      browser.Page
	targets   []Target
	actions   []Action
	session   *SessionEstablisher
	challenge ChallengeWaiter
	gate      ReadinessGate
	expiry    ExpiryReader
	executor  Executor
	verifier  Verifier
	shots     *shots.Capturer
}

// NewRunner wires the flow from configuration. jar receives the session cookie;
// page is the single tab every step uses.
func NewRunner(cfg *config.Config, page browser.Page, jar CookieJar, capturer *shots.Capturer) *Runner {
	if capturer == nil {
		capturer = shots.NewCapturer(nil)
	}
	t := cfg.Timings
	challenge := ChallengeWaiter{
		Phrases: DefaultChallengePhrases,
		Timeout: t.Challenge,
		Poll:    t.Poll,
	}
	expiry := ExpiryReader{Patterns: DefaultExpiryPatterns}

	actions := []Action{RenewAction}
	if cfg.StartToo {
		actions = append(actions, StartAction)
	}

	return &Runner{
		cfg:       cfg,
		page:      page,
		targets:   ParseTargets(cfg.ServerURLs),
		actions:   actions,
		challenge: challenge,
		session: &SessionEstablisher{
			cfg:       cfg,
			jar:       jar,
			page:      page,
			challenge: challenge,
			form:      DefaultLoginForm,
			shots:     capturer,
		},
		gate: ReadinessGate{
			Challenge:       challenge,
			ControlSelector: defaultControlSelector,
			Timeout:         t.Element,
			Poll:            t.Poll,
		},
		expiry: expiry,
		executor: Executor{
			Timeout:    t.Element,
			HoverPause: t.Poll,
			Settle:     t.ClickSettle,
		},
		verifier: Verifier{
			Challenge:  challenge,
			Expiry:     expiry,
			PopupWait:  t.Popup,
			Poll:       t.Poll,
			Navigation: t.Navigation,
			Settle:     t.ActionSettle,
		},
		shots: capturer,
	}
}

// Run authenticates and processes every target in order. Authentication failure
// returns an empty result and an error before any target is touched. A canceled
// context lets the current target finish, then stops the run and returns the
// partial result with a Canceled error.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	result := NewRunResult(obs.RunIDFromContext(ctx))
	logger := obs.From(ctx).With("pkg", "renew")

	session, err := r.session.Establish(ctx)
	result.Session = session
	if err != nil {
		logger.Error("authentication failed; aborting run", "error", err)
		return result, err
	}
	if !session.Authenticated {
		return result, authFailed("session reported unauthenticated", nil)
	}

	pacer := wait.NewPacer(r.cfg.Timings.TargetPacing)
	for _, target := range r.targets {
		if err := pacer.Wait(ctx); err != nil {
			return result, errs.Wrap(errs.Canceled, "run interrupted", err)
		}
		// A target is never abandoned between click and verification.
		result.Add(r.ProcessTarget(context.WithoutCancel(ctx), target))
	}
	if err := ctx.Err(); err != nil {
		logger.Warn("run interrupted after last target", "targets", result.Len())
		return result, errs.Wrap(errs.Canceled, "run interrupted", err)
	}
	logger.Info("run finished", "targets", result.Len())
	return result, nil
}

// ProcessTarget runs every action against one target. It never fails: problems
// become outcomes on the returned result.
func (r *Runner) ProcessTarget(ctx context.Context, target Target) TargetResult {
	ctx = obs.WithTarget(ctx, target.ID, "")
	logger := obs.From(ctx).With("pkg", "renew")
	res := TargetResult{Target: target}
	t := r.cfg.Timings

	logger.Info("processing target", "address", target.Address)
	if err := r.page.Navigate(target.Address, browser.WaitDOMContentLoaded, t.Navigation); err != nil {
		logger.Warn("navigation failed", "error", err)
		r.shots.Capture(ctx, r.page, r.shotName(target, "", "nav_failed"))
		return r.notReady(res, 0)
	}
	r.challenge.Await(ctx, r.page)
	r.shots.Capture(ctx, r.page, r.shotName(target, "", "loaded"))

	for i, action := range r.actions {
		if i > 0 {
			// Renew and start are separated by a settle and a fresh page.
			_ = wait.Sleep(ctx, t.ActionSettle)
			if err := r.page.Reload(browser.WaitDOMContentLoaded, t.Navigation); err != nil {
				logger.Warn("reload failed", "error", err)
				return r.notReady(res, i)
			}
			r.challenge.Await(ctx, r.page)
		}
		if !r.gate.IsReady(ctx, r.page) {
			r.shots.Capture(ctx, r.page, r.shotName(target, action.Name, "not_ready"))
			return r.notReady(res, i)
		}
		res.Actions = append(res.Actions, r.runAction(obs.WithTarget(ctx, "", action.Name), target, action))
	}
	return res
}

// notReady records PageNotReady for every action from index i on.
func (r *Runner) notReady(res TargetResult, from int) TargetResult {
	for _, action := range r.actions[from:] {
		res.Actions = append(res.Actions, ActionResult{Action: action.Name, Outcome: PageNotReady})
	}
	return res
}

func (r *Runner) runAction(ctx context.Context, target Target, action Action) ActionResult {
	logger := obs.From(ctx).With("pkg", "renew")
	started := time.Now()
	res := ActionResult{Action: action.Name}
	defer func() {
		logger.Info("action finished", "outcome", string(res.Outcome), "duration", time.Since(started).String())
	}()

	if action.TrackExpiry {
		res.Before = r.expiry.Read(ctx, r.page)
		logger.Info("expiry before action", "expiry", res.Before.String())
	}

	control, matched, ok := Locate(ctx, r.page, action.Matchers)
	if !ok {
		logger.Warn("control not found")
		r.shots.Capture(ctx, r.page, r.shotName(target, action.Name, "no_button"))
		res.Outcome = NoButton
		res.Duration = time.Since(started)
		return res
	}
	res.Matched = matched.String()

	baseline, _ := browser.PageText(r.page)
	r.shots.Capture(ctx, r.page, r.shotName(target, action.Name, "before_click"))

	if err := r.executor.Execute(ctx, control); err != nil {
		logger.Warn("click failed", "error", err)
		r.shots.Capture(ctx, r.page, r.shotName(target, action.Name, "click_failed"))
		res.Outcome = ClickFailed
		res.Duration = time.Since(started)
		return res
	}
	r.shots.Capture(ctx, r.page, r.shotName(target, action.Name, "after_click"))

	v := r.verifier.Verify(ctx, r.page, action, res.Before, baseline)
	step := "verified"
	if action.TrackExpiry {
		step = "after_reload"
	}
	r.shots.Capture(ctx, r.page, r.shotName(target, action.Name, step))

	res.Outcome = v.Outcome
	res.Signals = v.Signals()
	res.After = v.After
	res.Duration = time.Since(started)
	return res
}

func (r *Runner) shotName(target Target, action, step string) string {
	if action == "" {
		return fmt.Sprintf("server_%s_%s", target.ID, step)
	}
	return fmt.Sprintf("server_%s_%s_%s", target.ID, action, step)
}
