package renew

import (
	"context"
	"errors"
	"fmt"

	"github.com/kuitang/leasekeeper/internal/browser"
	"github.com/kuitang/leasekeeper/internal/config"
	"github.com/kuitang/leasekeeper/internal/errs"
	"github.com/kuitang/leasekeeper/internal/obs"
	"github.com/kuitang/leasekeeper/internal/shots"
	"github.com/kuitang/leasekeeper/internal/wait"
)

// ErrAuthenticationFailed marks the one failure that aborts a run.
var ErrAuthenticationFailed = errors.New("session not authenticated")

// Method is how a session was authenticated.
type Method string

const (
	MethodCookie      Method = "cookie"
	MethodCredentials Method = "credentials"
)

// Session is the authenticated browsing context of one run.
type Session struct {
	Authenticated bool
	Method        Method
}

// CookieJar accepts cookies for the browsing context.
type CookieJar interface {
	AddCookie(c browser.Cookie) error
}

// LoginForm holds the selectors of the panel's login form.
type LoginForm struct {
	UsernameSelector string
	PasswordSelector string
	SubmitSelector   string
}

// DefaultLoginForm matches the Pterodactyl login page.
var DefaultLoginForm = LoginForm{
	UsernameSelector: `input[name="username"]`,
	PasswordSelector: `input[name="password"]`,
	SubmitSelector:   `button[type="submit"]`,
}

// SessionEstablisher authenticates the page, preferring the stored session cookie.
type SessionEstablisher struct {
	cfg       *config.Config
	jar       CookieJar
	page      browser.Page
	challenge ChallengeWaiter
	form      LoginForm
	shots     *shots.Capturer
}

// Establish authenticates via cookie when one is configured, otherwise via the
// login form. The login endpoint is never visited on the cookie path.
func (s *SessionEstablisher) Establish(ctx context.Context) (Session, error) {
	if s.cfg.UsesCookie() {
		return s.withCookie(ctx)
	}
	return s.withCredentials(ctx)
}

func (s *SessionEstablisher) withCookie(ctx context.Context) (Session, error) {
	logger := obs.From(ctx).With("pkg", "renew")
	logger.Info("authenticating with stored session cookie", "cookie", s.cfg.SessionCookieName)

	err := s.jar.AddCookie(browser.Cookie{
		Name:     s.cfg.SessionCookieName,
		Value:    s.cfg.SessionCookie,
		Domain:   s.cfg.PanelHost(),
		Path:     "/",
		Secure:   true,
		HTTPOnly: true,
	})
	if err != nil {
		return Session{Method: MethodCookie}, authFailed("inject cookie", err)
	}

	if err := s.page.Navigate(s.cfg.PanelURL, browser.WaitDOMContentLoaded, s.cfg.Timings.Navigation); err != nil {
		return Session{Method: MethodCookie}, authFailed("open panel", err)
	}
	return s.confirm(ctx, MethodCookie, "login_home")
}

func (s *SessionEstablisher) withCredentials(ctx context.Context) (Session, error) {
	logger := obs.From(ctx).With("pkg", "renew")
	logger.Info("authenticating with credentials", "login_url", s.cfg.LoginURL)

	t := s.cfg.Timings
	if err := s.page.Navigate(s.cfg.LoginURL, browser.WaitDOMContentLoaded, t.Navigation); err != nil {
		return Session{Method: MethodCredentials}, authFailed("open login page", err)
	}
	s.challenge.Await(ctx, s.page)

	if err := s.page.Fill(s.form.UsernameSelector, s.cfg.Email, t.Element); err != nil {
		s.shots.Capture(ctx, s.page, "login_form_missing")
		return Session{Method: MethodCredentials}, authFailed("fill username", err)
	}
	if err := s.page.Fill(s.form.PasswordSelector, s.cfg.Password, t.Element); err != nil {
		return Session{Method: MethodCredentials}, authFailed("fill password", err)
	}
	submit, ok, err := s.page.FirstVisible(s.form.SubmitSelector)
	if err != nil || !ok {
		s.shots.Capture(ctx, s.page, "login_form_missing")
		return Session{Method: MethodCredentials}, authFailed("find submit button", err)
	}
	if err := submit.Click(t.Element); err != nil {
		return Session{Method: MethodCredentials}, authFailed("submit login form", err)
	}
	return s.confirm(ctx, MethodCredentials, "login_result")
}

// confirm settles, waits out any challenge and checks the page left the login flow.
func (s *SessionEstablisher) confirm(ctx context.Context, method Method, shot string) (Session, error) {
	_ = wait.Sleep(ctx, s.cfg.Timings.LoginSettle)
	s.challenge.Await(ctx, s.page)
	s.shots.Capture(ctx, s.page, shot)

	if url := s.page.URL(); IsAuthURL(url) {
		return Session{Method: method}, authFailed("still on login page: "+url, nil)
	}
	obs.From(ctx).Info("session established", "pkg", "renew", "method", string(method))
	return Session{Authenticated: true, Method: method}, nil
}

func authFailed(step string, cause error) error {
	var err error
	if cause != nil {
		err = fmt.Errorf("%w: %s: %w", ErrAuthenticationFailed, step, cause)
	} else {
		err = fmt.Errorf("%w: %s", ErrAuthenticationFailed, step)
	}
	return errs.Wrap(errs.PermissionDenied, "authentication failed", err)
}
