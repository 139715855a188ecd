// Package browsertest provides a scripted, in-memory browser.Page for tests.
package browsertest

import (
	"fmt"
	"strings"
	"time"

	"github.com/kuitang/leasekeeper/internal/browser"
)

// Screen is what the page shows after one navigation or reload.
type Screen struct {
	// RedirectTo, when set, becomes the page URL instead of the requested one.
	RedirectTo string
	HTML       string
	// Controls maps a selector to the element it resolves to.
	Controls map[string]*Control
}

// Control is a fake element.
type Control struct {
	Label    string
	Hidden   bool
	HoverErr error
	ClickErr error
	// OnClick runs after a successful click; use it to mutate the page.
	OnClick func(p *Page)
	Clicks  int
}

func (c *Control) Hover(time.Duration) error { return c.HoverErr }

func (c *Control) Click(time.Duration) error {
	if c.ClickErr != nil {
		return c.ClickErr
	}
	c.Clicks++
	return nil
}

func (c *Control) Text() string { return c.Label }

// Page is a scripted browser.Page. Each navigation or reload of a URL shows the
// next Screen registered for it; the last Screen repeats.
type Page struct {
	Screens     map[string][]Screen
	NavigateErr map[string]error
	ContentErr  error
	ShotErr     error

	Navigations []string
	Reloads     int
	Filled      map[string]string
	Shots       int

	url     string
	visits  map[string]int
	current Screen
}

var _ browser.Page = (*Page)(nil)

// New returns a page with the given screens keyed by URL.
func New(screens map[string][]Screen) *Page {
	return &Page{
		Screens:     screens,
		NavigateErr: map[string]error{},
		Filled:      map[string]string{},
		visits:      map[string]int{},
	}
}

// Show replaces what the page currently displays without navigating.
func (p *Page) Show(s Screen) {
	p.current = s
	if s.RedirectTo != "" {
		p.url = s.RedirectTo
	}
}

// AppendHTML adds markup to the current screen, e.g. a toast after a click.
func (p *Page) AppendHTML(html string) {
	p.current.HTML += html
}

func (p *Page) Navigate(url string, _ browser.WaitPolicy, _ time.Duration) error {
	p.Navigations = append(p.Navigations, url)
	if err := p.NavigateErr[url]; err != nil {
		return err
	}
	p.load(url)
	return nil
}

func (p *Page) Reload(_ browser.WaitPolicy, _ time.Duration) error {
	p.Reloads++
	p.load(p.url)
	return nil
}

func (p *Page) load(url string) {
	p.url = url
	screens := p.Screens[url]
	if len(screens) == 0 {
		p.current = Screen{HTML: "<html><body><h1>404</h1></body></html>"}
		return
	}
	i := p.visits[url]
	if i >= len(screens) {
		i = len(screens) - 1
	}
	p.visits[url]++
	p.Show(screens[i])
}

func (p *Page) URL() string { return p.url }

func (p *Page) Content() (string, error) {
	if p.ContentErr != nil {
		return "", p.ContentErr
	}
	return p.current.HTML, nil
}

func (p *Page) FirstVisible(selector string) (browser.Control, bool, error) {
	c, ok := p.current.Controls[selector]
	if !ok || c == nil || c.Hidden {
		return nil, false, nil
	}
	return &clickHook{Control: c, page: p}, true, nil
}

func (p *Page) Fill(selector, value string, _ time.Duration) error {
	if _, ok := p.current.Controls[selector]; !ok {
		return fmt.Errorf("browsertest: fill %s: %w", selector, browser.ErrTimeout)
	}
	p.Filled[selector] = value
	return nil
}

func (p *Page) Screenshot() ([]byte, error) {
	if p.ShotErr != nil {
		return nil, p.ShotErr
	}
	p.Shots++
	return []byte("\x89PNG fake " + p.url), nil
}

// Visits reports how many times url has been loaded.
func (p *Page) Visits(url string) int { return p.visits[url] }

type clickHook struct {
	*Control
	page *Page
}

func (h *clickHook) Click(d time.Duration) error {
	if err := h.Control.Click(d); err != nil {
		return err
	}
	if h.OnClick != nil {
		h.OnClick(h.page)
	}
	return nil
}

// Button returns a visible control with the given label.
func Button(label string) *Control {
	return &Control{Label: label}
}

// HTML wraps body markup into a document.
func HTML(body ...string) string {
	return "<html><body>" + strings.Join(body, "") + "</body></html>"
}

// ErrClickTimeout is a convenience error for click failures.
var ErrClickTimeout = fmt.Errorf("browsertest: click: %w", browser.ErrTimeout)
