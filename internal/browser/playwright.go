package browser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// DefaultLaunchArgs are passed to Chromium on every launch.
var DefaultLaunchArgs = []string{
	"--disable-blink-features=AutomationControlled",
	"--no-sandbox",
	"--disable-dev-shm-usage",
}

// LaunchOptions configures the Playwright-backed driver.
type LaunchOptions struct {
	Headless       bool
	Args           []string
	ViewportWidth  int
	ViewportHeight int
	// DefaultTimeout applies to any Playwright call not given an explicit timeout.
	DefaultTimeout time.Duration
}

// Driver owns one Playwright instance, one Chromium browser, one context and one page.
type Driver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    *playwrightPage
}

// Launch starts Playwright and opens a single page.
func Launch(opts LaunchOptions) (*Driver, error) {
	if opts.ViewportWidth <= 0 || opts.ViewportHeight <= 0 {
		opts.ViewportWidth, opts.ViewportHeight = 1920, 1080
	}
	if opts.Args == nil {
		opts.Args = DefaultLaunchArgs
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = 30 * time.Second
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("browser: start playwright: %w", err)
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.Args,
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("browser: launch chromium: %w", err)
	}

	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: opts.ViewportWidth, Height: opts.ViewportHeight},
	})
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("browser: new context: %w", err)
	}
	bctx.SetDefaultTimeout(ms(opts.DefaultTimeout))
	bctx.SetDefaultNavigationTimeout(ms(opts.DefaultTimeout))

	page, err := bctx.NewPage()
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("browser: new page: %w", err)
	}

	return &Driver{
		pw:      pw,
		browser: b,
		bctx:    bctx,
		page:    &playwrightPage{page: page},
	}, nil
}

// AddCookie injects a cookie into the browsing context.
func (d *Driver) AddCookie(c Cookie) error {
	path := c.Path
	if path == "" {
		path = "/"
	}
	err := d.bctx.AddCookies([]playwright.OptionalCookie{
		{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   playwright.String(c.Domain),
			Path:     playwright.String(path),
			HttpOnly: playwright.Bool(c.HTTPOnly),
			Secure:   playwright.Bool(c.Secure),
			SameSite: playwright.SameSiteAttributeLax,
		},
	})
	if err != nil {
		return fmt.Errorf("browser: add cookie %q: %w", c.Name, err)
	}
	return nil
}

// Page returns the driver's single page.
func (d *Driver) Page() Page {
	return d.page
}

// Close shuts down the browser and the Playwright driver process.
func (d *Driver) Close() error {
	var errs []error
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if d.pw != nil {
		if err := d.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Navigate(url string, wait WaitPolicy, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitUntil(wait),
		Timeout:   playwright.Float(ms(timeout)),
	})
	if err != nil {
		return wrapErr("navigate to "+url, err)
	}
	return nil
}

func (p *playwrightPage) Reload(wait WaitPolicy, timeout time.Duration) error {
	_, err := p.page.Reload(playwright.PageReloadOptions{
		WaitUntil: waitUntil(wait),
		Timeout:   playwright.Float(ms(timeout)),
	})
	if err != nil {
		return wrapErr("reload", err)
	}
	return nil
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Content() (string, error) {
	html, err := p.page.Content()
	if err != nil {
		return "", wrapErr("read content", err)
	}
	return html, nil
}

func (p *playwrightPage) FirstVisible(selector string) (Control, bool, error) {
	loc := p.page.Locator(selector)
	n, err := loc.Count()
	if err != nil {
		return nil, false, wrapErr("count "+selector, err)
	}
	for i := 0; i < n; i++ {
		candidate := loc.Nth(i)
		visible, err := candidate.IsVisible()
		if err != nil {
			return nil, false, wrapErr("visibility of "+selector, err)
		}
		if visible {
			return &playwrightControl{loc: candidate}, true, nil
		}
	}
	return nil, false, nil
}

func (p *playwrightPage) Fill(selector, value string, timeout time.Duration) error {
	err := p.page.Locator(selector).First().Fill(value, playwright.LocatorFillOptions{
		Timeout: playwright.Float(ms(timeout)),
	})
	if err != nil {
		return wrapErr("fill "+selector, err)
	}
	return nil
}

func (p *playwrightPage) Screenshot() ([]byte, error) {
	png, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return nil, wrapErr("screenshot", err)
	}
	return png, nil
}

type playwrightControl struct {
	loc playwright.Locator
}

func (c *playwrightControl) Hover(timeout time.Duration) error {
	if err := c.loc.Hover(playwright.LocatorHoverOptions{Timeout: playwright.Float(ms(timeout))}); err != nil {
		return wrapErr("hover", err)
	}
	return nil
}

func (c *playwrightControl) Click(timeout time.Duration) error {
	if err := c.loc.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(ms(timeout))}); err != nil {
		return wrapErr("click", err)
	}
	return nil
}

func (c *playwrightControl) Text() string {
	text, err := c.loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: playwright.Float(1000)})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func waitUntil(w WaitPolicy) *playwright.WaitUntilState {
	switch w {
	case WaitLoad:
		return playwright.WaitUntilStateLoad
	default:
		return playwright.WaitUntilStateDomcontentloaded
	}
}

func wrapErr(op string, err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("browser: %s: %w: %w", op, ErrTimeout, err)
	}
	return fmt.Errorf("browser: %s: %w", op, err)
}

func ms(d time.Duration) float64 {
	return float64(d.Milliseconds())
}
