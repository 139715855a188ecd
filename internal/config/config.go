// Package config provides centralized configuration management for leasekeeper.
// It loads configuration from CLI flags and environment variables, validates required
// fields, and provides sensible defaults. It is the only package that reads the
// process environment; everything else receives a *Config.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kuitang/leasekeeper/internal/logutil"
)

const (
	defaultCookieName   = "remember_web_59ba36addc2b2f9401580f014c7f58ea4e30989d"
	defaultRegion       = "auto"
	defaultFromEmail    = "leasekeeper@localhost"
	defaultScreenshots  = "screenshots"
	defaultLoginURLPath = "/auth/login"
)

// Timings holds every bounded wait used by the renewal flow.
type Timings struct {
	Navigation   time.Duration // page.goto / reload ceiling
	Element      time.Duration // readiness gate and click ceiling
	Challenge    time.Duration // bot-challenge wait ceiling
	Popup        time.Duration // confirmation popup budget
	Poll         time.Duration // poll interval for all bounded waits
	ClickSettle  time.Duration // pause after a click for the server response
	ActionSettle time.Duration // pause between renew and start, and after reloads
	TargetPacing time.Duration // minimum gap between targets
	LoginSettle  time.Duration // pause after login/cookie navigation
}

// DefaultTimings are the production waits.
var DefaultTimings = Timings{
	Navigation:   60 * time.Second,
	Element:      20 * time.Second,
	Challenge:    30 * time.Second,
	Popup:        10 * time.Second,
	Poll:         time.Second,
	ClickSettle:  3 * time.Second,
	ActionSettle: 5 * time.Second,
	TargetPacing: 8 * time.Second,
	LoginSettle:  5 * time.Second,
}

// Config holds all application configuration.
type Config struct {
	// Panel
	PanelURL   string
	LoginURL   string
	ServerURLs []string

	// Authentication: either a stored session token or a credential pair
	SessionCookie     string
	SessionCookieName string
	Email             string
	Password          string

	// Browser
	Headless bool
	StartToo bool // run the start action after renew

	Timings Timings

	// Screenshots
	ScreenshotDir string
	NoS3          bool // If true, never upload screenshots (--no-s3)

	// S3 screenshot upload (optional; uses the AWS_ env var names)
	AWSEndpointS3      string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSBucketName      string

	// Summary notification (optional)
	NoEmail         bool // If true, capture the notification instead of sending it (--no-email)
	ResendAPIKey    string
	ResendFromEmail string
	NotifyEmail     string
}

// Flags are the CLI flag values that feed LoadConfig.
type Flags struct {
	Headed        bool
	NoStart       bool
	NoS3          bool
	NoEmail       bool
	ScreenshotDir string
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// ParseFlags registers and parses the CLI flags on fs.
func ParseFlags(fs *flag.FlagSet, args []string) (Flags, error) {
	var f Flags
	fs.BoolVar(&f.Headed, "headed", false, "Show the browser window (overrides HEADLESS)")
	fs.BoolVar(&f.NoStart, "no-start", false, "Only renew; skip the start action")
	fs.BoolVar(&f.NoS3, "no-s3", false, "Never upload screenshots to S3")
	fs.BoolVar(&f.NoEmail, "no-email", false, "Log the summary e-mail instead of sending it")
	fs.StringVar(&f.ScreenshotDir, "screenshots", "", "Screenshot directory (overrides SCREENSHOT_DIR)")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	return f, nil
}

// LoadConfig loads configuration from environment variables and CLI flag values.
func LoadConfig(f Flags) (*Config, error) {
	cfg := &Config{}

	// Panel
	cfg.PanelURL = strings.TrimRight(strings.TrimSpace(getEnvAlias("PANEL_URL", "WEIRDHOST_URL")), "/")
	cfg.LoginURL = strings.TrimSpace(getEnvAlias("PANEL_LOGIN_URL", "WEIRDHOST_LOGIN_URL"))
	if cfg.LoginURL == "" && cfg.PanelURL != "" {
		cfg.LoginURL = cfg.PanelURL + defaultLoginURLPath
	}
	cfg.ServerURLs = SplitList(getEnvAlias("PANEL_SERVER_URLS", "WEIRDHOST_SERVER_URLS"))

	// Authentication
	cfg.SessionCookie = strings.TrimSpace(os.Getenv("REMEMBER_WEB_COOKIE"))
	cfg.SessionCookieName = getEnvOrDefault("PANEL_COOKIE_NAME", defaultCookieName)
	cfg.Email = strings.TrimSpace(getEnvAlias("PANEL_EMAIL", "WEIRDHOST_EMAIL"))
	cfg.Password = getEnvAlias("PANEL_PASSWORD", "WEIRDHOST_PASSWORD")

	// Browser
	cfg.Headless = parseBoolOrDefault("HEADLESS", true)
	if f.Headed {
		cfg.Headless = false
	}
	cfg.StartToo = !f.NoStart

	var malformed []string
	duration := func(key string, def time.Duration) time.Duration {
		d, err := parseDurationOrDefault(key, def)
		if err != nil {
			malformed = append(malformed, fmt.Sprintf("%s=%q is not a valid duration (e.g. 10s, 500ms)", key, os.Getenv(key)))
		}
		return d
	}
	cfg.Timings = Timings{
		Navigation:   duration("NAV_TIMEOUT", DefaultTimings.Navigation),
		Element:      duration("ELEMENT_TIMEOUT", DefaultTimings.Element),
		Challenge:    duration("CHALLENGE_TIMEOUT", DefaultTimings.Challenge),
		Popup:        duration("POPUP_TIMEOUT", DefaultTimings.Popup),
		Poll:         duration("POLL_INTERVAL", DefaultTimings.Poll),
		ClickSettle:  duration("CLICK_SETTLE", DefaultTimings.ClickSettle),
		ActionSettle: duration("ACTION_SETTLE", DefaultTimings.ActionSettle),
		TargetPacing: duration("TARGET_PACING", DefaultTimings.TargetPacing),
		LoginSettle:  duration("LOGIN_SETTLE", DefaultTimings.LoginSettle),
	}

	// Screenshots
	cfg.ScreenshotDir = getEnvOrDefault("SCREENSHOT_DIR", defaultScreenshots)
	if f.ScreenshotDir != "" {
		cfg.ScreenshotDir = f.ScreenshotDir
	}
	cfg.NoS3 = f.NoS3
	cfg.AWSEndpointS3 = strings.TrimSpace(os.Getenv("AWS_ENDPOINT_URL_S3"))
	cfg.AWSRegion = getEnvOrDefault("AWS_REGION", defaultRegion)
	cfg.AWSAccessKeyID = strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
	cfg.AWSSecretAccessKey = strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY"))
	cfg.AWSBucketName = strings.TrimSpace(os.Getenv("BUCKET_NAME"))

	// Notification
	cfg.NoEmail = f.NoEmail
	cfg.ResendAPIKey = strings.TrimSpace(os.Getenv("RESEND_API_KEY"))
	cfg.ResendFromEmail = getEnvOrDefault("RESEND_FROM_EMAIL", defaultFromEmail)
	cfg.NotifyEmail = strings.TrimSpace(os.Getenv("NOTIFY_EMAIL"))

	err := cfg.Validate()
	if len(malformed) > 0 {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			ve = &ValidationError{}
		}
		ve.Errors = append(malformed, ve.Errors...)
		return nil, ve
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.PanelURL == "" {
		errs = append(errs, "PANEL_URL is required (e.g. https://hub.weirdhost.xyz)")
	} else if u, err := url.Parse(c.PanelURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, "PANEL_URL must be an absolute http(s) URL")
	}

	if len(c.ServerURLs) == 0 {
		errs = append(errs, "PANEL_SERVER_URLS is required (comma-separated server page URLs)")
	}
	for _, s := range c.ServerURLs {
		if u, err := url.Parse(s); err != nil || u.Host == "" {
			errs = append(errs, fmt.Sprintf("PANEL_SERVER_URLS entry %q is not an absolute URL", s))
		}
	}

	if c.SessionCookie == "" {
		switch {
		case c.Email == "" && c.Password == "":
			errs = append(errs, "REMEMBER_WEB_COOKIE or PANEL_EMAIL/PANEL_PASSWORD is required")
		case c.Email == "":
			errs = append(errs, "PANEL_EMAIL is required when PANEL_PASSWORD is set")
		case c.Password == "":
			errs = append(errs, "PANEL_PASSWORD is required when PANEL_EMAIL is set")
		}
	}
	if c.SessionCookieName == "" {
		errs = append(errs, "PANEL_COOKIE_NAME must not be empty")
	}

	// S3: all-or-nothing once a bucket is named
	if !c.NoS3 && c.AWSBucketName != "" {
		if c.AWSEndpointS3 == "" {
			errs = append(errs, "AWS_ENDPOINT_URL_S3 is required when BUCKET_NAME is set (or use --no-s3)")
		}
		if c.AWSAccessKeyID == "" {
			errs = append(errs, "AWS_ACCESS_KEY_ID is required when BUCKET_NAME is set (or use --no-s3)")
		}
		if c.AWSSecretAccessKey == "" {
			errs = append(errs, "AWS_SECRET_ACCESS_KEY is required when BUCKET_NAME is set (or use --no-s3)")
		}
	}

	// Email: a real send needs an API key
	if c.NotifyEmail != "" && !c.NoEmail && c.ResendAPIKey == "" {
		errs = append(errs, "RESEND_API_KEY is required when NOTIFY_EMAIL is set (or use --no-email)")
	}

	t := c.Timings
	for _, bound := range []struct {
		name string
		d    time.Duration
	}{
		{"NAV_TIMEOUT", t.Navigation},
		{"ELEMENT_TIMEOUT", t.Element},
		{"CHALLENGE_TIMEOUT", t.Challenge},
		{"POPUP_TIMEOUT", t.Popup},
		{"POLL_INTERVAL", t.Poll},
	} {
		if bound.d <= 0 {
			errs = append(errs, bound.name+" must be positive")
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// UsesCookie reports whether authentication goes through the stored session token.
func (c *Config) UsesCookie() bool {
	return c.SessionCookie != ""
}

// S3Enabled reports whether screenshots are uploaded to a bucket.
func (c *Config) S3Enabled() bool {
	return !c.NoS3 && c.AWSBucketName != "" && c.AWSEndpointS3 != ""
}

// NotifyEnabled reports whether a summary e-mail should be produced.
func (c *Config) NotifyEnabled() bool {
	return c.NotifyEmail != ""
}

// PanelHost returns the host name the session cookie is scoped to.
func (c *Config) PanelHost() string {
	u, err := url.Parse(c.PanelURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// LogFields returns the configuration as redacted key/value pairs for the startup log.
func (c *Config) LogFields() string {
	return logutil.FormatFieldsForLog(map[string]string{
		"PANEL_URL":           c.PanelURL,
		"PANEL_LOGIN_URL":     c.LoginURL,
		"PANEL_SERVER_COUNT":  strconv.Itoa(len(c.ServerURLs)),
		"REMEMBER_WEB_COOKIE": c.SessionCookie,
		"PANEL_EMAIL":         c.Email,
		"PANEL_PASSWORD":      c.Password,
		"HEADLESS":            strconv.FormatBool(c.Headless),
		"START":               strconv.FormatBool(c.StartToo),
		"SCREENSHOT_DIR":      c.ScreenshotDir,
		"BUCKET_NAME":         c.AWSBucketName,
		"NOTIFY_EMAIL":        c.NotifyEmail,
	})
}

// PrintStartupSummary prints a human-readable summary of the configuration to stderr.
func (c *Config) PrintStartupSummary() {
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "leasekeeper starting...")
	if c.UsesCookie() {
		fmt.Fprintln(os.Stderr, "  Auth:    stored session cookie (login page skipped)")
	} else {
		fmt.Fprintf(os.Stderr, "  Auth:    credentials via %s\n", c.LoginURL)
	}
	fmt.Fprintf(os.Stderr, "  Panel:   %s\n", c.PanelURL)
	fmt.Fprintf(os.Stderr, "  Servers: %d\n", len(c.ServerURLs))
	if c.StartToo {
		fmt.Fprintln(os.Stderr, "  Actions: renew, start")
	} else {
		fmt.Fprintln(os.Stderr, "  Actions: renew (--no-start)")
	}
	if c.S3Enabled() {
		fmt.Fprintf(os.Stderr, "  Shots:   %s + s3://%s\n", c.ScreenshotDir, c.AWSBucketName)
	} else {
		fmt.Fprintf(os.Stderr, "  Shots:   %s\n", c.ScreenshotDir)
	}
	fmt.Fprintf(os.Stderr, "  Browser: headless=%t\n", c.Headless)
	fmt.Fprintln(os.Stderr, "")
}

// SplitList splits a comma or newline separated list, dropping blanks.
func SplitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvAlias returns the first non-empty value among key and its legacy aliases.
func getEnvAlias(key string, aliases ...string) string {
	for _, k := range append([]string{key}, aliases...) {
		if v := os.Getenv(k); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// parseDurationOrDefault returns defaultValue for an unset key and an error for a
// value time.ParseDuration rejects.
func parseDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue, err
	}
	return parsed, nil
}
