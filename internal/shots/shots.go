// Package shots persists full-page screenshots for manual triage of a run.
// Every failure here is advisory: callers log it and carry on.
package shots

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kuitang/leasekeeper/internal/browser"
	"github.com/kuitang/leasekeeper/internal/obs"
)

// Sink stores a named PNG.
type Sink interface {
	Save(ctx context.Context, name string, png []byte) error
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._#-]+`)

// SafeName turns an arbitrary step name into a file-system and object-key safe name.
func SafeName(name string) string {
	name = unsafeName.ReplaceAllString(strings.TrimSpace(name), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "screenshot"
	}
	return name
}

// DirSink writes screenshots to a local directory as <name>.png.
type DirSink struct {
	Dir string
}

// Save writes png to Dir, creating the directory on first use.
func (d DirSink) Save(_ context.Context, name string, png []byte) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("shots: create dir %s: %w", d.Dir, err)
	}
	path := filepath.Join(d.Dir, SafeName(name)+".png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("shots: write %s: %w", path, err)
	}
	return nil
}

// Multi fans a screenshot out to every sink and joins their errors.
type Multi []Sink

// Save calls every sink even when an earlier one fails.
func (m Multi) Save(ctx context.Context, name string, png []byte) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, name, png); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every screenshot.
type Discard struct{}

func (Discard) Save(context.Context, string, []byte) error { return nil }

// Capturer takes a screenshot of a page and hands it to a sink, logging failures.
type Capturer struct {
	sink Sink
}

// NewCapturer returns a capturer writing to sink. A nil sink discards.
func NewCapturer(sink Sink) *Capturer {
	if sink == nil {
		sink = Discard{}
	}
	return &Capturer{sink: sink}
}

// Capture screenshots page under name. It reports whether the image was stored.
func (c *Capturer) Capture(ctx context.Context, page browser.Page, name string) bool {
	logger := obs.From(ctx).With("pkg", "shots", "shot", name)

	png, err := page.Screenshot()
	if err != nil {
		logger.Warn("screenshot failed", "error", err)
		return false
	}
	if err := c.sink.Save(ctx, name, png); err != nil {
		logger.Warn("screenshot not saved", "error", err)
		return false
	}
	logger.Debug("screenshot saved", "bytes", len(png))
	return true
}
