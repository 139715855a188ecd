package renew

import (
	"context"
	"fmt"
	"time"

	"github.com/kuitang/leasekeeper/internal/browser"
	"github.com/kuitang/leasekeeper/internal/obs"
	"github.com/kuitang/leasekeeper/internal/wait"
)

// Executor activates a located control.
type Executor struct {
	Timeout    time.Duration
	HoverPause time.Duration
	Settle     time.Duration
}

// Execute hovers, clicks, and waits Settle for the server response to render.
// A failed hover is ignored; a failed click is returned and nothing waits.
func (e Executor) Execute(ctx context.Context, c browser.Control) error {
	logger := obs.From(ctx).With("pkg", "renew")

	if err := c.Hover(e.Timeout); err != nil {
		logger.Debug("hover failed", "error", err)
	} else if err := wait.Sleep(ctx, e.HoverPause); err != nil {
		return err
	}

	if err := c.Click(e.Timeout); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	logger.Info("control clicked")

	// Let the response render even if the run is being canceled; the
	// verification that follows reads the page the click produced.
	_ = wait.Sleep(context.WithoutCancel(ctx), e.Settle)
	return nil
}
