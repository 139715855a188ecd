// leasekeeper renews hosting-panel server leases and starts the servers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/kuitang/leasekeeper/internal/browser"
	"github.com/kuitang/leasekeeper/internal/config"
	"github.com/kuitang/leasekeeper/internal/errs"
	"github.com/kuitang/leasekeeper/internal/notify"
	"github.com/kuitang/leasekeeper/internal/obs"
	"github.com/kuitang/leasekeeper/internal/renew"
	"github.com/kuitang/leasekeeper/internal/shots"
)

// driver is the browser surface the run needs.
type driver interface {
	renew.CookieJar
	Page() browser.Page
	Close() error
}

// app holds the swappable collaborators of one invocation.
type app struct {
	stdout   io.Writer
	stderr   io.Writer
	launch   func(browser.LaunchOptions) (driver, error)
	notifier func(cfg *config.Config) notify.Notifier
}

func defaultApp() *app {
	return &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		launch: func(opts browser.LaunchOptions) (driver, error) {
			return browser.Launch(opts)
		},
		notifier: func(cfg *config.Config) notify.Notifier {
			if cfg.NoEmail {
				return notify.NewMockNotifier()
			}
			return notify.NewResendNotifier(cfg.ResendAPIKey, cfg.ResendFromEmail)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := defaultApp().run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code.
func (a *app) run(ctx context.Context, args []string) int {
	obs.Init()
	logger := obs.Pkg("main")

	fs := flag.NewFlagSet("leasekeeper", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	flags, err := config.ParseFlags(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return errs.ExitCode(errs.InvalidArgument)
	}

	cfg, err := config.LoadConfig(flags)
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		logger.Error("invalid configuration", "error", err)
		return errs.ExitCode(errs.InvalidArgument)
	}
	cfg.PrintStartupSummary()

	runID := obs.NewRunID()
	ctx = obs.WithRunID(ctx, runID)
	logger = obs.From(ctx).With("pkg", "main")
	logger.Info("configuration loaded", "config", cfg.LogFields())

	sink, err := a.screenshotSink(ctx, cfg, runID)
	if err != nil {
		// Upload is advisory; fall back to local files only.
		logger.Warn("s3 screenshot upload disabled", "error", err)
		sink = shots.DirSink{Dir: cfg.ScreenshotDir}
	}

	d, err := a.launch(browser.LaunchOptions{Headless: cfg.Headless, DefaultTimeout: cfg.Timings.Navigation})
	if err != nil {
		err = errs.Wrap(errs.Unavailable, "browser launch failed", err)
		logger.Error("browser launch failed", "error", err)
		return a.fail(err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Warn("browser close failed", "error", err)
		}
	}()

	runner := renew.NewRunner(cfg, d.Page(), d, shots.NewCapturer(sink))
	result, runErr := runner.Run(ctx)
	if errors.Is(runErr, renew.ErrAuthenticationFailed) {
		return a.fail(runErr)
	}

	if err := result.WriteSummary(a.stdout); err != nil {
		logger.Warn("summary not written", "error", err)
	}
	a.notify(ctx, cfg, result)

	if runErr != nil {
		logger.Warn("run ended early", "error", runErr)
		return a.fail(runErr)
	}
	return 0
}

// fail prints the coded message of err to stderr and returns its exit status.
// The full cause chain goes to the structured log.
func (a *app) fail(err error) int {
	fmt.Fprintf(a.stderr, "leasekeeper: %s\n", errs.MessageOf(err))
	return errs.ExitCode(errs.CodeOf(err))
}

func (a *app) screenshotSink(ctx context.Context, cfg *config.Config, runID string) (shots.Sink, error) {
	local := shots.DirSink{Dir: cfg.ScreenshotDir}
	if !cfg.S3Enabled() {
		return local, nil
	}
	remote, err := shots.NewS3Sink(ctx, shots.S3Config{
		Endpoint:        cfg.AWSEndpointS3,
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		BucketName:      cfg.AWSBucketName,
		Prefix:          path.Join("runs", runID),
	})
	if err != nil {
		return nil, err
	}
	return shots.Multi{local, remote}, nil
}

func (a *app) notify(ctx context.Context, cfg *config.Config, result *renew.RunResult) {
	if !cfg.NotifyEnabled() {
		return
	}
	confirmed := 0
	for _, tr := range result.Targets() {
		if o, ok := tr.Outcome(renew.RenewAction.Name); ok && o.Succeeded() {
			confirmed++
		}
	}
	msg := notify.NewMessage(cfg.NotifyEmail, result.RunID, confirmed, result.Len(), result.Markdown())
	if err := a.notifier(cfg).Notify(context.WithoutCancel(ctx), msg); err != nil {
		obs.From(ctx).Warn("notification failed", "pkg", "main", "error", err)
	}
}
