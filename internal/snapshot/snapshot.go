// Package snapshot prints the rendered dashboard page to PDF with a headless
// Chrome driven over the DevTools protocol.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ErrInvalidURL is returned when the dashboard address is not absolute http(s).
var ErrInvalidURL = errors.New("snapshot url must be absolute http or https")

const (
	// DefaultTimeout bounds browser start, navigation and printing.
	DefaultTimeout = 60 * time.Second
	// DefaultReadySelector is the report table, present on every render.
	DefaultReadySelector = "#table-body"
	// DefaultSettle gives the chart script time to draw after the table is ready.
	DefaultSettle = 2 * time.Second
)

// Page elements pressed or awaited when ShowFilters is set.
const (
	ToggleSelector  = "#toggle"
	FiltersSelector = "#filters"
)

// Options configures a capture.
type Options struct {
	Timeout       time.Duration
	ReadySelector string
	Settle        time.Duration
	Landscape     bool
	// ExecPath overrides Chrome discovery.
	ExecPath string
	// Headful shows the browser window.
	Headful bool
	// ShowFilters presses the sidebar toggle on the dashboard root before
	// loading the target, so filter query parameters take effect.
	ShowFilters bool
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.ReadySelector == "" {
		o.ReadySelector = DefaultReadySelector
	}
	if o.Settle < 0 {
		o.Settle = 0
	}
	return o
}

// Capturer prints dashboard pages.
type Capturer struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Capturer.
func New(opts Options, logger *slog.Logger) *Capturer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Capturer{
		opts:   opts.withDefaults(),
		logger: logger.With(slog.String("component", "snapshot")),
	}
}

// PDF loads target and returns the printed page.
func (c *Capturer) PDF(ctx context.Context, target string) ([]byte, error) {
	if err := validateURL(target); err != nil {
		return nil, err
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.Flag("headless", !c.opts.Headful))
	if c.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.opts.ExecPath))
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	start := time.Now()
	var pdf []byte
	var actions []chromedp.Action
	if c.opts.ShowFilters {
		actions = append(actions,
			timed(c.logger, "open_root", chromedp.Navigate(rootOf(target))),
			timed(c.logger, "toggle", chromedp.Click(ToggleSelector, chromedp.ByQuery)),
			chromedp.WaitVisible(FiltersSelector, chromedp.ByQuery),
		)
	}
	actions = append(actions,
		timed(c.logger, "navigate", chromedp.Navigate(target)),
		timed(c.logger, "wait_ready", chromedp.WaitReady(c.opts.ReadySelector, chromedp.ByQuery)),
		chromedp.Sleep(c.opts.Settle),
		timed(c.logger, "print", chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(c.opts.Landscape).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		})),
	)
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return nil, fmt.Errorf("capture %s: %w", target, err)
	}

	c.logger.InfoContext(ctx, "Dashboard snapshot captured",
		slog.String("url", target),
		slog.Int("bytes", len(pdf)),
		slog.Duration("duration", time.Since(start)))
	return pdf, nil
}

// PageURL builds the dashboard address for base with the given filter query.
func PageURL(base string, query url.Values) (string, error) {
	if err := validateURL(base); err != nil {
		return "", err
	}
	u, _ := url.Parse(base)
	if u.Path == "" {
		u.Path = "/"
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func rootOf(target string) string {
	u, _ := url.Parse(target)
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String()
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return nil
}

func timed(logger *slog.Logger, name string, act chromedp.Action) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		start := time.Now()
		err := act.Do(ctx)
		logger.DebugContext(ctx, "Browser step",
			slog.String("step", name),
			slog.Duration("duration", time.Since(start)),
			slog.Bool("ok", err == nil))
		return err
	})
}
