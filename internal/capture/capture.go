// Package capture takes screenshots of the calendar presentation page with a
// headless Chromium driven by chromedp.
package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"custodycal/internal/atomicfile"
	"custodycal/internal/config"
)

const (
	DefaultWidth   = 1280
	DefaultHeight  = 960
	DefaultTimeout = 30 * time.Second

	// DefaultReadySelector is waited for before the screenshot. A page that
	// renders asynchronously can expose data-ready="true" once it is done.
	DefaultReadySelector = "body"
)

// Options defines one screenshot.
type Options struct {
	URL        string
	OutputPath string

	// Width and Height are the viewport in pixels.
	Width  int
	Height int

	// Timeout bounds the whole capture including browser start-up.
	Timeout time.Duration

	ReadySelector string
	// Settle is an extra delay after the ready selector is visible.
	Settle time.Duration
}

// OptionsFrom maps the capture section of the config.
func OptionsFrom(c config.CaptureConfig) Options {
	return Options{
		URL:        c.URL,
		OutputPath: c.Output,
		Width:      c.Width,
		Height:     c.Height,
		Timeout:    time.Duration(c.TimeoutSec) * time.Second,
	}
}

func (o Options) withDefaults() (Options, error) {
	if o.URL == "" {
		return o, errors.New("capture: URL is required")
	}
	if o.OutputPath == "" {
		return o, errors.New("capture: output path is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.ReadySelector == "" {
		o.ReadySelector = DefaultReadySelector
	}
	if o.Settle <= 0 {
		o.Settle = 500 * time.Millisecond
	}
	return o, nil
}

// PNG navigates to opts.URL, waits for the ready selector and writes a full
// page screenshot to opts.OutputPath. The file is replaced atomically so
// /preview.png never serves a half-written image.
func PNG(parentCtx context.Context, opts Options) error {
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(opts.ReadySelector, chromedp.ByQuery),
		chromedp.Sleep(opts.Settle),
		chromedp.FullScreenshot(&png, 100),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := atomicfile.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	return nil
}
