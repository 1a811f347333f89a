// Package capture screenshots the rendered /calendar page with headless
// Chromium, e.g. to publish a mobile preview of the month.
package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	appLog "agendacal/internal/log"
)

// A phone-sized viewport; the page switches to its compact sizing here.
const (
	DefaultWidth   = 375
	DefaultHeight  = 812
	DefaultTimeout = 30 * time.Second
)

// readySelector is set by the calendar page once the grid is in the DOM.
const readySelector = `[data-ready="true"]`

// Options defines one screenshot.
type Options struct {
	// URL of the calendar page, e.g. "http://127.0.0.1:8080/calendar?year=2025&month=7".
	URL string

	// OutputPath receives the PNG.
	OutputPath string

	Width  int
	Height int

	// Scale is the device pixel ratio; 0 means 2 (retina phone).
	Scale float64

	Timeout time.Duration

	// ExecPath overrides the Chromium binary lookup.
	ExecPath string
}

func (o *Options) normalize() error {
	if o.URL == "" {
		return errors.New("capture: URL is required")
	}
	u, err := url.Parse(o.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("capture: invalid URL %q", o.URL)
	}
	if o.OutputPath == "" {
		return errors.New("capture: OutputPath is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Scale <= 0 {
		o.Scale = 2
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return nil
}

// Screenshot navigates to opts.URL, waits for the page to flag itself ready
// and writes a full-page PNG to opts.OutputPath.
func Screenshot(parent context.Context, opts Options) error {
	if err := opts.normalize(); err != nil {
		return err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	start := time.Now()
	var png []byte
	if err := chromedp.Run(ctx,
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height), chromedp.EmulateScale(opts.Scale), chromedp.EmulateMobile),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := writeFileAtomic(opts.OutputPath, png); err != nil {
		return err
	}
	appLog.Info("calendar captured",
		"url", opts.URL,
		"out", opts.OutputPath,
		"viewport", fmt.Sprintf("%dx%d@%g", opts.Width, opts.Height, opts.Scale),
		"bytes", len(png),
		"took", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".capture-*.png")
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("capture: write PNG: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("capture: write PNG: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
