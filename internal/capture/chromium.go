package capture

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
)

// Default capture parameters. The viewport fits one month grid of
// /calendar.html.
const (
	DefaultWidth   = 1024
	DefaultHeight  = 768
	DefaultTimeout = 30 * time.Second

	// CalendarPath is the page rendered for previews. It sets
	// data-ready="true" once the month grid is drawn.
	CalendarPath = "/calendar.html"
)

// Options defines parameters for a Chromium screenshot.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/calendar.html".
	URL string

	// OutputPath is where the PNG is written.
	OutputPath string

	// Width and Height are the viewport size in pixels. Zero means default.
	Width  int
	Height int

	// Timeout bounds the whole capture. Zero means DefaultTimeout.
	Timeout time.Duration
}

func (o *Options) normalize() error {
	if o.URL == "" {
		return errors.New("capture: URL is required")
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
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return nil
}

// LocalURL returns the calendar page URL served on listen. Wildcard hosts
// are replaced with the loopback address.
func LocalURL(listen string) (string, error) {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "", fmt.Errorf("capture: bad listen address %q: %w", listen, err)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + CalendarPath, nil
}

// CalendarPNG starts a headless Chromium via chromedp, opens opts.URL,
// waits for `[data-ready="true"]` and writes a full-page PNG screenshot to
// opts.OutputPath.
func CalendarPNG(parentCtx context.Context, opts Options) error {
	if err := opts.normalize(); err != nil {
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
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Let the last paint settle.
		chromedp.Sleep(300 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if dir := filepath.Dir(opts.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("capture: create output dir: %w", err)
		}
	}
	// Write next to the target and rename so /preview.png never serves a
	// partial file.
	tmp := opts.OutputPath + ".tmp"
	if err := os.WriteFile(tmp, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	if err := os.Rename(tmp, opts.OutputPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	return nil
}
