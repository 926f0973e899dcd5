// Package capture provides headless-Chrome screenshot capture.
package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// Options configures a capture session.
type Options struct {
	// WindowWidth and WindowHeight set the viewport.
	WindowWidth  int
	WindowHeight int

	// FullPage captures beyond the viewport.
	FullPage bool

	// Timeout bounds the whole navigate-and-capture sequence.
	Timeout time.Duration
}

// DefaultOptions returns the standard 1280x800 full-page capture.
func DefaultOptions() Options {
	return Options{
		WindowWidth:  1280,
		WindowHeight: 800,
		FullPage:     true,
		Timeout:      60 * time.Second,
	}
}

// Browser drives a headless Chrome instance for screenshot capture.
type Browser struct {
	opts        Options
	ctx         context.Context
	cancel      context.CancelFunc
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewBrowser starts a headless browser.
func NewBrowser(opts Options) (*Browser, error) {
	if opts.WindowWidth <= 0 {
		opts.WindowWidth = 1280
	}
	if opts.WindowHeight <= 0 {
		opts.WindowHeight = 800
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), execOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	return &Browser{
		opts:        opts,
		ctx:         ctx,
		cancel:      cancel,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close shuts down the browser.
func (b *Browser) Close() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
}

// CaptureURL navigates to url and returns a PNG screenshot.
func (b *Browser) CaptureURL(ctx context.Context, url string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(b.ctx, b.opts.Timeout)
	defer cancel()

	// Honor caller cancellation too
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	var buf []byte
	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}
	if b.opts.FullPage {
		actions = append(actions, chromedp.FullScreenshot(&buf, 100))
	} else {
		actions = append(actions, chromedp.CaptureScreenshot(&buf))
	}

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return nil, fmt.Errorf("capture %s: %w", url, err)
	}

	return buf, nil
}

// CaptureFile reads a pre-captured screenshot from disk and returns the
// bytes plus the detected MIME type.
func CaptureFile(path string) ([]byte, string, error) {
	mime, err := MIMEType(path)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read screenshot: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("screenshot %s is empty", path)
	}

	return data, mime, nil
}

// MIMEType maps a screenshot file extension to its MIME type.
func MIMEType(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png", nil
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	case ".webp":
		return "image/webp", nil
	default:
		return "", fmt.Errorf("unsupported screenshot format: %s", filepath.Ext(path))
	}
}
