package pdf

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromeRenderer drives a headless Chrome/Chromium to print HTML. Each
// render launches a fresh browser; the scheduler renders at most a
// handful of documents per cycle, so startup cost beats a long-lived
// browser that can wedge.
type ChromeRenderer struct {
	execPath string
	timeout  time.Duration
}

// NewChromeRenderer creates a renderer. execPath may be empty, in which
// case chromedp's default browser discovery applies.
func NewChromeRenderer(execPath string, timeout time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &ChromeRenderer{execPath: execPath, timeout: timeout}
}

// Available reports whether a browser binary can be found. Callers may
// skip rendering entirely when this is false.
func (r *ChromeRenderer) Available() bool {
	if r.execPath != "" {
		_, err := exec.LookPath(r.execPath)
		return err == nil
	}
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

// RenderHTML prints the document with background graphics, CSS-driven
// page size and zero margins, emulating screen media.
func (r *ChromeRenderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	if !r.Available() {
		return nil, ErrUnavailable
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, r.timeout)
	defer cancelTimeout()

	var buf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		emulation.SetEmulatedMedia().WithMedia("screen"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			if err != nil {
				return err
			}
			buf = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome pdf render: %w", err)
	}

	return buf, nil
}
