// Package pdf renders invoice HTML to PDF through a headless browser.
// Rendering is a best-effort step: callers drop the attachment when the
// browser is unavailable or rendering fails.
package pdf

import (
	"context"
	"errors"
)

// ErrUnavailable indicates no usable browser was found.
var ErrUnavailable = errors.New("pdf renderer unavailable")

// Renderer turns an HTML document into PDF bytes.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Disabled is a Renderer that always reports unavailability. Used when
// PDF generation is switched off by configuration.
type Disabled struct{}

func (Disabled) RenderHTML(context.Context, string) ([]byte, error) {
	return nil, ErrUnavailable
}
