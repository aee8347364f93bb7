// Package render substitutes invoice data into user-authored
// handlebars-style templates.
package render

import (
	"github.com/aymerick/raymond"

	"github.com/dagfinn/faktura/internal/domain"
)

// Render compiles source and executes it against data.
func Render(source string, data map[string]any) (string, error) {
	tpl, err := raymond.Parse(source)
	if err != nil {
		return "", domain.WrapError(err, domain.EINVALID, "render.parse", "template does not compile")
	}

	out, err := tpl.Exec(data)
	if err != nil {
		return "", domain.WrapError(err, domain.EINTERNAL, "render.exec", "template execution failed")
	}

	return out, nil
}
