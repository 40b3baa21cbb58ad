package errors

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

// errors.gohtml wraps each page in site_header and site_footer from the
// shared layout set.
//
//go:embed templates/errors.gohtml
var pageFS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "errors",
		FS:       pageFS,
		Patterns: []string{"templates/errors.gohtml"},
	})
}
