package site

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

// One file per page kind plus the section partials they share.
//
//go:embed templates/*.gohtml
var pagesFS embed.FS

func init() {
	templates.Register(templates.Set{Name: "site", FS: pagesFS, Patterns: []string{"templates/*.gohtml"}})
}
