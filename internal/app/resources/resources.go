// Package resources embeds the site layout and the static assets it links.
package resources

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var layoutFS embed.FS

//go:embed assets/css/*.css assets/js/*.js
var assetsFS embed.FS

// assetCacheControl is sent with every embedded asset. The layout links
// them without fingerprints, so keep the lifetime short.
const assetCacheControl = "public, max-age=3600"

var (
	registerOnce sync.Once
	assets       fs.FS
)

func init() {
	sub, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic("resources: assets subtree: " + err.Error())
	}
	assets = sub
}

// LoadSharedTemplates registers the "layout" set used by the site pages and
// the error pages. Call it before the engine boots.
func LoadSharedTemplates() {
	registerOnce.Do(func() {
		templates.Register(templates.Set{
			Name:     "layout",
			FS:       layoutFS,
			Patterns: []string{"templates/*.gohtml"},
		})
	})
}

// Assets exposes the embedded css and js.
func Assets() fs.FS { return assets }

// AssetsHandler serves the embedded assets mounted under prefix. Only GET
// and HEAD are answered, and directory listings are refused.
func AssetsHandler(prefix string) http.Handler {
	files := http.FileServer(http.FS(assets))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")
		if name == "" || strings.HasSuffix(name, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", assetCacheControl)
		r2 := r.Clone(r.Context())
		r2.URL.Path = "/" + name
		files.ServeHTTP(w, r2)
	})
}
