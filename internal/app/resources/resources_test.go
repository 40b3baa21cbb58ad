package resources

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAssetsContainsSiteFiles(t *testing.T) {
	for _, name := range []string{"css/site.css", "js/site.js"} {
		if _, err := fs.Stat(Assets(), name); err != nil {
			t.Errorf("Stat(%q) error = %v", name, err)
		}
	}
}

func TestAssetsHandler(t *testing.T) {
	h := AssetsHandler("/assets")

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"css", http.MethodGet, "/assets/css/site.css", http.StatusOK},
		{"head", http.MethodHead, "/assets/js/site.js", http.StatusOK},
		{"missing", http.MethodGet, "/assets/css/nope.css", http.StatusNotFound},
		{"directory", http.MethodGet, "/assets/css/", http.StatusNotFound},
		{"root", http.MethodGet, "/assets/", http.StatusNotFound},
		{"post", http.MethodPost, "/assets/css/site.css", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && rec.Header().Get("Cache-Control") != assetCacheControl {
				t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
			}
		})
	}
}
