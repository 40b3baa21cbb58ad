// Package sitemap serves /api/sitemap.xml listing every public page and
// published or active detail document.
package sitemap

import (
	"context"
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/contentquery"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Finder reads plain documents. contentstore.Store satisfies it.
type Finder interface {
	Find(ctx context.Context, c *schema.Collection, filter any, opts *options.FindOptions) ([]map[string]any, error)
}

// source is one collection contributing URLs under prefix.
type source struct {
	collection string
	prefix     string
}

// Sources are listed in output order. Pages sit at the site root; the home
// page slug maps to "/".
var sources = []source{
	{schema.Pages, "/"},
	{schema.Services, "/services/"},
	{schema.Solutions, "/solutions/"},
	{schema.Projects, "/projects/"},
	{schema.Resources, "/resources/"},
}

// URLSet is the sitemap document.
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// URL is one sitemap entry.
type URL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Handler builds the sitemap on each request.
type Handler struct {
	finder  Finder
	errs    *apierr.Writer
	logger  *zap.Logger
	baseURL string
}

// NewHandler creates a sitemap handler. baseURL prefixes every loc.
func NewHandler(finder Finder, errs *apierr.Writer, logger *zap.Logger, baseURL string) *Handler {
	return &Handler{finder: finder, errs: errs, logger: logger, baseURL: strings.TrimRight(baseURL, "/")}
}

// ServeHTTP handles GET /api/sitemap.xml.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	set, err := h.Build(r.Context())
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(out)
}

// Build collects the URL set.
func (h *Handler) Build(ctx context.Context) (*URLSet, error) {
	set := &URLSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, src := range sources {
		c, ok := schema.Lookup(src.collection)
		if !ok {
			continue
		}
		opts := options.Find().
			SetProjection(bson.M{"slug": 1, "updated_at": 1, "seo.no_index": 1}).
			SetSort(bson.D{{Key: "slug", Value: 1}})
		docs, err := h.finder.Find(ctx, c, visible(c), opts)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			slug, _ := d["slug"].(string)
			if slug == "" || noIndex(d) {
				continue
			}
			loc := h.baseURL + src.prefix + slug
			if src.collection == schema.Pages && slug == models.PageSlugHome {
				loc = h.baseURL + "/"
			}
			u := URL{Loc: loc}
			if t, ok := d["updated_at"].(time.Time); ok && !t.IsZero() {
				u.LastMod = t.UTC().Format("2006-01-02")
			}
			set.URLs = append(set.URLs, u)
		}
	}
	h.logger.Debug("sitemap built", zap.Int("urls", len(set.URLs)))
	return set, nil
}

// visible limits c to what the public site shows: published documents, or
// active ones for collections without a publish lifecycle.
func visible(c *schema.Collection) bson.M {
	if scope := contentquery.PublishedOnly(c); scope != nil {
		return scope
	}
	if _, ok := c.Field("active"); ok {
		return bson.M{"active": true}
	}
	return bson.M{}
}

func noIndex(d map[string]any) bool {
	seo, _ := d["seo"].(map[string]any)
	v, _ := seo["no_index"].(bool)
	return v
}
