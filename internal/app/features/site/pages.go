package site

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/store/storeutil"
	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/contentquery"
	"github.com/dalemusser/stratasite/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratasite/internal/app/system/viewdata"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/go-chi/chi/v5"
)

// HomeSlug is the page rendered at "/".
const HomeSlug = "home"

const listLimit = 12

// PageVM renders a section-built page.
type PageVM struct {
	viewdata.BaseVM
	Page     map[string]any
	Sections []Section
}

// DetailVM renders one service, solution, project, or resource.
type DetailVM struct {
	viewdata.BaseVM
	Kind    string // collection name
	Doc     map[string]any
	Body    template.HTML
	Related []map[string]any
}

// ListVM renders a paginated index.
type ListVM struct {
	viewdata.BaseVM
	Kind     string
	Docs     []map[string]any
	Category string
	storeutil.PageInfo
	PrevURL string
	NextURL string
}

// JobVM renders a job posting.
type JobVM struct {
	viewdata.BaseVM
	Job         map[string]any
	Description template.HTML
	Open        bool
}

// Home handles GET /. A missing home page renders an empty layout.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.showPage(w, r, HomeSlug, true)
}

// Page handles GET /{slug}.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "slug")))
	if slug == HomeSlug {
		http.Redirect(w, r, "/", http.StatusMovedPermanently)
		return
	}
	h.showPage(w, r, slug, false)
}

func (h *Handler) showPage(w http.ResponseWriter, r *http.Request, slug string, optional bool) {
	pages := mustCollection(schema.Pages)
	page, err := h.reader.GetBySlug(r.Context(), pages, slug, visible(pages), true)
	if err != nil {
		h.fail(w, r, "failed to load page", err)
		return
	}
	if page == nil && !optional {
		h.notFound(w, r)
		return
	}

	title, _ := page["title"].(string)
	vm := PageVM{BaseVM: h.base(w, r, title), Page: page}
	if slug == HomeSlug {
		vm.Title = ""
	}
	if page != nil {
		vm.ApplySEO(page)
		vm.Sections = h.sections(r.Context(), page)
		back := httpnav.CurrentPath(r)
		for i := range vm.Sections {
			vm.Sections[i].CSRFToken = vm.CSRFToken
			vm.Sections[i].Return = back
		}
	}
	h.render(w, r, "site/page", vm)
}

// Detail returns a handler for GET /{collection}/{slug}.
func (h *Handler) Detail(name string) http.HandlerFunc {
	c := mustCollection(name)
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := h.reader.GetBySlug(r.Context(), c, chi.URLParam(r, "slug"), visible(c), true)
		if err != nil {
			h.fail(w, r, "failed to load "+c.Type, err)
			return
		}
		if doc == nil {
			h.notFound(w, r)
			return
		}

		title, _ := doc["title"].(string)
		vm := DetailVM{BaseVM: h.base(w, r, title), Kind: c.Name, Doc: doc}
		vm.ApplySEO(doc)
		if s, _ := doc["summary"].(string); s != "" {
			vm.Description = s
		} else if s, _ := doc["excerpt"].(string); s != "" {
			vm.Description = s
		}
		for _, key := range []string{"body", "description"} {
			if s, ok := doc[key].(string); ok && s != "" {
				vm.Body = htmlsanitize.PrepareForDisplay(s)
				break
			}
		}
		if services, ok := doc["services"].([]any); ok {
			target := mustCollection(schema.Services)
			for _, s := range services {
				if m, ok := s.(map[string]any); ok && shown(target, m) {
					vm.Related = append(vm.Related, m)
				}
			}
		}
		h.render(w, r, "site/detail", vm)
	}
}

// List returns a handler for GET /{collection}?page=&category=.
func (h *Handler) List(name, title string) http.HandlerFunc {
	c := mustCollection(name)
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		p := contentquery.Params{Limit: listLimit, Scope: visible(c), Expand: true}
		p.Page, _ = strconv.ParseInt(q.Get("page"), 10, 64)

		category := strings.TrimSpace(q.Get("category"))
		if _, ok := c.Field("category"); ok && category != "" {
			p.Where = contentquery.Where{"category": {Equals: category, HasEquals: true}}
		}

		res, err := h.reader.List(r.Context(), c, p)
		if err != nil {
			h.fail(w, r, "failed to list "+c.Label, err)
			return
		}

		vm := ListVM{
			BaseVM:   h.base(w, r, title),
			Kind:     c.Name,
			Docs:     res.Docs,
			Category: category,
			PageInfo: res.PageInfo,
		}
		if res.HasPrevPage {
			vm.PrevURL = pageURL(r.URL.Path, res.Page-1, category)
		}
		if res.HasNextPage {
			vm.NextURL = pageURL(r.URL.Path, res.Page+1, category)
		}
		h.render(w, r, "site/list", vm)
	}
}

func pageURL(path string, page int64, category string) string {
	u := fmt.Sprintf("%s?page=%d", path, page)
	if category != "" {
		u += "&category=" + url.QueryEscape(category)
	}
	return u
}

// Job handles GET /jobs/{id}. Closed postings still render, without the
// application form.
func (h *Handler) Job(w http.ResponseWriter, r *http.Request) {
	jobs := mustCollection(schema.Jobs)
	job, err := h.reader.Get(r.Context(), jobs, chi.URLParam(r, "id"), nil, true)
	if err != nil {
		if apierr.From(err).Code == apierr.CodeInvalidID {
			h.notFound(w, r)
			return
		}
		h.fail(w, r, "failed to load job", err)
		return
	}
	if job == nil {
		h.notFound(w, r)
		return
	}

	title, _ := job["title"].(string)
	vm := JobVM{BaseVM: h.base(w, r, title), Job: job, Open: job["status"] == "active"}
	if d, ok := job["description"].(string); ok {
		vm.Description = htmlsanitize.PrepareForDisplay(d)
	}
	h.render(w, r, "site/job", vm)
}
