package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/stratasite/internal/app/features/contact"
	"github.com/dalemusser/stratasite/internal/app/features/newsletter"
	"github.com/dalemusser/stratasite/internal/app/store/storeutil"
	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/contentquery"
	"github.com/dalemusser/stratasite/internal/app/system/ratelimit"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type fakeReader struct {
	docs     map[string]map[string]any // "<collection>/<slug or id>"
	list     map[string]*contentquery.Result
	getErr   error
	params   map[string]contentquery.Params
	scopes   map[string]bson.M
	settings map[string]any
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		docs:     map[string]map[string]any{},
		list:     map[string]*contentquery.Result{},
		params:   map[string]contentquery.Params{},
		scopes:   map[string]bson.M{},
		settings: map[string]any{"siteName": "Strata Test", "tagline": "Infrastructure"},
	}
}

func (f *fakeReader) List(_ context.Context, c *schema.Collection, p contentquery.Params) (*contentquery.Result, error) {
	f.params[c.Name] = p
	if res, ok := f.list[c.Name]; ok {
		return res, nil
	}
	return &contentquery.Result{Docs: []map[string]any{}}, nil
}

func (f *fakeReader) Get(_ context.Context, c *schema.Collection, id string, _ bson.M, _ bool) (map[string]any, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.docs[c.Name+"/"+id], nil
}

func (f *fakeReader) GetBySlug(_ context.Context, c *schema.Collection, slug string, scope bson.M, _ bool) (map[string]any, error) {
	f.scopes[c.Name] = scope
	return f.docs[c.Name+"/"+slug], nil
}

func (f *fakeReader) SiteSettings(context.Context, *models.SiteSettings, bool) (map[string]any, error) {
	return f.settings, nil
}

type fakeSettings struct{}

func (fakeSettings) Get(context.Context) (*models.SiteSettings, error) {
	s := models.DefaultSiteSettings()
	return &s, nil
}

type fakeContact struct {
	calls int
	last  contact.Input
	err   error
}

func (f *fakeContact) Submit(_ context.Context, in contact.Input, _, _ string) (*models.ContactSubmission, error) {
	f.calls++
	f.last = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.ContactSubmission{}, nil
}

type fakeSignup struct {
	resubscribed bool
	err          error
}

func (f *fakeSignup) Signup(context.Context, newsletter.Input) (*models.NewsletterSubscriber, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return &models.NewsletterSubscriber{}, f.resubscribed, nil
}

type rendered struct {
	name string
	data any
}

type siteEnv struct {
	reader  *fakeReader
	contact *fakeContact
	signup  *fakeSignup
	router  http.Handler
	last    rendered
}

func newSiteEnv(t *testing.T, limiter ratelimit.Limiter) *siteEnv {
	t.Helper()
	env := &siteEnv{reader: newFakeReader(), contact: &fakeContact{}, signup: &fakeSignup{}}
	h := NewHandler(Deps{
		Reader:      env.reader,
		Settings:    fakeSettings{},
		Contact:     env.contact,
		Newsletter:  env.signup,
		Flashes:     NewFlashes([]byte("0123456789abcdef0123456789abcdef"), false),
		Limiter:     limiter,
		ContactRule: ratelimit.Rule{Limit: 1, Window: time.Minute},
		SignupRule:  ratelimit.Rule{Limit: 1, Window: time.Minute},
	})
	h.render = func(w http.ResponseWriter, _ *http.Request, name string, data any) {
		env.last = rendered{name: name, data: data}
	}
	env.router = Routes(h, nil)
	return env
}

func (e *siteEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *siteEnv) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "203.0.113.9:4321"
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestHomeRendersWithoutPage(t *testing.T) {
	env := newSiteEnv(t, nil)

	rec := env.get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "site/page", env.last.name)

	vm := env.last.data.(PageVM)
	assert.Empty(t, vm.Sections)
	assert.Equal(t, "Strata Test", vm.SiteName)
	assert.Equal(t, "Strata Test", vm.PageTitle())
	assert.Equal(t, bson.M{"status": "published"}, env.reader.scopes[schema.Pages])
}

func TestPageNotFound(t *testing.T) {
	env := newSiteEnv(t, nil)

	rec := env.get("/about")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "errors/not_found", env.last.name)
}

func TestHomeSlugRedirects(t *testing.T) {
	env := newSiteEnv(t, nil)

	rec := env.get("/home")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestPageSectionsDropHiddenItems(t *testing.T) {
	env := newSiteEnv(t, nil)
	env.reader.docs["pages/about"] = map[string]any{
		"id":    "p1",
		"title": "About",
		"slug":  "about",
		"seo":   map[string]any{"metaDescription": "Who we are"},
		"sections": []any{
			map[string]any{"blockType": "heroSection", "heading": "Hello"},
			map[string]any{"blockType": "mysterySection"},
			map[string]any{
				"blockType": "serviceGridSection",
				"services": []any{
					map[string]any{"id": "s1", "title": "Design", "slug": "design", "active": true},
					map[string]any{"id": "s2", "title": "Retired", "slug": "retired", "active": false},
					map[string]any{"id": "s3"},
				},
			},
			map[string]any{"blockType": "richTextSection", "body": `<p>Hi</p><script>alert(1)</script>`},
		},
	}

	rec := env.get("/about")
	require.Equal(t, http.StatusOK, rec.Code)
	vm := env.last.data.(PageVM)

	require.Len(t, vm.Sections, 3)
	assert.Equal(t, "heroSection", vm.Sections[0].BlockType)
	assert.Equal(t, "serviceGridSection", vm.Sections[1].BlockType)
	require.Len(t, vm.Sections[1].Items, 1)
	assert.Equal(t, "design", vm.Sections[1].Items[0]["slug"])
	assert.NotContains(t, string(vm.Sections[2].HTML), "script")
	assert.Equal(t, "/about", vm.Sections[0].Return)
	assert.Equal(t, "About | Strata Test", vm.PageTitle())
	assert.Equal(t, "Who we are", vm.Description)
}

func TestQueryStringStaysOutOfCurrentPath(t *testing.T) {
	env := newSiteEnv(t, nil)
	env.reader.docs["pages/about"] = map[string]any{
		"id":    "p1",
		"title": "About",
		"slug":  "about",
		"sections": []any{
			map[string]any{"blockType": "contactFormSection", "heading": "Talk to us"},
		},
	}

	rec := env.get("/about?utm_source=newsletter")
	require.Equal(t, http.StatusOK, rec.Code)
	vm := env.last.data.(PageVM)

	assert.Equal(t, "/about", vm.CurrentPath, "nav highlighting compares against the bare path")
	require.Len(t, vm.Sections, 1)
	assert.Equal(t, "/about?utm_source=newsletter", vm.Sections[0].Return, "forms return to the full URI")
}

func TestJobListShowAllActive(t *testing.T) {
	env := newSiteEnv(t, nil)
	env.reader.docs["pages/careers"] = map[string]any{
		"title": "Careers",
		"sections": []any{
			map[string]any{"blockType": "jobListSection", "showAllActive": true, "jobs": []any{}},
		},
	}
	env.reader.list[schema.Jobs] = &contentquery.Result{Docs: []map[string]any{
		{"id": "j1", "title": "Engineer", "status": "active"},
	}}

	env.get("/careers")
	vm := env.last.data.(PageVM)
	require.Len(t, vm.Sections, 1)
	require.Len(t, vm.Sections[0].Items, 1)
	assert.Equal(t, "Engineer", vm.Sections[0].Items[0]["title"])

	p := env.reader.params[schema.Jobs]
	assert.Equal(t, "active", p.Where["status"].Equals)
	assert.True(t, p.Expand)
}

func TestJobListFiltersClosedRefs(t *testing.T) {
	env := newSiteEnv(t, nil)
	env.reader.docs["pages/careers"] = map[string]any{
		"title": "Careers",
		"sections": []any{
			map[string]any{"blockType": "jobListSection", "jobs": []any{
				map[string]any{"id": "j1", "title": "Open", "status": "active"},
				map[string]any{"id": "j2", "title": "Filled", "status": "closed"},
			}},
		},
	}

	env.get("/careers")
	vm := env.last.data.(PageVM)
	require.Len(t, vm.Sections[0].Items, 1)
	assert.Equal(t, "Open", vm.Sections[0].Items[0]["title"])
}

func TestListPagination(t *testing.T) {
	env := newSiteEnv(t, nil)
	env.reader.list[schema.Projects] = &contentquery.Result{
		Docs:     []map[string]any{{"title": "Bridge", "slug": "bridge"}},
		PageInfo: storeutil.NewPageInfo(30, listLimit, 2),
	}

	rec := env.get("/projects?page=2&category=Energy+Systems")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "site/list", env.last.name)

	vm := env.last.data.(ListVM)
	assert.Equal(t, "projects", vm.Kind)
	assert.Equal(t, "Energy Systems", vm.Category)
	assert.Equal(t, "/projects?page=1&category=Energy+Systems", vm.PrevURL)
	assert.Equal(t, "/projects?page=3&category=Energy+Systems", vm.NextURL)

	p := env.reader.params[schema.Projects]
	assert.Equal(t, int64(2), p.Page)
	assert.Equal(t, bson.M{"status": "published"}, p.Scope)
	assert.Equal(t, "Energy Systems", p.Where["category"].Equals)
}

func TestListScopesActiveCollections(t *testing.T) {
	env := newSiteEnv(t, nil)

	env.get("/services?category=ignored")
	p := env.reader.params[schema.Services]
	assert.Equal(t, bson.M{"active": true}, p.Scope)
	assert.Empty(t, p.Where)
}

func TestDetail(t *testing.T) {
	env := newSiteEnv(t, nil)
	env.reader.docs["resources/field-guide"] = map[string]any{
		"title":   "Field Guide",
		"slug":    "field-guide",
		"excerpt": "A short guide",
		"body":    `<p>Read <a href="javascript:alert(1)">this</a></p>`,
	}

	rec := env.get("/resources/field-guide")
	require.Equal(t, http.StatusOK, rec.Code)
	vm := env.last.data.(DetailVM)
	assert.Equal(t, "A short guide", vm.Description)
	assert.NotContains(t, string(vm.Body), "javascript:")

	rec = env.get("/resources/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJob(t *testing.T) {
	env := newSiteEnv(t, nil)
	env.reader.docs["jobs/abc"] = map[string]any{"id": "abc", "title": "Welder", "status": "closed"}

	rec := env.get("/jobs/abc")
	require.Equal(t, http.StatusOK, rec.Code)
	vm := env.last.data.(JobVM)
	assert.False(t, vm.Open)

	env.reader.getErr = apierr.InvalidID("nope")
	rec = env.get("/jobs/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContactPostValidationFlash(t *testing.T) {
	env := newSiteEnv(t, nil)
	env.contact.err = apierr.Validation(map[string]string{
		"email": "A valid email address is required.",
		"name":  "Name must be at least 2 characters.",
	})

	rec := env.post("/forms/contact", url.Values{
		"name":   {"Ada"},
		"email":  {"nope"},
		"return": {"/contact"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/contact", rec.Header().Get("Location"))
	assert.Equal(t, "Ada", env.contact.last.Name)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	env.reader.docs["pages/contact"] = map[string]any{"title": "Contact"}
	env.get("/contact", cookies...)
	vm := env.last.data.(PageVM)
	require.NotNil(t, vm.Flash)
	assert.Equal(t, "error", vm.Flash.Kind)
	assert.Equal(t, "Please check the form: A valid email address is required. Name must be at least 2 characters.", vm.Flash.Message)
	assert.NotContains(t, vm.Flash.Message, "email A valid", "field keys are not prefixed to messages")
}

func TestContactPostSuccess(t *testing.T) {
	env := newSiteEnv(t, nil)

	rec := env.post("/forms/contact", url.Values{"name": {"Ada"}, "return": {"/"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	env.get("/", rec.Result().Cookies()...)
	vm := env.last.data.(PageVM)
	require.NotNil(t, vm.Flash)
	assert.Equal(t, "success", vm.Flash.Kind)
	assert.Equal(t, contact.SuccessMessage, vm.Flash.Message)
}

func TestNewsletterAlreadySubscribed(t *testing.T) {
	env := newSiteEnv(t, nil)
	env.signup.err = apierr.New(apierr.CodeAlreadySubscribed, "This email is already subscribed")

	rec := env.post("/forms/newsletter", url.Values{"email": {"a@example.com"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	env.get("/", rec.Result().Cookies()...)
	vm := env.last.data.(PageVM)
	require.NotNil(t, vm.Flash)
	assert.Equal(t, "success", vm.Flash.Kind)
	assert.Equal(t, "You are already subscribed.", vm.Flash.Message)
}

func TestContactPostRateLimited(t *testing.T) {
	env := newSiteEnv(t, ratelimit.NewMemory())
	form := url.Values{"name": {"Ada"}, "return": {"/contact"}}

	env.post("/forms/contact", form)
	rec := env.post("/forms/contact", form)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 1, env.contact.calls)
}

func TestReturnPath(t *testing.T) {
	tests := map[string]string{
		"":                     "/",
		"/about?ref=footer":    "/about?ref=footer",
		"//evil.example":       "/",
		"https://evil.example": "/",
		`/\evil.example`:       "/",
		"contact":              "/",
	}
	for in, want := range tests {
		req := httptest.NewRequest(http.MethodPost, "/forms/contact",
			strings.NewReader(url.Values{"return": {in}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		assert.Equal(t, want, returnPath(req), "return=%q", in)
	}
}
