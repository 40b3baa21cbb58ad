// Package site serves the server-rendered marketing pages.
//
// Pages are read through the content query layer with references expanded,
// so templates work on the same wire documents the GraphQL API returns.
// Drafts and inactive entries are never shown.
package site

import (
	"context"
	"net/http"

	"github.com/dalemusser/stratasite/internal/app/features/contact"
	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	"github.com/dalemusser/stratasite/internal/app/features/newsletter"
	"github.com/dalemusser/stratasite/internal/app/system/contentquery"
	"github.com/dalemusser/stratasite/internal/app/system/ratelimit"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/dalemusser/stratasite/internal/app/system/viewdata"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Reader reads wire documents. contentquery.Query satisfies it.
type Reader interface {
	List(ctx context.Context, c *schema.Collection, p contentquery.Params) (*contentquery.Result, error)
	Get(ctx context.Context, c *schema.Collection, id string, scope bson.M, expand bool) (map[string]any, error)
	GetBySlug(ctx context.Context, c *schema.Collection, slug string, scope bson.M, expand bool) (map[string]any, error)
	SiteSettings(ctx context.Context, s *models.SiteSettings, expand bool) (map[string]any, error)
}

// SettingsReader loads the settings singleton.
type SettingsReader interface {
	Get(ctx context.Context) (*models.SiteSettings, error)
}

// ContactSubmitter stores a contact form. contact.Handler satisfies it.
type ContactSubmitter interface {
	Submit(ctx context.Context, in contact.Input, ip, userAgent string) (*models.ContactSubmission, error)
}

// NewsletterSignup stores a newsletter signup. newsletter.Handler satisfies it.
type NewsletterSignup interface {
	Signup(ctx context.Context, in newsletter.Input) (*models.NewsletterSubscriber, bool, error)
}

// RenderFunc writes a named template.
type RenderFunc func(w http.ResponseWriter, r *http.Request, name string, data any)

// Deps wires a Handler. Limiter may be nil to disable form throttling.
type Deps struct {
	Reader      Reader
	Settings    SettingsReader
	Contact     ContactSubmitter
	Newsletter  NewsletterSignup
	Flashes     *Flashes
	Limiter     ratelimit.Limiter
	ContactRule ratelimit.Rule
	SignupRule  ratelimit.Rule
	ErrLog      *errorsfeature.ErrorLogger
	Logger      *zap.Logger
}

// Handler serves the site.
type Handler struct {
	reader      Reader
	settings    SettingsReader
	contact     ContactSubmitter
	newsletter  NewsletterSignup
	flashes     *Flashes
	limiter     ratelimit.Limiter
	contactRule ratelimit.Rule
	signupRule  ratelimit.Rule
	errLog      *errorsfeature.ErrorLogger
	logger      *zap.Logger

	render RenderFunc
}

// NewHandler creates a site handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	errLog := d.ErrLog
	if errLog == nil {
		errLog = errorsfeature.NewErrorLogger(logger)
	}
	return &Handler{
		reader:      d.Reader,
		settings:    d.Settings,
		contact:     d.Contact,
		newsletter:  d.Newsletter,
		flashes:     d.Flashes,
		limiter:     d.Limiter,
		contactRule: d.ContactRule,
		signupRule:  d.SignupRule,
		errLog:      errLog,
		logger:      logger,
		render:      renderTemplate,
	}
}

func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	templates.Render(w, r, name, data)
}

// base builds the layout data. A settings failure is logged and the page is
// rendered with the defaults.
func (h *Handler) base(w http.ResponseWriter, r *http.Request, title string) viewdata.BaseVM {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.PageLoad(), h.logger, "site settings")
	defer cancel()

	var settings map[string]any
	s, err := h.settings.Get(ctx)
	if err != nil {
		h.logger.Warn("failed to load site settings", zap.Error(err))
		def := models.DefaultSiteSettings()
		s = &def
	}
	settings, err = h.reader.SiteSettings(ctx, s, true)
	if err != nil {
		h.logger.Warn("failed to expand site settings", zap.Error(err))
		settings, _ = h.reader.SiteSettings(ctx, s, false)
	}

	vm := viewdata.New(r, settings, title)
	if h.flashes != nil {
		vm.Flash = h.flashes.Pop(w, r)
	}
	return vm
}

// visible is the scope that hides drafts and inactive entries.
func visible(c *schema.Collection) bson.M {
	if scope := contentquery.PublishedOnly(c); scope != nil {
		return scope
	}
	if _, ok := c.Field("active"); ok {
		return bson.M{"active": true}
	}
	return nil
}

func mustCollection(name string) *schema.Collection {
	c, ok := schema.Lookup(name)
	if !ok {
		panic("site: unknown collection " + name)
	}
	return c
}

// notFound renders the 404 page inside the site layout.
func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	vm := h.base(w, r, "Not Found")
	w.WriteHeader(http.StatusNotFound)
	h.render(w, r, "errors/not_found", vm)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.errLog.Log(r, msg, err)
	vm := h.base(w, r, "Server Error")
	w.WriteHeader(http.StatusInternalServerError)
	h.render(w, r, "errors/internal", vm)
}
