package site

import (
	"net/http"

	"github.com/dalemusser/stratasite/internal/domain/schema"
	"github.com/go-chi/chi/v5"
)

// Routes returns the site router, mounted at "/". protect wraps the router
// with CSRF protection and may be nil in tests.
func Routes(h *Handler, protect func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	if protect != nil {
		r.Use(protect)
	}

	r.Get("/", h.Home)

	r.Get("/services", h.List(schema.Services, "Services"))
	r.Get("/services/{slug}", h.Detail(schema.Services))
	r.Get("/solutions", h.List(schema.Solutions, "Solutions"))
	r.Get("/solutions/{slug}", h.Detail(schema.Solutions))
	r.Get("/projects", h.List(schema.Projects, "Projects"))
	r.Get("/projects/{slug}", h.Detail(schema.Projects))
	r.Get("/resources", h.List(schema.Resources, "Resources"))
	r.Get("/resources/{slug}", h.Detail(schema.Resources))
	r.Get("/jobs/{id}", h.Job)

	r.Post("/forms/contact", h.ContactPost)
	r.Post("/forms/newsletter", h.NewsletterPost)

	r.Get("/{slug}", h.Page)
	r.NotFound(h.notFound)
	return r
}
