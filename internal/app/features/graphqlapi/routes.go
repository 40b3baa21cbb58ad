package graphqlapi

import (
	"net/http"

	"github.com/dalemusser/stratasite/internal/app/system/adminauth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the GraphQL router, mounted at /api/graphql.
func Routes(h *Handler, auth *adminauth.Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(auth.Optional)
	r.Get("/", h.ServeHTTP)
	r.Post("/", h.ServeHTTP)
	return r
}
