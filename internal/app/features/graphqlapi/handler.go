// Package graphqlapi serves the read-only GraphQL content API at /api/graphql.
//
// The schema is generated from the collection registry: a paginated list
// field and a singular field per public collection, the SiteSettings
// singleton, and the Section union over every block type with a generic
// fallback. Drafts are visible only to requests carrying an admin token.
package graphqlapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"go.uber.org/zap"
)

// Request is a GraphQL request body.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Handler executes GraphQL requests.
type Handler struct {
	schema graphql.Schema
	guard  Guard
	logger *zap.Logger
}

// NewHandler creates a GraphQL handler.
func NewHandler(s graphql.Schema, guard Guard, logger *zap.Logger) *Handler {
	return &Handler{schema: s, guard: guard, logger: logger}
}

// ServeHTTP handles GET (query string) and POST (JSON body).
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := h.decode(w, r)
	if err != nil {
		h.reject(w, apierr.From(err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.reject(w, apierr.Field("query", "query is required"))
		return
	}
	if err := h.guard.Check(req.Query); err != nil {
		h.reject(w, apierr.From(err))
		return
	}

	res := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})
	if res.HasErrors() {
		h.logger.Debug("graphql errors", zap.Int("count", len(res.Errors)), zap.String("operation", req.OperationName))
	}
	jsonutil.OK(w, res)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*Request, error) {
	var req Request
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if v := q.Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				return nil, apierr.Field("variables", "variables must be a JSON object")
			}
		}
		return &req, nil
	}
	if err := jsonutil.Decode(w, r, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// reject writes a request-level failure in the GraphQL error shape.
func (h *Handler) reject(w http.ResponseWriter, ae *apierr.Error) {
	status := ae.Status()
	if status >= 500 {
		h.logger.Error("graphql request failed", zap.Error(ae))
	}
	jsonutil.JSON(w, status, &graphql.Result{
		Errors: []gqlerrors.FormattedError{{
			Message:    ae.Message,
			Extensions: ae.Extensions(),
		}},
	})
}
