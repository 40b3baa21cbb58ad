package admin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/contentquery"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/sectioncheck"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// WriteResponse is returned by create and update. Warnings list advisory
// section shape mismatches; the document was saved regardless.
type WriteResponse struct {
	Success  bool                   `json:"success"`
	Message  string                 `json:"message"`
	Doc      map[string]any         `json:"doc"`
	Warnings []sectioncheck.Warning `json:"warnings,omitempty"`
}

// List handles GET /admin/api/{collection}.
//
// Query: limit, page, sort, where (JSON object of {field: {equals|contains|in}}),
// and field=value shortcuts for the collection's filter fields.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	c, err := collection(chi.URLParam(r, "collection"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	p, err := listParams(c, r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	res, err := h.reader.List(r.Context(), c, p)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	for _, d := range res.Docs {
		strip(c, d)
	}
	jsonutil.OK(w, res)
}

func listParams(c *schema.Collection, r *http.Request) (contentquery.Params, error) {
	q := r.URL.Query()
	p := contentquery.Params{Sort: q.Get("sort")}
	p.Limit, _ = strconv.ParseInt(q.Get("limit"), 10, 64)
	p.Page, _ = strconv.ParseInt(q.Get("page"), 10, 64)

	if raw := q.Get("where"); raw != "" {
		var m map[string]any
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return p, apierr.Field("where", "must be a JSON object")
		}
		where, err := contentquery.WhereFromMap(m)
		if err != nil {
			return p, err
		}
		p.Where = where
	}
	for _, name := range c.Admin.Filter {
		v := strings.TrimSpace(q.Get(name))
		if v == "" {
			continue
		}
		if p.Where == nil {
			p.Where = contentquery.Where{}
		}
		p.Where[name] = contentquery.Condition{Equals: v, HasEquals: true}
	}
	return p, nil
}

// Get handles GET /admin/api/{collection}/{id}. References are expanded
// when ?expand=true.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := collection(chi.URLParam(r, "collection"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	expand, _ := strconv.ParseBool(r.URL.Query().Get("expand"))
	doc, err := h.reader.Get(r.Context(), c, chi.URLParam(r, "id"), nil, expand)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if doc == nil {
		h.errs.Write(w, r, apierr.NotFound(c.Type))
		return
	}
	jsonutil.OK(w, map[string]any{"doc": strip(c, doc)})
}

// Create handles POST /admin/api/{collection}.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	c, err := collection(chi.URLParam(r, "collection"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if c.Name == schema.Media {
		h.errs.Write(w, r, apierr.Field("file", "upload media with POST /api/media"))
		return
	}

	var body map[string]any
	if err := jsonutil.Decode(w, r, &body); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	b, err := bind(c, body, nil)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if err := h.store.Save(r.Context(), c, b.doc, nil); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.logger.Info("document created",
		zap.String("collection", c.Name),
		zap.String("id", b.doc.Meta().ID.Hex()))
	h.respond(w, r, http.StatusCreated, c, b, c.Type+" created")
}

// Update handles PATCH /admin/api/{collection}/{id} with a JSON merge patch.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	c, err := collection(chi.URLParam(r, "collection"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	id, err := objectID(chi.URLParam(r, "id"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	var body map[string]any
	if err := jsonutil.Decode(w, r, &body); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	prev := c.New()
	if err := h.store.Get(r.Context(), c, id, prev); err != nil {
		h.errs.Write(w, r, notFound(c, err))
		return
	}
	base, err := toMap(prev)
	if err != nil {
		h.errs.Write(w, r, apierr.Internal(err))
		return
	}
	b, err := bind(c, body, base)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if err := h.store.Save(r.Context(), c, b.doc, prev); err != nil {
		h.errs.Write(w, r, notFound(c, err))
		return
	}
	h.logger.Info("document updated", zap.String("collection", c.Name), zap.String("id", id.Hex()))
	h.respond(w, r, http.StatusOK, c, b, c.Type+" updated")
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, c *schema.Collection, b *binding, msg string) {
	doc, err := toMap(b.doc)
	if err != nil {
		h.errs.Write(w, r, apierr.Internal(err))
		return
	}
	if len(b.warnings) > 0 {
		h.logger.Debug("section shape warnings",
			zap.String("collection", c.Name),
			zap.Int("count", len(b.warnings)))
	}
	jsonutil.JSON(w, status, WriteResponse{
		Success:  true,
		Message:  msg,
		Doc:      strip(c, doc),
		Warnings: b.warnings,
	})
}

// Delete handles DELETE /admin/api/{collection}/{id}. Media goes through the
// upload pipeline so the stored blob is removed too.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	c, err := collection(chi.URLParam(r, "collection"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	id, err := objectID(chi.URLParam(r, "id"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	if c.Name == schema.Media && h.media != nil {
		err = h.media.DeleteOne(r.Context(), id)
	} else {
		err = h.store.Delete(r.Context(), c, id)
	}
	if err != nil {
		h.errs.Write(w, r, notFound(c, err))
		return
	}
	h.logger.Info("document deleted", zap.String("collection", c.Name), zap.String("id", id.Hex()))
	jsonutil.Doc(w, http.StatusOK, c.Type+" deleted", map[string]any{"id": id.Hex()})
}

func objectID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, apierr.InvalidID(s)
	}
	return id, nil
}

// notFound names the collection in a NOT_FOUND error and passes anything
// else through.
func notFound(c *schema.Collection, err error) error {
	if apierr.From(err).Code == apierr.CodeNotFound {
		return apierr.NotFound(c.Type)
	}
	return err
}
