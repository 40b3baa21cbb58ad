package admin

import (
	"net/http"

	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ActionInput is the body of an action request. delete and clone take id;
// bulk-delete takes ids.
type ActionInput struct {
	ID  string   `json:"id"`
	IDs []string `json:"ids"`
}

// Action handles POST /admin/api/{collection}/actions/{action}.
func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	c, err := collection(chi.URLParam(r, "collection"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	action := chi.URLParam(r, "action")
	if !contains(c.Actions, action) {
		h.errs.Write(w, r, apierr.NotFound("Action"))
		return
	}

	var in ActionInput
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	switch {
	case c.Name == schema.Media && action == "delete":
		h.deleteMedia(w, r, in)
	case c.Name == schema.Media && action == "bulk-delete":
		h.bulkDeleteMedia(w, r, in)
	case action == "clone":
		h.clone(w, r, c, in)
	default:
		h.errs.Write(w, r, apierr.NotFound("Action"))
	}
}

func (h *Handler) deleteMedia(w http.ResponseWriter, r *http.Request, in ActionInput) {
	id, err := objectID(in.ID)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if err := h.media.DeleteOne(r.Context(), id); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	jsonutil.Doc(w, http.StatusOK, "Media deleted", map[string]any{"id": id.Hex()})
}

func (h *Handler) bulkDeleteMedia(w http.ResponseWriter, r *http.Request, in ActionInput) {
	n, err := h.media.DeleteIDs(r.Context(), in.IDs)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	jsonutil.OK(w, map[string]any{"success": true, "deleted": n})
}

func (h *Handler) clone(w http.ResponseWriter, r *http.Request, c *schema.Collection, in ActionInput) {
	id, err := objectID(in.ID)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	doc, err := h.store.Clone(r.Context(), c, id)
	if err != nil {
		h.errs.Write(w, r, notFound(c, err))
		return
	}
	out, err := toMap(doc)
	if err != nil {
		h.errs.Write(w, r, apierr.Internal(err))
		return
	}
	h.logger.Info("document cloned",
		zap.String("collection", c.Name),
		zap.String("from", id.Hex()),
		zap.String("id", doc.Meta().ID.Hex()))
	jsonutil.Doc(w, http.StatusCreated, c.Type+" cloned", strip(c, out))
}
