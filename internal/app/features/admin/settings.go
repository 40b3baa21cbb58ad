package admin

import (
	"net/http"
	"strconv"
	"strings"

	ledgerstore "github.com/dalemusser/stratasite/internal/app/store/ledger"
	"github.com/dalemusser/stratasite/internal/app/system/adminauth"
	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/inputval"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.uber.org/zap"
)

// GetSettings handles GET /admin/api/site-settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	jsonutil.OK(w, map[string]any{"doc": s})
}

// PutSettings handles PUT /admin/api/site-settings. The body replaces the
// whole document.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var s models.SiteSettings
	if err := jsonutil.Decode(w, r, &s); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	s.SiteName = strings.TrimSpace(s.SiteName)
	if res := inputval.Validate(s); res.HasErrors() {
		h.errs.Write(w, r, res.Err())
		return
	}
	if claims, ok := adminauth.FromContext(r.Context()); ok {
		s.UpdatedByName = claims.Email
	}

	if err := h.settings.Save(r.Context(), s); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	saved, err := h.settings.Get(r.Context())
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.logger.Info("site settings updated", zap.String("by", s.UpdatedByName))
	jsonutil.Doc(w, http.StatusOK, "Site settings updated", saved)
}

// RequestLog handles GET /admin/api/request-log?minStatus=&path=&limit=&page=.
func (h *Handler) RequestLog(w http.ResponseWriter, r *http.Request) {
	if h.requests == nil {
		h.errs.Write(w, r, apierr.NotFound("Request log"))
		return
	}
	q := r.URL.Query()
	f := ledgerstore.ListFilter{Path: strings.TrimSpace(q.Get("path"))}
	f.MinStatus, _ = strconv.Atoi(q.Get("minStatus"))
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)
	page, _ := strconv.ParseInt(q.Get("page"), 10, 64)

	res, err := h.requests.List(r.Context(), f, limit, page)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	jsonutil.OK(w, res)
}

// Integrity handles GET /admin/api/integrity?kind=&limit=&page=.
func (h *Handler) Integrity(w http.ResponseWriter, r *http.Request) {
	if h.findings == nil {
		h.errs.Write(w, r, apierr.NotFound("Integrity findings"))
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)
	page, _ := strconv.ParseInt(q.Get("page"), 10, 64)

	res, err := h.findings.List(r.Context(), q.Get("kind"), limit, page)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	jsonutil.OK(w, res)
}

// Sweep handles POST /admin/api/integrity/sweep and runs a sweep now.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	if h.findings == nil {
		h.errs.Write(w, r, apierr.NotFound("Integrity findings"))
		return
	}
	rep, err := h.findings.Sweep(r.Context())
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.logger.Info("integrity sweep requested",
		zap.Int("dangling", rep.Dangling),
		zap.Int("orphans", rep.Orphans),
		zap.Int64("resolved", rep.Resolved))
	jsonutil.OK(w, map[string]any{"success": true, "report": rep})
}
