// Package media exposes the upload pipeline over HTTP.
//
// Endpoints:
//   - POST   /api/media             - Upload a file (multipart "file")
//   - GET    /api/media             - List media (admin)
//   - DELETE /api/media/{id}        - Delete one file and its record (admin)
//   - POST   /api/media/bulk-delete - Delete several (admin)
//
// Anonymous uploads are limited to resume documents and always land in the
// "resumes" folder; an admin token lifts both restrictions.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/system/adminauth"
	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/contentquery"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/upload"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ResumeFolder receives anonymous uploads.
const ResumeFolder = "resumes"

// multipartOverhead is the slack allowed over maxBytes for form boundaries
// and the text fields sent alongside the file.
const multipartOverhead = 64 << 10

// Uploader stores and removes files. upload.Pipeline satisfies it.
type Uploader interface {
	Upload(ctx context.Context, in upload.Input) (*models.Media, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int, error)
}

// Lister pages through media records. contentquery.Query satisfies it.
type Lister interface {
	List(ctx context.Context, c *schema.Collection, p contentquery.Params) (*contentquery.Result, error)
}

// Handler handles media requests.
type Handler struct {
	uploader Uploader
	lister   Lister
	errs     *apierr.Writer
	logger   *zap.Logger
	maxBytes int64
}

// NewHandler creates a media handler. maxBytes <= 0 uses upload.DefaultMaxBytes.
func NewHandler(uploader Uploader, lister Lister, errs *apierr.Writer, logger *zap.Logger, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = upload.DefaultMaxBytes
	}
	return &Handler{uploader: uploader, lister: lister, errs: errs, logger: logger, maxBytes: maxBytes}
}

// Upload handles POST /api/media.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.errs.Write(w, r, h.tooLarge(err))
			return
		}
		h.errs.Write(w, r, apierr.Wrap(apierr.CodeValidation, "Expected a multipart form with a file field", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errs.Write(w, r, apierr.Field("file", "file is required"))
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		h.errs.Write(w, r, h.tooLarge(nil))
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		h.errs.Write(w, r, apierr.Wrap(apierr.CodeUpload, "Failed to read the upload", err))
		return
	}
	if int64(len(data)) > h.maxBytes {
		h.errs.Write(w, r, h.tooLarge(nil))
		return
	}

	in := upload.Input{
		Data:     data,
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Folder:   r.FormValue("folder"),
		Alt:      r.FormValue("alt"),
		Caption:  r.FormValue("caption"),
	}
	if in.MimeType == "" || in.MimeType == "application/octet-stream" {
		in.MimeType = http.DetectContentType(data)
	}

	if claims, ok := adminauth.FromContext(r.Context()); ok {
		in.UploadedBy = claims.Email
	} else {
		if !isResumeType(in.MimeType) {
			h.errs.Write(w, r, apierr.Field("file", "Only PDF, DOC, or DOCX files may be uploaded"))
			return
		}
		in.Folder = ResumeFolder
	}

	m, err := h.uploader.Upload(r.Context(), in)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	h.logger.Info("media uploaded",
		zap.String("id", m.ID.Hex()),
		zap.String("key", m.S3Key),
		zap.Int64("size", m.FileSize))
	jsonutil.Doc(w, http.StatusCreated, "File uploaded.", m)
}

func (h *Handler) tooLarge(err error) error {
	return apierr.Wrap(apierr.CodeFileTooLarge,
		fmt.Sprintf("File exceeds the %d MB limit", h.maxBytes>>20), err)
}

func isResumeType(mimeType string) bool {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	m := models.Media{MimeType: strings.TrimSpace(strings.ToLower(mimeType))}
	return m.IsResumeDocument()
}

// List handles GET /api/media?limit=&page=&sort=&folder=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	c, _ := schema.Lookup(schema.Media)
	q := r.URL.Query()

	p := contentquery.Params{Sort: q.Get("sort")}
	p.Limit, _ = strconv.ParseInt(q.Get("limit"), 10, 64)
	p.Page, _ = strconv.ParseInt(q.Get("page"), 10, 64)
	if folder := strings.TrimSpace(q.Get("folder")); folder != "" {
		p.Where = contentquery.Where{"folder": {Equals: folder, HasEquals: true}}
	}

	res, err := h.lister.List(r.Context(), c, p)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	jsonutil.OK(w, res)
}

// Delete handles DELETE /api/media/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.errs.Write(w, r, apierr.InvalidID(chi.URLParam(r, "id")))
		return
	}
	if err := h.DeleteOne(r.Context(), id); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	jsonutil.OK(w, map[string]any{"success": true, "id": id.Hex()})
}

// DeleteOne removes a single file. Used by the admin action endpoint too.
func (h *Handler) DeleteOne(ctx context.Context, id primitive.ObjectID) error {
	if err := h.uploader.Delete(ctx, id); err != nil {
		return err
	}
	h.logger.Info("media deleted", zap.String("id", id.Hex()))
	return nil
}

// BulkDeleteInput is the bulk-delete body.
type BulkDeleteInput struct {
	IDs []string `json:"ids"`
}

// BulkDelete handles POST /api/media/bulk-delete.
func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var in BulkDeleteInput
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	n, err := h.DeleteIDs(r.Context(), in.IDs)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	jsonutil.OK(w, map[string]any{"success": true, "deleted": n})
}

// DeleteIDs parses hex ids and deletes them. Any malformed id rejects the
// whole batch before anything is removed.
func (h *Handler) DeleteIDs(ctx context.Context, hexIDs []string) (int, error) {
	if len(hexIDs) == 0 {
		return 0, apierr.Field("ids", "ids must list at least one id")
	}
	ids := make([]primitive.ObjectID, 0, len(hexIDs))
	for _, s := range hexIDs {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
		if err != nil {
			return 0, apierr.InvalidID(s)
		}
		ids = append(ids, id)
	}
	n, err := h.uploader.DeleteMany(ctx, ids)
	if err != nil {
		return n, err
	}
	h.logger.Info("media bulk delete", zap.Int("requested", len(ids)), zap.Int("deleted", n))
	return n, nil
}
