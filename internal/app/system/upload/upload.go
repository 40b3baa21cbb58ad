// Package upload turns an incoming file into a stored blob plus a Media
// record, and removes both again on delete.
//
// Upload order: allow-list check, optional virus scan, image transform
// (images only; failures fall back to the original bytes), object store put,
// media insert. A failed insert deletes the blob it just stored. The steps
// are not transactional: a crash between put and insert leaves an orphan
// blob, which the integrity sweep reports.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/imageproc"
	"github.com/dalemusser/stratasite/internal/app/system/metrics"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/stratasite/internal/app/system/objectstore"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/google/uuid"
	pdf "github.com/ledongthuc/pdf"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultMaxBytes caps one upload.
const DefaultMaxBytes = 10 << 20

// DefaultFolder is used when the client names none.
const DefaultFolder = "media"

// AllowedTypes is the MIME allow-list for uploads.
var AllowedTypes = map[string]string{
	"image/jpeg":         ".jpg",
	"image/png":          ".png",
	"image/webp":         ".webp",
	"image/gif":          ".gif",
	"application/pdf":    ".pdf",
	"application/msword": ".doc",

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

// Allowed reports whether mimeType may be uploaded.
func Allowed(mimeType string) bool {
	_, ok := AllowedTypes[mimeType]
	return ok
}

// Records persists media metadata. mediastore.Store satisfies it.
type Records interface {
	Create(ctx context.Context, m *models.Media) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Media, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Config wires a Pipeline.
type Config struct {
	Store   objectstore.Store
	Records Records
	Scanner Scanner // nil disables scanning
	Image   imageproc.Options
	Logger  *zap.Logger
}

// Pipeline runs uploads and deletes.
type Pipeline struct {
	store   objectstore.Store
	records Records
	scanner Scanner
	image   imageproc.Options
	logger  *zap.Logger
	now     func() time.Time
	suffix  func() string
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:   cfg.Store,
		records: cfg.Records,
		scanner: cfg.Scanner,
		image:   cfg.Image,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		suffix:  func() string { return strings.ReplaceAll(uuid.New().String(), "-", "")[:6] },
	}
}

// Input is one file to upload.
type Input struct {
	Data       []byte
	Filename   string
	MimeType   string
	Folder     string
	Alt        string
	Caption    string
	UploadedBy string
}

// Upload stores in and returns the new Media record.
func (p *Pipeline) Upload(ctx context.Context, in Input) (*models.Media, error) {
	mimeType := strings.ToLower(strings.TrimSpace(in.MimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !Allowed(mimeType) {
		metrics.Upload("rejected", 0)
		return nil, apierr.Field("file", fmt.Sprintf("file type %q is not allowed", in.MimeType))
	}
	if len(in.Data) == 0 {
		metrics.Upload("rejected", 0)
		return nil, apierr.Field("file", "file is empty")
	}

	if p.scanner != nil {
		if err := p.scanner.Scan(ctx, bytes.NewReader(in.Data)); err != nil {
			if errors.Is(err, ErrInfected) {
				metrics.Upload("rejected", 0)
				return nil, apierr.Field("file", "file failed the virus scan")
			}
			metrics.Upload("storage_error", 0)
			return nil, apierr.Wrap(apierr.CodeUpload, "Virus scan unavailable", err)
		}
	}

	media := &models.Media{
		OriginalFilename: in.Filename,
		MimeType:         mimeType,
		Alt:              strings.TrimSpace(in.Alt),
		Caption:          strings.TrimSpace(in.Caption),
		UploadedBy:       in.UploadedBy,
	}
	data := in.Data
	base, ext := normalize.Filename(in.Filename)

	if imageproc.Handles(mimeType) {
		data, ext = p.transform(media, data, ext)
	}
	if ext == "" {
		ext = AllowedTypes[media.MimeType]
	}
	if media.MimeType == "application/pdf" {
		media.PageCount = pageCount(data)
	}

	folder := normalize.Folder(in.Folder)
	if folder == "" {
		folder = DefaultFolder
	}
	key := Key(folder, base, ext, p.now(), p.suffix())

	if err := p.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), media.MimeType); err != nil {
		metrics.Upload("storage_error", 0)
		return nil, apierr.Wrap(apierr.CodeUpload, "Failed to store the file", err)
	}

	media.Filename = base + ext
	media.FileSize = int64(len(data))
	media.URL = p.store.URL(key)
	media.S3Key = key
	media.S3Bucket = p.store.Bucket()
	media.Folder = folder

	if err := p.records.Create(ctx, media); err != nil {
		if derr := p.store.Delete(context.WithoutCancel(ctx), key); derr != nil {
			p.logger.Error("failed to remove blob after record insert failed",
				zap.String("key", key), zap.Error(derr))
		}
		metrics.Upload("record_error", 0)
		return nil, fmt.Errorf("create media record: %w", err)
	}

	metrics.Upload("ok", media.FileSize)
	return media, nil
}

// transform runs the image step, falling back to the original bytes on
// failure. It fills in dimensions and returns the bytes and extension to store.
func (p *Pipeline) transform(media *models.Media, data []byte, ext string) ([]byte, string) {
	res, err := imageproc.Transform(data, media.MimeType, p.image)
	if err == nil {
		metrics.ImageTransform("ok")
		media.MimeType = res.MimeType
		media.Width, media.Height = res.Width, res.Height
		return res.Data, res.Ext
	}

	metrics.ImageTransform("fallback")
	p.logger.Warn("image transform failed, storing original",
		zap.String("filename", media.OriginalFilename),
		zap.String("mime_type", media.MimeType),
		zap.Error(err))
	if w, h, derr := imageproc.Dimensions(data); derr == nil {
		media.Width, media.Height = w, h
	}
	return data, ext
}

// Delete removes the blob (a missing blob is fine) and then the record.
func (p *Pipeline) Delete(ctx context.Context, id primitive.ObjectID) error {
	media, err := p.records.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := p.store.Delete(ctx, media.S3Key); err != nil {
		return apierr.Wrap(apierr.CodeUpload, "Failed to delete the stored file", err)
	}
	return p.records.Delete(ctx, id)
}

// DeleteMany deletes each id in turn. Missing records are skipped; the first
// other error stops the batch.
func (p *Pipeline) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int, error) {
	deleted := 0
	for _, id := range ids {
		err := p.Delete(ctx, id)
		switch {
		case err == nil:
			deleted++
		case apierr.From(err).Code == apierr.CodeNotFound:
		default:
			return deleted, err
		}
	}
	return deleted, nil
}

// Key builds the storage key <folder>/<YYYY>/<MM>/<unixmillis>-<name>-<suffix><ext>.
func Key(folder, name, ext string, now time.Time, suffix string) string {
	return fmt.Sprintf("%s/%04d/%02d/%d-%s-%s%s",
		folder, now.Year(), int(now.Month()), now.UnixMilli(), name, suffix, ext)
}

// pageCount returns the number of pages, or 0 when the PDF cannot be parsed.
func pageCount(data []byte) int {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return r.NumPage()
}
