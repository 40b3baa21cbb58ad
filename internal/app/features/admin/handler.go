// Package admin is the JSON binding the admin UI is generated from.
//
// Endpoints under /admin/api (admin token required):
//   - GET    /collections                      - Registry metadata and section schemas
//   - GET    /{collection}                     - Paginated list
//   - POST   /{collection}                     - Create
//   - GET    /{collection}/{id}                - Read
//   - PATCH  /{collection}/{id}                - JSON merge patch
//   - DELETE /{collection}/{id}                - Delete
//   - POST   /{collection}/actions/{action}    - Collection actions (media delete, bulk-delete; resource clone)
//   - GET|PUT /site-settings                   - Settings singleton
//   - GET    /request-log                      - Failed API requests
//   - GET    /integrity, POST /integrity/sweep - Dangling reference findings
//
// Login lives under /api/users (see UserRoutes).
package admin

import (
	"context"

	ledgerstore "github.com/dalemusser/stratasite/internal/app/store/ledger"
	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/contentquery"
	"github.com/dalemusser/stratasite/internal/app/system/integrity"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store writes typed documents. contentstore.Store satisfies it.
type Store interface {
	Get(ctx context.Context, c *schema.Collection, id primitive.ObjectID, doc models.Document) error
	Save(ctx context.Context, c *schema.Collection, doc, prev models.Document) error
	Delete(ctx context.Context, c *schema.Collection, id primitive.ObjectID) error
	Clone(ctx context.Context, c *schema.Collection, id primitive.ObjectID) (models.Document, error)
}

// Reader lists and reads wire documents. contentquery.Query satisfies it.
type Reader interface {
	List(ctx context.Context, c *schema.Collection, p contentquery.Params) (*contentquery.Result, error)
	Get(ctx context.Context, c *schema.Collection, id string, scope bson.M, expand bool) (map[string]any, error)
}

// MediaDeleter removes media blobs with their records. media.Handler satisfies it.
type MediaDeleter interface {
	DeleteOne(ctx context.Context, id primitive.ObjectID) error
	DeleteIDs(ctx context.Context, hexIDs []string) (int, error)
}

// SettingsStore reads and replaces the settings singleton.
type SettingsStore interface {
	Get(ctx context.Context) (*models.SiteSettings, error)
	Save(ctx context.Context, s models.SiteSettings) error
}

// RequestLog lists recorded API failures. ledgerstore.Store satisfies it.
type RequestLog interface {
	List(ctx context.Context, filter ledgerstore.ListFilter, limit, page int64) (ledgerstore.ListResult, error)
}

// Findings exposes the integrity sweep. integrity.Sweeper satisfies it.
type Findings interface {
	List(ctx context.Context, kind string, limit, page int64) (*integrity.FindingsPage, error)
	Sweep(ctx context.Context) (integrity.Report, error)
}

// Deps wires a Handler. RequestLog and Findings may be nil.
type Deps struct {
	Store      Store
	Reader     Reader
	Media      MediaDeleter
	Settings   SettingsStore
	RequestLog RequestLog
	Findings   Findings
	Errors     *apierr.Writer
	Logger     *zap.Logger
}

// Handler serves the admin API.
type Handler struct {
	store    Store
	reader   Reader
	media    MediaDeleter
	settings SettingsStore
	requests RequestLog
	findings Findings
	errs     *apierr.Writer
	logger   *zap.Logger
}

// NewHandler creates an admin handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:    d.Store,
		reader:   d.Reader,
		media:    d.Media,
		settings: d.Settings,
		requests: d.RequestLog,
		findings: d.Findings,
		errs:     d.Errors,
		logger:   logger,
	}
}

// collection resolves a path segment to a registered collection.
func collection(name string) (*schema.Collection, error) {
	c, ok := schema.Lookup(name)
	if !ok {
		return nil, apierr.NotFound("Collection")
	}
	return c, nil
}
