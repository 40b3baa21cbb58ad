// internal/app/store/ledger/ledgerstore.go
package ledgerstore

import (
	"context"
	"regexp"
	"time"

	"github.com/dalemusser/stratasite/internal/app/store/storeutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is where failed API requests are recorded. Entries expire via
// a TTL index on started_at.
const Collection = "api_request_log"

// Entry is one failed API request.
type Entry struct {
	ID primitive.ObjectID `bson:"_id" json:"id"`

	RequestID       string `bson:"request_id" json:"requestId"`
	ClientRequestID string `bson:"client_request_id,omitempty" json:"clientRequestId,omitempty"` // X-Request-ID

	Method    string `bson:"method" json:"method"`
	Path      string `bson:"path" json:"path"`
	Query     string `bson:"query,omitempty" json:"query,omitempty"`
	RemoteIP  string `bson:"remote_ip" json:"remoteIp"`
	UserAgent string `bson:"user_agent,omitempty" json:"userAgent,omitempty"`

	// "admin" when a valid admin token was presented, else "anonymous"
	Actor string `bson:"actor" json:"actor"`

	RequestBodySize    int64  `bson:"request_body_size" json:"requestBodySize"`
	RequestBodyHash    string `bson:"request_body_hash,omitempty" json:"requestBodyHash,omitempty"`
	RequestBodyPreview string `bson:"request_body_preview,omitempty" json:"requestBodyPreview,omitempty"`
	RequestContentType string `bson:"request_content_type,omitempty" json:"requestContentType,omitempty"`

	StatusCode   int    `bson:"status_code" json:"statusCode"`
	ErrorCode    string `bson:"error_code,omitempty" json:"errorCode,omitempty"`
	ErrorMessage string `bson:"error_message,omitempty" json:"errorMessage,omitempty"`

	DurationMs float64   `bson:"duration_ms" json:"durationMs"`
	StartedAt  time.Time `bson:"started_at" json:"startedAt"`
}

// Store provides request log persistence.
type Store struct {
	c *mongo.Collection
}

// New creates a new ledger store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts a new entry.
func (s *Store) Create(ctx context.Context, entry Entry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := s.c.InsertOne(ctx, entry)
	return err
}

// GetByRequestID retrieves an entry by its request ID.
func (s *Store) GetByRequestID(ctx context.Context, requestID string) (*Entry, error) {
	var entry Entry
	if err := s.c.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListFilter narrows List results.
type ListFilter struct {
	MinStatus int    // e.g. 500 for server errors only
	Path      string // prefix match
	Since     time.Time
}

// ListResult is one page of entries.
type ListResult struct {
	Entries []Entry `json:"docs"`
	storeutil.PageInfo
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, filter ListFilter, limit, page int64) (ListResult, error) {
	limit, page = storeutil.Clamp(limit, page)
	query := buildQuery(filter)

	total, err := s.c.CountDocuments(ctx, query)
	if err != nil {
		return ListResult{}, err
	}

	opts := storeutil.Paginate(limit, page).
		SetSort(bson.D{{Key: "started_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return ListResult{}, err
	}
	defer cur.Close(ctx)

	entries := []Entry{}
	if err := cur.All(ctx, &entries); err != nil {
		return ListResult{}, err
	}
	return ListResult{Entries: entries, PageInfo: storeutil.NewPageInfo(total, limit, page)}, nil
}

func buildQuery(f ListFilter) bson.M {
	q := bson.M{}
	if f.MinStatus > 0 {
		q["status_code"] = bson.M{"$gte": f.MinStatus}
	}
	if f.Path != "" {
		q["path"] = bson.M{"$regex": "^" + regexp.QuoteMeta(f.Path)}
	}
	if !f.Since.IsZero() {
		q["started_at"] = bson.M{"$gte": f.Since}
	}
	return q
}
