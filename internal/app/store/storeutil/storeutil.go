// internal/app/store/storeutil/storeutil.go
package storeutil

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// List limits.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Clamp normalizes limit and a 1-based page.
func Clamp(limit, page int64) (int64, int64) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page <= 0 {
		page = 1
	}
	return limit, page
}

// Paginate returns *options.FindOptions with skip/limit given a 1-based page.
func Paginate(limit, page int64) *options.FindOptions {
	limit, page = Clamp(limit, page)
	sk := (page - 1) * limit
	return options.Find().SetLimit(limit).SetSkip(sk)
}

// PageInfo is the pagination envelope returned alongside list results.
type PageInfo struct {
	TotalDocs   int64 `json:"totalDocs"`
	Limit       int64 `json:"limit"`
	Page        int64 `json:"page"`
	TotalPages  int64 `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewPageInfo computes totals for an already clamped limit/page.
func NewPageInfo(total, limit, page int64) PageInfo {
	pages := int64(0)
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return PageInfo{
		TotalDocs:   total,
		Limit:       limit,
		Page:        page,
		TotalPages:  pages,
		HasNextPage: page < pages,
		HasPrevPage: page > 1,
	}
}

// Plain converts decoded BSON values into plain Go containers:
// bson.M and bson.D become map[string]any, bson.A becomes []any, and
// DateTime becomes a UTC time.Time. Other scalars are left untouched.
func Plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		return plainMap(t)
	case map[string]any:
		return plainMap(t)
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = Plain(e.Value)
		}
		return out
	case bson.A:
		return plainSlice(t)
	case []any:
		return plainSlice(t)
	case primitive.DateTime:
		return t.Time().UTC()
	}
	return v
}

// PlainDoc is Plain for a top-level document.
func PlainDoc(m bson.M) map[string]any {
	return plainMap(m)
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Plain(v)
	}
	return out
}

func plainSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = Plain(v)
	}
	return out
}

// ObjectIDs extracts the ids of decoded documents.
func ObjectIDs(docs []map[string]any) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		if id, ok := d["_id"].(primitive.ObjectID); ok {
			out = append(out, id)
		}
	}
	return out
}

// IsNotFound reports whether err is mongo.ErrNoDocuments.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
