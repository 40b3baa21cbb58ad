// Package contentquery implements list and get for every registered
// collection: where filters, sorting, offset pagination, reference
// expansion, and conversion to wire field names.
package contentquery

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/stratasite/internal/app/store/storeutil"
	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/refexpand"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Source reads plain documents. contentstore.Store satisfies it.
type Source interface {
	Find(ctx context.Context, c *schema.Collection, filter any, opts *options.FindOptions) ([]map[string]any, error)
	Count(ctx context.Context, c *schema.Collection, filter any) (int64, error)
}

// Condition is the operator set for one field.
type Condition struct {
	Equals    any
	HasEquals bool // distinguishes equals: null from no equals
	Contains  *string
	In        []any
}

// Where maps wire field names to conditions.
type Where map[string]Condition

// WhereFromMap reads {"field": {"equals"|"contains"|"in": ...}} as decoded
// from GraphQL arguments or JSON.
func WhereFromMap(raw map[string]any) (Where, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(Where, len(raw))
	for field, v := range raw {
		ops, ok := v.(map[string]any)
		if !ok {
			return nil, apierr.Field("where."+field, "must be an object with equals, contains, or in")
		}
		var cond Condition
		for op, val := range ops {
			switch op {
			case "equals":
				cond.Equals, cond.HasEquals = val, true
			case "contains":
				s, ok := val.(string)
				if !ok {
					return nil, apierr.Field("where."+field, "contains must be a string")
				}
				cond.Contains = &s
			case "in":
				list, ok := val.([]any)
				if !ok {
					return nil, apierr.Field("where."+field, "in must be a list")
				}
				cond.In = list
			default:
				return nil, apierr.Field("where."+field, fmt.Sprintf("unknown operator %q", op))
			}
		}
		out[field] = cond
	}
	return out, nil
}

// Params selects a page of documents.
type Params struct {
	Where  Where
	Limit  int64
	Page   int64
	Sort   string // wire field, "-" prefix for descending; empty uses the collection default
	Scope  bson.M // extra constraint applied by the caller (e.g. published only)
	Expand bool
}

// Result is one page of wire documents.
type Result struct {
	Docs []map[string]any `json:"docs"`
	storeutil.PageInfo
}

// Query runs list/get against a Source.
type Query struct {
	src Source
	exp *refexpand.Expander
}

// New creates a Query. exp may be nil when expansion is never requested.
func New(src Source, exp *refexpand.Expander) *Query {
	return &Query{src: src, exp: exp}
}

// List returns one page. A page past the end yields empty docs with correct totals.
func (q *Query) List(ctx context.Context, c *schema.Collection, p Params) (*Result, error) {
	filter, err := Filter(c, p.Where)
	if err != nil {
		return nil, err
	}
	filter = withScope(filter, p.Scope)

	sort, err := Sort(c, p.Sort)
	if err != nil {
		return nil, err
	}

	limit, page := storeutil.Clamp(p.Limit, p.Page)
	total, err := q.src.Count(ctx, c, filter)
	if err != nil {
		return nil, err
	}

	res := &Result{Docs: []map[string]any{}, PageInfo: storeutil.NewPageInfo(total, limit, page)}
	if (page-1)*limit >= total {
		return res, nil
	}

	opts := storeutil.Paginate(limit, page).SetSort(sort)
	docs, err := q.src.Find(ctx, c, filter, opts)
	if err != nil {
		return nil, err
	}
	if err := q.finish(ctx, c, docs, p.Expand); err != nil {
		return nil, err
	}
	for _, d := range docs {
		res.Docs = append(res.Docs, c.ToWire(d))
	}
	return res, nil
}

// Get returns the document with the given hex id, or nil when there is none.
func (q *Query) Get(ctx context.Context, c *schema.Collection, id string, scope bson.M, expand bool) (map[string]any, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, apierr.InvalidID(id)
	}
	return q.one(ctx, c, withScope(bson.M{"_id": oid}, scope), expand)
}

// GetBySlug returns the document with slug, or nil.
func (q *Query) GetBySlug(ctx context.Context, c *schema.Collection, slug string, scope bson.M, expand bool) (map[string]any, error) {
	if !c.HasSlug {
		return nil, apierr.Field("slug", c.Label+" cannot be looked up by slug")
	}
	return q.one(ctx, c, withScope(bson.M{"slug": slug}, scope), expand)
}

// Raw returns the stored plain document for filter without wire conversion,
// for callers that render server-side.
func (q *Query) Raw(ctx context.Context, c *schema.Collection, filter bson.M, expand bool) (map[string]any, error) {
	docs, err := q.src.Find(ctx, c, filter, options.Find().SetLimit(1))
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	if err := q.finish(ctx, c, docs, expand); err != nil {
		return nil, err
	}
	return docs[0], nil
}

// SiteSettings converts the settings singleton to its wire form, expanding
// logo, favicon, OG image and social icons when expand is set.
func (q *Query) SiteSettings(ctx context.Context, s *models.SiteSettings, expand bool) (map[string]any, error) {
	raw, err := bson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal site settings: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal site settings: %w", err)
	}
	doc := storeutil.PlainDoc(m)
	if expand && q.exp != nil {
		if err := q.exp.ExpandOne(ctx, schema.Settings, doc); err != nil {
			return nil, err
		}
	}
	return schema.Settings.ToWire(doc), nil
}

func (q *Query) one(ctx context.Context, c *schema.Collection, filter bson.M, expand bool) (map[string]any, error) {
	doc, err := q.Raw(ctx, c, filter, expand)
	if err != nil || doc == nil {
		return nil, err
	}
	return c.ToWire(doc), nil
}

func (q *Query) finish(ctx context.Context, c *schema.Collection, docs []map[string]any, expand bool) error {
	if !expand || q.exp == nil {
		return nil
	}
	return q.exp.Expand(ctx, c, docs)
}

// PublishedOnly returns the scope that hides drafts for collections with a
// publish lifecycle, or nil.
func PublishedOnly(c *schema.Collection) bson.M {
	if _, ok := c.Field("publishedAt"); !ok {
		return nil
	}
	return bson.M{"status": string(models.StatusPublished)}
}

func withScope(filter, scope bson.M) bson.M {
	if len(scope) == 0 {
		return filter
	}
	if len(filter) == 0 {
		return scope
	}
	return bson.M{"$and": bson.A{filter, scope}}
}

// Filter converts where into a MongoDB filter using storage keys.
func Filter(c *schema.Collection, where Where) (bson.M, error) {
	filter := bson.M{}
	details := map[string]string{}

	for name, cond := range where {
		key := "where." + name
		f, ok := c.Field(name)
		if !ok {
			details[key] = fmt.Sprintf("unknown field %q", name)
			continue
		}
		if !filterable(f.Kind) {
			details[key] = "field cannot be filtered"
			continue
		}

		ops := bson.M{}
		if cond.HasEquals {
			v, err := convert(f, cond.Equals)
			if err != nil {
				return nil, asFieldErr(key, err)
			}
			ops["$eq"] = v
		}
		if cond.In != nil {
			vals := make(bson.A, 0, len(cond.In))
			for _, x := range cond.In {
				v, err := convert(f, x)
				if err != nil {
					return nil, asFieldErr(key, err)
				}
				vals = append(vals, v)
			}
			ops["$in"] = vals
		}
		if cond.Contains != nil {
			if !textual(f.Kind) {
				details[key] = "contains only applies to text fields"
				continue
			}
			ops["$regex"] = regexp.QuoteMeta(*cond.Contains)
			ops["$options"] = "i"
		}
		if len(ops) > 0 {
			filter[f.Key] = ops
		}
	}

	if len(details) > 0 {
		return nil, apierr.Validation(details)
	}
	return filter, nil
}

// Sort builds the sort document for order ("field" or "-field"). Ties are
// broken by _id ascending, i.e. insertion order.
func Sort(c *schema.Collection, order string) (bson.D, error) {
	if order == "" {
		order = c.DefaultSort
	}
	if order == "" {
		return bson.D{{Key: "_id", Value: 1}}, nil
	}
	dir := 1
	name := order
	if strings.HasPrefix(order, "-") {
		dir, name = -1, order[1:]
	}
	f, ok := c.Field(name)
	if !ok || !f.Kind.Scalar() {
		return nil, apierr.Field("sort", fmt.Sprintf("cannot sort by %q", name))
	}
	sort := bson.D{{Key: f.Key, Value: dir}}
	if f.Key != "_id" {
		sort = append(sort, bson.E{Key: "_id", Value: 1})
	}
	return sort, nil
}

func filterable(k schema.Kind) bool {
	return k.Scalar() || k == schema.KindStringList || k == schema.KindRefList
}

func textual(k schema.Kind) bool {
	return k == schema.KindString || k == schema.KindText || k == schema.KindStringList
}

type convErr struct {
	msg   string
	badID string
}

func (e *convErr) Error() string { return e.msg }

func asFieldErr(key string, err error) error {
	if ce, ok := err.(*convErr); ok && ce.badID != "" {
		return apierr.InvalidID(ce.badID)
	}
	return apierr.Field(key, err.Error())
}

// convert coerces a filter value to the stored type of f.
func convert(f schema.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Kind {
	case schema.KindID, schema.KindRef, schema.KindRefList:
		s, ok := v.(string)
		if !ok {
			return nil, &convErr{msg: "must be an id string"}
		}
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, &convErr{msg: "invalid id", badID: s}
		}
		return oid, nil

	case schema.KindInt:
		switch t := v.(type) {
		case int:
			return int64(t), nil
		case int64:
			return t, nil
		case float64:
			if t != math.Trunc(t) {
				return nil, &convErr{msg: "must be a whole number"}
			}
			return int64(t), nil
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
			if err != nil {
				return nil, &convErr{msg: "must be a whole number"}
			}
			return n, nil
		}
		return nil, &convErr{msg: "must be a whole number"}

	case schema.KindFloat:
		switch t := v.(type) {
		case int:
			return float64(t), nil
		case int64:
			return float64(t), nil
		case float64:
			return t, nil
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if err != nil {
				return nil, &convErr{msg: "must be a number"}
			}
			return n, nil
		}
		return nil, &convErr{msg: "must be a number"}

	case schema.KindBool:
		switch t := v.(type) {
		case bool:
			return t, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(t))
			if err != nil {
				return nil, &convErr{msg: "must be true or false"}
			}
			return b, nil
		}
		return nil, &convErr{msg: "must be true or false"}

	case schema.KindTime:
		s, ok := v.(string)
		if !ok {
			return nil, &convErr{msg: "must be an RFC 3339 date"}
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return nil, &convErr{msg: "must be an RFC 3339 date"}
	}

	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return fmt.Sprint(t), nil
	}
}
