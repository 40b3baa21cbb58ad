// Package refexpand replaces stored ObjectID references with the documents
// they point at, driven by the reference paths each collection declares in
// the schema registry.
//
// Lookups are batched: one $in query per target collection per level.
// A reference whose document no longer exists becomes nil (or a nil element
// in its list position), and so does one the context's Visibility rejects.
// Media references inside expanded documents are expanded one level further;
// nothing deeper is followed.
package refexpand

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MaxDepth is how many levels of references are followed.
const MaxDepth = 2

// Fetcher loads plain documents by id from a collection. Missing ids are
// simply absent from the result.
type Fetcher interface {
	FindByIDs(ctx context.Context, collection string, ids []primitive.ObjectID) (map[primitive.ObjectID]map[string]any, error)
}

// Visibility reports whether an expanded document of target may be shown.
// doc is the stored plain document.
type Visibility func(target *schema.Collection, doc map[string]any) bool

type visibilityKey struct{}

// WithVisibility returns a context under which expansion replaces documents
// v rejects with nil.
func WithVisibility(ctx context.Context, v Visibility) context.Context {
	return context.WithValue(ctx, visibilityKey{}, v)
}

func visibilityFrom(ctx context.Context) Visibility {
	v, _ := ctx.Value(visibilityKey{}).(Visibility)
	return v
}

// Public is the Visibility for anonymous readers: drafts, inactive entries
// and closed jobs are hidden.
func Public(target *schema.Collection, doc map[string]any) bool {
	if target == nil {
		return true
	}
	if _, ok := target.Field("publishedAt"); ok {
		return doc["status"] == string(models.StatusPublished)
	}
	if _, ok := target.Field("active"); ok {
		return doc["active"] == true
	}
	if target.Name == schema.Jobs {
		return doc["status"] == "active"
	}
	return true
}

// Expander expands references in place.
type Expander struct {
	fetch  Fetcher
	logger *zap.Logger
}

// New creates an Expander.
func New(fetch Fetcher, logger *zap.Logger) *Expander {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expander{fetch: fetch, logger: logger}
}

// Expand resolves every declared reference in docs, which must be plain
// documents of collection c (see storeutil.Plain). docs are modified in place.
func (e *Expander) Expand(ctx context.Context, c *schema.Collection, docs []map[string]any) error {
	return e.expand(ctx, c.Name, c.RefPaths(), docs, 1)
}

// ExpandOne is Expand for a single document.
func (e *Expander) ExpandOne(ctx context.Context, c *schema.Collection, doc map[string]any) error {
	if doc == nil {
		return nil
	}
	return e.Expand(ctx, c, []map[string]any{doc})
}

func (e *Expander) expand(ctx context.Context, coll string, paths []schema.RefPath, docs []map[string]any, depth int) error {
	if len(paths) == 0 || len(docs) == 0 {
		return nil
	}

	// collect ids per target
	want := map[string]map[primitive.ObjectID]struct{}{}
	for _, p := range paths {
		for _, d := range docs {
			Walk(d, p, func(v any) any {
				for _, id := range refIDs(p, v) {
					if want[p.Target] == nil {
						want[p.Target] = map[primitive.ObjectID]struct{}{}
					}
					want[p.Target][id] = struct{}{}
				}
				return v
			})
		}
	}
	if len(want) == 0 {
		return nil
	}

	visible := visibilityFrom(ctx)
	found := make(map[string]map[primitive.ObjectID]map[string]any, len(want))
	for target, set := range want {
		ids := make([]primitive.ObjectID, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		got, err := e.fetch.FindByIDs(ctx, target, ids)
		if err != nil {
			return fmt.Errorf("expand %s refs to %s: %w", coll, target, err)
		}
		if missing := len(ids) - len(got); missing > 0 {
			e.logger.Debug("dangling references",
				zap.String("collection", coll),
				zap.String("target", target),
				zap.Int("missing", missing))
		}
		if visible != nil {
			tc, _ := schema.Lookup(target)
			for id, d := range got {
				if !visible(tc, d) {
					delete(got, id)
				}
			}
		}
		found[target] = got
	}

	for _, p := range paths {
		byID := found[p.Target]
		for _, d := range docs {
			Walk(d, p, func(v any) any { return replace(p, v, byID) })
		}
	}

	if depth >= MaxDepth {
		return nil
	}
	for target, byID := range found {
		tc, ok := schema.Lookup(target)
		if !ok || target == schema.Media {
			continue
		}
		mediaPaths := mediaOnly(tc.RefPaths())
		if len(mediaPaths) == 0 {
			continue
		}
		nested := make([]map[string]any, 0, len(byID))
		for _, d := range byID {
			nested = append(nested, d)
		}
		if err := e.expand(ctx, target, mediaPaths, nested, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func mediaOnly(paths []schema.RefPath) []schema.RefPath {
	var out []schema.RefPath
	for _, p := range paths {
		if p.Target == schema.Media {
			out = append(out, p)
		}
	}
	return out
}

// refIDs returns the ObjectIDs stored at one path leaf.
func refIDs(p schema.RefPath, v any) []primitive.ObjectID {
	if p.List {
		items, _ := v.([]any)
		var out []primitive.ObjectID
		for _, it := range items {
			if id, ok := asID(it, false); ok {
				out = append(out, id)
			}
		}
		return out
	}
	if id, ok := asID(v, p.Icon); ok {
		return []primitive.ObjectID{id}
	}
	return nil
}

// asID accepts an ObjectID. Icons also accept a hex string, the legacy form
// of a media reference.
func asID(v any, icon bool) (primitive.ObjectID, bool) {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t, true
	case string:
		if icon {
			if id, err := primitive.ObjectIDFromHex(t); err == nil {
				return id, true
			}
		}
	}
	return primitive.NilObjectID, false
}

func replace(p schema.RefPath, v any, byID map[primitive.ObjectID]map[string]any) any {
	lookup := func(x any) any {
		id, ok := asID(x, p.Icon)
		if !ok {
			return x
		}
		if d, ok := byID[id]; ok {
			return d
		}
		return nil
	}

	if p.List {
		items, ok := v.([]any)
		if !ok {
			return v
		}
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = lookup(it)
		}
		return out
	}
	return lookup(v)
}

// Walk visits the leaf value at path p in doc and stores fn's result back.
// Arrays met along the way are walked element by element. Missing keys are
// skipped.
func Walk(doc map[string]any, p schema.RefPath, fn func(any) any) {
	segs := p.Segments
	if p.Block == "" {
		walk(doc, segs, fn)
		return
	}
	items, ok := doc[segs[0]].([]any)
	if !ok {
		return
	}
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if tag, _ := m["block_type"].(string); tag != string(p.Block) {
			continue
		}
		walk(m, segs[1:], fn)
	}
}

func walk(m map[string]any, segs []string, fn func(any) any) {
	if len(segs) == 0 {
		return
	}
	v, ok := m[segs[0]]
	if !ok {
		return
	}
	if len(segs) == 1 {
		m[segs[0]] = fn(v)
		return
	}
	switch t := v.(type) {
	case map[string]any:
		walk(t, segs[1:], fn)
	case []any:
		for _, it := range t {
			if child, ok := it.(map[string]any); ok {
				walk(child, segs[1:], fn)
			}
		}
	}
}
