// Package integrity finds references that point at deleted documents and
// stored blobs that no media record owns. Reads already tolerate both; the
// sweep makes them visible to admins.
package integrity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dalemusser/stratasite/internal/app/store/storeutil"
	"github.com/dalemusser/stratasite/internal/app/system/metrics"
	"github.com/dalemusser/stratasite/internal/app/system/objectstore"
	"github.com/dalemusser/stratasite/internal/app/system/refexpand"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection stores the findings of the last sweep.
const Collection = "integrity_findings"

// Finding kinds.
const (
	KindDanglingRef = "dangling_ref"
	KindOrphanBlob  = "orphan_blob"
)

const idBatch = 500

// Finding is one detected problem.
type Finding struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind       string             `bson:"kind" json:"kind"`
	Collection string             `bson:"collection,omitempty" json:"collection,omitempty"`
	DocID      string             `bson:"doc_id,omitempty" json:"docId,omitempty"`
	Path       string             `bson:"path,omitempty" json:"path,omitempty"`
	Target     string             `bson:"target,omitempty" json:"target,omitempty"`
	MissingID  string             `bson:"missing_id,omitempty" json:"missingId,omitempty"`
	Key        string             `bson:"key,omitempty" json:"key,omitempty"`
	DetectedAt time.Time          `bson:"detected_at" json:"detectedAt"`
	LastSeenAt time.Time          `bson:"last_seen_at" json:"lastSeenAt"`
}

func (f Finding) identity() bson.M {
	return bson.M{
		"kind":       f.Kind,
		"collection": f.Collection,
		"doc_id":     f.DocID,
		"path":       f.Path,
		"missing_id": f.MissingID,
		"key":        f.Key,
	}
}

// Source reads the documents to check. contentstore.Store satisfies it.
type Source interface {
	Find(ctx context.Context, c *schema.Collection, filter any, opts *options.FindOptions) ([]map[string]any, error)
	ExistingIDs(ctx context.Context, collection string, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error)
}

// MediaKeys lists the object keys owned by media records. mediastore.Store
// satisfies it.
type MediaKeys interface {
	Keys(ctx context.Context) (map[string]bool, error)
}

// Config wires a Sweeper.
type Config struct {
	DB     *mongo.Database
	Source Source
	Media  MediaKeys
	Blobs  objectstore.Store // orphan detection runs only when it is also a Lister
	Logger *zap.Logger
}

// Sweeper runs integrity checks.
type Sweeper struct {
	findings *mongo.Collection
	src      Source
	media    MediaKeys
	lister   objectstore.Lister
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a Sweeper.
func New(cfg Config) *Sweeper {
	s := &Sweeper{
		src:    cfg.Source,
		media:  cfg.Media,
		logger: cfg.Logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	if cfg.DB != nil {
		s.findings = cfg.DB.Collection(Collection)
	}
	if l, ok := cfg.Blobs.(objectstore.Lister); ok {
		s.lister = l
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Report summarizes one sweep.
type Report struct {
	Dangling int   `json:"dangling"`
	Orphans  int   `json:"orphans"`
	Resolved int64 `json:"resolved"`
}

// Sweep scans, records current findings, and clears those no longer seen.
func (s *Sweeper) Sweep(ctx context.Context) (Report, error) {
	start := s.now()
	found, err := s.Scan(ctx)
	if err != nil {
		return Report{}, err
	}

	var rep Report
	for _, f := range found {
		if f.Kind == KindOrphanBlob {
			rep.Orphans++
		} else {
			rep.Dangling++
		}
	}

	if s.findings != nil {
		if len(found) > 0 {
			writes := make([]mongo.WriteModel, 0, len(found))
			for _, f := range found {
				writes = append(writes, mongo.NewUpdateOneModel().
					SetFilter(f.identity()).
					SetUpdate(bson.M{
						"$set":         bson.M{"target": f.Target, "last_seen_at": start},
						"$setOnInsert": bson.M{"detected_at": start},
					}).
					SetUpsert(true))
			}
			if _, err := s.findings.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
				return rep, fmt.Errorf("record findings: %w", err)
			}
		}
		res, err := s.findings.DeleteMany(ctx, bson.M{"last_seen_at": bson.M{"$lt": start}})
		if err != nil {
			return rep, fmt.Errorf("clear resolved findings: %w", err)
		}
		rep.Resolved = res.DeletedCount
	}

	metrics.IntegrityFindings(len(found))
	s.logger.Info("integrity sweep finished",
		zap.Int("dangling", rep.Dangling),
		zap.Int("orphans", rep.Orphans),
		zap.Int64("resolved", rep.Resolved),
		zap.Duration("duration", s.now().Sub(start)))
	return rep, nil
}

// Scan returns current findings without recording them.
func (s *Sweeper) Scan(ctx context.Context) ([]Finding, error) {
	var out []Finding
	for _, c := range append(append([]*schema.Collection{}, schema.Collections...), schema.Settings) {
		found, err := s.scanCollection(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}

	orphans, err := s.orphanBlobs(ctx)
	if err != nil {
		return nil, err
	}
	return append(out, orphans...), nil
}

type ref struct {
	docID string
	path  string
	id    primitive.ObjectID
}

func (s *Sweeper) scanCollection(ctx context.Context, c *schema.Collection) ([]Finding, error) {
	paths := c.RefPaths()
	if len(paths) == 0 {
		return nil, nil
	}

	proj := bson.M{}
	for _, p := range paths {
		proj[p.Segments[0]] = 1
	}
	docs, err := s.src.Find(ctx, c, bson.M{}, options.Find().SetProjection(proj))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", c.Name, err)
	}

	byTarget := map[string][]ref{}
	for _, d := range docs {
		docID := fmt.Sprint(d["_id"])
		if oid, ok := d["_id"].(primitive.ObjectID); ok {
			docID = oid.Hex()
		}
		for _, p := range paths {
			p := p
			refexpand.Walk(d, p, func(v any) any {
				for _, id := range ids(p, v) {
					byTarget[p.Target] = append(byTarget[p.Target], ref{docID: docID, path: p.String(), id: id})
				}
				return v
			})
		}
	}

	var out []Finding
	targets := make([]string, 0, len(byTarget))
	for t := range byTarget {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	for _, target := range targets {
		refs := byTarget[target]
		exists, err := s.existing(ctx, target, refs)
		if err != nil {
			return nil, err
		}
		seen := map[ref]bool{}
		for _, r := range refs {
			if exists[r.id] || seen[r] {
				continue
			}
			seen[r] = true
			out = append(out, Finding{
				Kind:       KindDanglingRef,
				Collection: c.Name,
				DocID:      r.docID,
				Path:       r.path,
				Target:     target,
				MissingID:  r.id.Hex(),
			})
		}
	}
	return out, nil
}

func (s *Sweeper) existing(ctx context.Context, target string, refs []ref) (map[primitive.ObjectID]bool, error) {
	set := map[primitive.ObjectID]struct{}{}
	for _, r := range refs {
		set[r.id] = struct{}{}
	}
	all := make([]primitive.ObjectID, 0, len(set))
	for id := range set {
		all = append(all, id)
	}

	out := make(map[primitive.ObjectID]bool, len(all))
	for i := 0; i < len(all); i += idBatch {
		end := i + idBatch
		if end > len(all) {
			end = len(all)
		}
		got, err := s.src.ExistingIDs(ctx, target, all[i:end])
		if err != nil {
			return nil, fmt.Errorf("check %s ids: %w", target, err)
		}
		for id := range got {
			out[id] = true
		}
	}
	return out, nil
}

func (s *Sweeper) orphanBlobs(ctx context.Context) ([]Finding, error) {
	if s.lister == nil || s.media == nil {
		return nil, nil
	}
	owned, err := s.media.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load media keys: %w", err)
	}
	keys, err := s.lister.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	var out []Finding
	for _, k := range keys {
		if !owned[k] {
			out = append(out, Finding{Kind: KindOrphanBlob, Target: schema.Media, Key: k})
		}
	}
	return out, nil
}

// ids returns the ObjectIDs held at one path leaf. Icons also accept the
// legacy hex string form.
func ids(p schema.RefPath, v any) []primitive.ObjectID {
	one := func(x any) (primitive.ObjectID, bool) {
		switch t := x.(type) {
		case primitive.ObjectID:
			return t, true
		case string:
			if p.Icon {
				if id, err := primitive.ObjectIDFromHex(t); err == nil {
					return id, true
				}
			}
		}
		return primitive.NilObjectID, false
	}
	if !p.List {
		if id, ok := one(v); ok {
			return []primitive.ObjectID{id}
		}
		return nil
	}
	items, _ := v.([]any)
	var out []primitive.ObjectID
	for _, it := range items {
		if id, ok := one(it); ok {
			out = append(out, id)
		}
	}
	return out
}

// FindingsPage is one page of recorded findings.
type FindingsPage struct {
	Docs []Finding `json:"docs"`
	storeutil.PageInfo
}

// List returns recorded findings, newest first.
func (s *Sweeper) List(ctx context.Context, kind string, limit, page int64) (*FindingsPage, error) {
	filter := bson.M{}
	if kind != "" {
		filter["kind"] = kind
	}
	limit, page = storeutil.Clamp(limit, page)
	total, err := s.findings.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}
	opts := storeutil.Paginate(limit, page).
		SetSort(bson.D{{Key: "detected_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.findings.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := &FindingsPage{Docs: []Finding{}, PageInfo: storeutil.NewPageInfo(total, limit, page)}
	if err := cur.All(ctx, &out.Docs); err != nil {
		return nil, err
	}
	return out, nil
}
