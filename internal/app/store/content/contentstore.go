// internal/app/store/content/contentstore.go
package contentstore

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/dalemusser/stratasite/internal/app/store/storeutil"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides typed and raw access to every registered content collection.
type Store struct {
	db  *mongo.Database
	now func() time.Time
}

// New creates a new content store.
func New(db *mongo.Database) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) coll(c *schema.Collection) *mongo.Collection {
	return s.db.Collection(c.Name)
}

// Get decodes the document with id into doc.
func (s *Store) Get(ctx context.Context, c *schema.Collection, id primitive.ObjectID, doc models.Document) error {
	return s.coll(c).FindOne(ctx, bson.M{"_id": id}).Decode(doc)
}

// GetRaw returns the stored document as a plain map, or mongo.ErrNoDocuments.
func (s *Store) GetRaw(ctx context.Context, c *schema.Collection, filter bson.M) (map[string]any, error) {
	var m bson.M
	if err := s.coll(c).FindOne(ctx, filter).Decode(&m); err != nil {
		return nil, err
	}
	return storeutil.PlainDoc(m), nil
}

// Find returns plain documents matching filter.
func (s *Store) Find(ctx context.Context, c *schema.Collection, filter any, opts *options.FindOptions) ([]map[string]any, error) {
	cur, err := s.coll(c).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []map[string]any
	for cur.Next(ctx) {
		var m bson.M
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, storeutil.PlainDoc(m))
	}
	return out, cur.Err()
}

// Count counts documents matching filter.
func (s *Store) Count(ctx context.Context, c *schema.Collection, filter any) (int64, error) {
	return s.coll(c).CountDocuments(ctx, filter)
}

// Save applies the write rules to doc and persists it. prev is the stored
// version for an update and nil for a create.
//
// Rules: publish status only moves forward and publishedAt is stamped once;
// slugs are derived from the title (always on create and rename for auto-slug
// types, otherwise only when blank) and de-duplicated with a numeric suffix.
func (s *Store) Save(ctx context.Context, c *schema.Collection, doc, prev models.Document) error {
	now := s.now()

	if p, ok := doc.(models.Publishable); ok {
		var prevState *models.Publishing
		if prev != nil {
			prevState = prev.(models.Publishable).PublishState()
		}
		if err := p.PublishState().Transition(prevState, now); err != nil {
			return err
		}
	}

	if prev != nil {
		m, pm := doc.Meta(), prev.Meta()
		m.ID = pm.ID
		m.CreatedAt = pm.CreatedAt
	}

	if sl, ok := doc.(models.Sluggable); ok {
		if err := s.applySlug(ctx, c, doc, sl, prev); err != nil {
			return err
		}
	}

	models.Stamp(doc, now)

	if prev == nil {
		_, err := s.coll(c).InsertOne(ctx, doc)
		return err
	}
	res, err := s.coll(c).ReplaceOne(ctx, bson.M{"_id": doc.Meta().ID}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Store) applySlug(ctx context.Context, c *schema.Collection, doc models.Document, sl models.Sluggable, prev models.Document) error {
	title, slug, auto := sl.SlugFields()

	renamed := false
	if prev != nil {
		prevTitle, _, _ := prev.(models.Sluggable).SlugFields()
		renamed = prevTitle != title
	}

	derive := *slug == "" || (auto && (prev == nil || renamed))
	if !derive {
		*slug = normalize.Slug(*slug)
		return nil
	}

	unique, err := s.UniqueSlug(ctx, c, normalize.Slug(title), doc.Meta().ID)
	if err != nil {
		return err
	}
	*slug = unique
	return nil
}

// UniqueSlug returns base, or base-2, base-3, ... whichever is not taken by a
// document other than except.
func (s *Store) UniqueSlug(ctx context.Context, c *schema.Collection, base string, except primitive.ObjectID) (string, error) {
	if base == "" {
		base = "untitled"
	}
	filter := bson.M{"slug": bson.M{"$regex": "^" + regexp.QuoteMeta(base) + `(-\d+)?$`}}
	if !except.IsZero() {
		filter["_id"] = bson.M{"$ne": except}
	}
	cur, err := s.coll(c).Find(ctx, filter, options.Find().SetProjection(bson.M{"slug": 1}))
	if err != nil {
		return "", err
	}
	defer cur.Close(ctx)

	taken := map[string]bool{}
	for cur.Next(ctx) {
		var row struct {
			Slug string `bson:"slug"`
		}
		if err := cur.Decode(&row); err == nil {
			taken[row.Slug] = true
		}
	}
	if err := cur.Err(); err != nil {
		return "", err
	}

	if !taken[base] {
		return base, nil
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !taken[candidate] {
			return candidate, nil
		}
	}
}

// Delete removes one document. Returns mongo.ErrNoDocuments when absent.
func (s *Store) Delete(ctx context.Context, c *schema.Collection, id primitive.ObjectID) error {
	res, err := s.coll(c).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteMany removes the given ids and reports how many were deleted.
func (s *Store) DeleteMany(ctx context.Context, c *schema.Collection, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.coll(c).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Clone copies a document under a new id. Sluggable copies get a fresh
// unique slug; publishable copies are forced back to draft.
func (s *Store) Clone(ctx context.Context, c *schema.Collection, id primitive.ObjectID) (models.Document, error) {
	doc := c.New()
	if doc == nil {
		return nil, fmt.Errorf("collection %s has no document type", c.Name)
	}
	if err := s.Get(ctx, c, id, doc); err != nil {
		return nil, err
	}

	m := doc.Meta()
	m.ID = primitive.NilObjectID
	m.CreatedAt = time.Time{}

	if p, ok := doc.(models.Publishable); ok {
		st := p.PublishState()
		st.Status = models.StatusDraft
		st.PublishedAt = nil
	}
	if sl, ok := doc.(models.Sluggable); ok {
		title, slug, _ := sl.SlugFields()
		base := normalize.Slug(title) + "-copy"
		unique, err := s.UniqueSlug(ctx, c, base, primitive.NilObjectID)
		if err != nil {
			return nil, err
		}
		*slug = unique
	}

	models.Stamp(doc, s.now())
	if _, err := s.coll(c).InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ExistingIDs reports which of ids exist in collection name.
func (s *Store) ExistingIDs(ctx context.Context, name string, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	out := make(map[primitive.ObjectID]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.db.Collection(name).Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err == nil {
			out[row.ID] = true
		}
	}
	return out, cur.Err()
}

// FindByIDs loads plain documents from collection name keyed by id.
func (s *Store) FindByIDs(ctx context.Context, name string, ids []primitive.ObjectID) (map[primitive.ObjectID]map[string]any, error) {
	out := make(map[primitive.ObjectID]map[string]any, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.db.Collection(name).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var m bson.M
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		if id, ok := m["_id"].(primitive.ObjectID); ok {
			out[id] = storeutil.PlainDoc(m)
		}
	}
	return out, cur.Err()
}
