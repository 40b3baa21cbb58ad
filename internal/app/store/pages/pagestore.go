// Package pagestore holds the page queries the seeder and the CLI need
// outside the generic content store.
package pagestore

import (
	"context"
	"time"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:   db.Collection(schema.Pages),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// GetBySlug returns the page with slug or mongo.ErrNoDocuments.
func (s *Store) GetBySlug(ctx context.Context, slug string) (models.Page, error) {
	var page models.Page
	if err := s.c.FindOne(ctx, bson.M{"slug": slug}).Decode(&page); err != nil {
		return models.Page{}, err
	}
	return page, nil
}

// InsertIfMissing stores page unless its slug is already taken, so edits
// made in the admin survive a reseed. The publish rules for a new document
// apply. It reports whether the page was created.
func (s *Store) InsertIfMissing(ctx context.Context, page models.Page) (bool, error) {
	now := s.now()
	if err := page.Transition(nil, now); err != nil {
		return false, err
	}
	models.Stamp(&page, now)

	res, err := s.c.UpdateOne(ctx,
		bson.M{"slug": page.Slug},
		bson.M{"$setOnInsert": page},
		options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// List returns pages ordered by title. With publishedOnly set drafts are
// left out.
func (s *Store) List(ctx context.Context, publishedOnly bool) ([]models.Page, error) {
	filter := bson.M{}
	if publishedOnly {
		filter["status"] = models.StatusPublished
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var pages []models.Page
	if err := cur.All(ctx, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// MissingSlugs returns the slugs in want that have no page.
func (s *Store) MissingSlugs(ctx context.Context, want []string) ([]string, error) {
	if len(want) == 0 {
		return nil, nil
	}
	raw, err := s.c.Distinct(ctx, "slug", bson.M{"slug": bson.M{"$in": want}})
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(raw))
	for _, v := range raw {
		if slug, ok := v.(string); ok {
			have[slug] = true
		}
	}
	var missing []string
	for _, slug := range want {
		if !have[slug] {
			missing = append(missing, slug)
		}
	}
	return missing, nil
}
