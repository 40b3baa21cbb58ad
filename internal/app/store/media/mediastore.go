// internal/app/store/media/mediastore.go
package mediastore

import (
	"context"
	"time"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the media collection.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

// New creates a new media store.
func New(db *mongo.Database) *Store {
	return &Store{
		c:   db.Collection("media"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create stamps and inserts a media record.
func (s *Store) Create(ctx context.Context, m *models.Media) error {
	models.Stamp(m, s.now())
	_, err := s.c.InsertOne(ctx, m)
	return err
}

// Get retrieves a media record by ID.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Media, error) {
	var m models.Media
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMany returns the records that exist among ids, in no particular order.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.Media, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Media
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a media record. Returns mongo.ErrNoDocuments when absent.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Keys returns every stored object key, for comparing against the object store.
func (s *Store) Keys(ctx context.Context) (map[string]bool, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"s3_key": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]bool{}
	for cur.Next(ctx) {
		var row struct {
			S3Key string `bson:"s3_key"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.S3Key] = true
	}
	return out, cur.Err()
}
