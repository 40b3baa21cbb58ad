package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WindowCollection holds fixed-window request counters.
const WindowCollection = "rate_limits"

// Counter is one fixed window for one scope/key pair.
type Counter struct {
	ID        string    `bson:"_id"` // scope|key|window start (unix seconds)
	Scope     string    `bson:"scope"`
	Key       string    `bson:"key"`
	Count     int       `bson:"count"`
	ExpiresAt time.Time `bson:"expires_at"` // TTL
}

// Windows counts requests per fixed window in MongoDB so limits hold across
// instances.
type Windows struct {
	c   *mongo.Collection
	now func() time.Time
}

// NewWindows creates a Windows store.
func NewWindows(db *mongo.Database) *Windows {
	return &Windows{c: db.Collection(WindowCollection), now: time.Now}
}

// Hit increments the counter for the window containing now and returns the
// new count and the window end.
func (w *Windows) Hit(ctx context.Context, scope, key string, window time.Duration) (int, time.Time, error) {
	now := w.now()
	start := now.Truncate(window)
	end := start.Add(window)

	id := fmt.Sprintf("%s|%s|%d", scope, key, start.Unix())
	var out Counter
	err := w.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc":         bson.M{"count": 1},
			"$setOnInsert": bson.M{"scope": scope, "key": key, "expires_at": end},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return 0, end, err
	}
	return out.Count, end, nil
}
