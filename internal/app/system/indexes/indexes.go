// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/stratasite/internal/domain/schema"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collections that are not content collections in the schema registry.
const (
	LoginAttempts     = "login_attempts"
	RateLimits        = "rate_limits"
	IntegrityFindings = "integrity_findings"
	RequestLog        = "api_request_log"
)

// RequestLogTTL is how long ledger entries are kept.
const RequestLogTTL = 30 * 24 * time.Hour

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, c := range schema.Collections {
		if err := ensureIndexSet(ctx, db.Collection(c.Name), contentIndexes(c)); err != nil {
			problems = append(problems, c.Name+": "+err.Error())
		}
	}
	if err := ensureLoginAttempts(ctx, db); err != nil {
		problems = append(problems, LoginAttempts+": "+err.Error())
	}
	if err := ensureRateLimits(ctx, db); err != nil {
		problems = append(problems, RateLimits+": "+err.Error())
	}
	if err := ensureIntegrityFindings(ctx, db); err != nil {
		problems = append(problems, IntegrityFindings+": "+err.Error())
	}
	if err := ensureRequestLog(ctx, db); err != nil {
		problems = append(problems, RequestLog+": "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				desiredUnique = m.Options.Unique
			}
		}
		desiredSig := keySig(m.Keys.(bson.D))

		start := time.Now()
		zap.L().Info("ensuring index",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique))

		// 1) Load existing indexes
		existing := map[string]existingIndex{} // sig -> index
		cur, err := coll.Indexes().List(ctx)
		if err == nil {
			defer cur.Close(ctx)
			for cur.Next(ctx) {
				var idx existingIndex
				if err := cur.Decode(&idx); err != nil {
					zap.L().Warn("failed to decode existing index",
						zap.String("collection", coll.Name()),
						zap.Error(err))
					continue
				}
				existing[keySig(idx.Key)] = idx
			}
		}

		if ex, ok := existing[desiredSig]; ok {
			// Same key pattern exists already.
			if sameBoolPtr(desiredUnique, ex.Unique) {
				// Names aligned (or we don't care) → reuse
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig),
					zap.Bool("unique", ex.Unique != nil && *ex.Unique),
					zap.String("took", time.Since(start).String()))
				continue
			}

			// Options mismatch (e.g., upgrading to unique). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				zap.L().Warn("drop existing index failed",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig),
					zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
			if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
				if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
					errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
				} else {
					errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
				}
				continue
			}
			zap.L().Info("index dropped and recreated",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Bool("unique", desiredUnique != nil && *desiredUnique),
				zap.String("took", time.Since(start).String()))
			continue
		}

		// 2) No existing index with the same keys: create it.
		if created, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isOptionsConflictErr(err) {
				zap.L().Warn("index ensure failed (options conflict)",
					zap.String("collection", coll.Name()),
					zap.String("name", desiredName),
					zap.String("keys", desiredSig),
					zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
				continue
			}

			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Bool("unique", desiredUnique != nil && *desiredUnique),
				zap.String("took", time.Since(start).String()),
				zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			continue
		} else {
			zap.L().Info("index ensured",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("created_name", created),
				zap.String("keys", desiredSig),
				zap.Bool("unique", desiredUnique != nil && *desiredUnique),
				zap.String("took", time.Since(start).String()))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

// contentIndexes derives the index set of a content collection from its
// declared fields, plus a few collection-specific query paths.
func contentIndexes(c *schema.Collection) []mongo.IndexModel {
	var out []mongo.IndexModel
	has := func(name string) bool { _, ok := c.Field(name); return ok }

	if c.HasSlug {
		out = append(out, mongo.IndexModel{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_" + c.Name + "_slug"),
		})
	}
	if has("order") {
		out = append(out, mongo.IndexModel{
			Keys:    bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_" + c.Name + "_order_id"),
		})
	}
	if has("publishedAt") {
		// public lists filter on status
		out = append(out, mongo.IndexModel{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "published_at", Value: -1}},
			Options: options.Index().SetName("idx_" + c.Name + "_status_published"),
		})
	}

	switch c.Name {
	case schema.Jobs:
		out = append(out, mongo.IndexModel{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "posted_date", Value: -1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_jobs_status_posted_id"),
		})
	case schema.Media:
		out = append(out,
			mongo.IndexModel{
				Keys:    bson.D{{Key: "s3_key", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_media_s3key"),
			},
			mongo.IndexModel{
				Keys:    bson.D{{Key: "folder", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_media_folder_created"),
			},
		)
	case schema.Newsletter:
		out = append(out, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_newsletter_email"),
		})
	case schema.ContactSubmissions, schema.Resumes:
		out = append(out, mongo.IndexModel{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_" + c.Name + "_status_created"),
		})
	}

	if has("createdAt") {
		out = append(out, mongo.IndexModel{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_" + c.Name + "_created"),
		})
	}
	return out
}

func ensureLoginAttempts(ctx context.Context, db *mongo.Database) error {
	c := db.Collection(LoginAttempts)
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_login_attempts_key"),
		},
		// Stale records are removed a day after the last attempt
		{
			Keys:    bson.D{{Key: "last_attempt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32((24 * time.Hour).Seconds())).SetName("ttl_login_attempts_last"),
		},
	})
}

func ensureRateLimits(ctx context.Context, db *mongo.Database) error {
	c := db.Collection(RateLimits)
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Window counters expire at the end of their window
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_rate_limits_expires"),
		},
	})
}

func ensureIntegrityFindings(ctx context.Context, db *mongo.Database) error {
	c := db.Collection(IntegrityFindings)
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "kind", Value: 1},
				{Key: "collection", Value: 1},
				{Key: "doc_id", Value: 1},
				{Key: "path", Value: 1},
				{Key: "missing_id", Value: 1},
				{Key: "key", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_integrity_finding"),
		},
		{
			Keys:    bson.D{{Key: "detected_at", Value: -1}},
			Options: options.Index().SetName("idx_integrity_detected"),
		},
	})
}

func ensureRequestLog(ctx context.Context, db *mongo.Database) error {
	c := db.Collection(RequestLog)
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "started_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(RequestLogTTL.Seconds())).SetName("ttl_request_log_started"),
		},
		{
			Keys:    bson.D{{Key: "status_code", Value: 1}, {Key: "started_at", Value: -1}},
			Options: options.Index().SetName("idx_request_log_status_started"),
		},
	})
}
