// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	ratelimitstore "github.com/dalemusser/stratasite/internal/app/store/ratelimit"
	"github.com/dalemusser/stratasite/internal/app/system/integrity"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// IntegritySweepJob creates a job that records dangling references and
// orphaned blobs.
func IntegritySweepJob(sweeper *integrity.Sweeper, interval time.Duration) Job {
	return Job{
		Name:     "integrity-sweep",
		Interval: interval,
		Timeout:  timeouts.Job(),
		Run: func(ctx context.Context) error {
			_, err := sweeper.Sweep(ctx)
			return err
		},
	}
}

// RateLimitCleanupJob removes rate limit windows and login lockout records
// that ended more than a day ago. The TTL index does the same eventually; this
// keeps the collections small when the TTL monitor lags.
func RateLimitCleanupJob(db *mongo.Database, logger *zap.Logger) Job {
	return Job{
		Name:     "rate-limit-cleanup",
		Interval: 6 * time.Hour,
		Timeout:  timeouts.Job(),
		Run: func(ctx context.Context) error {
			cutoff := time.Now().Add(-24 * time.Hour)
			windows, err := db.Collection(ratelimitstore.WindowCollection).DeleteMany(ctx, bson.M{
				"expires_at": bson.M{"$lt": cutoff},
			})
			if err != nil {
				return err
			}
			attempts, err := db.Collection(ratelimitstore.LockoutCollection).DeleteMany(ctx, bson.M{
				"last_attempt": bson.M{"$lt": cutoff},
				"$or": []bson.M{
					{"locked_until": nil},
					{"locked_until": bson.M{"$lt": cutoff}},
				},
			})
			if err != nil {
				return err
			}
			if n := windows.DeletedCount + attempts.DeletedCount; n > 0 {
				logger.Info("cleaned up rate limit records",
					zap.Int64("windows", windows.DeletedCount),
					zap.Int64("login_attempts", attempts.DeletedCount))
			}
			return nil
		},
	}
}
