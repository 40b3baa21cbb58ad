// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/stratasite/internal/app/system/mailer"
	"github.com/dalemusser/stratasite/internal/app/system/objectstore"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// This struct is created in ConnectDB and passed to subsequent lifecycle
// hooks: EnsureSchema, Startup, BuildHandler, and Shutdown. Optional
// backends are nil when not configured.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Blobs stores uploaded media (local disk, S3 or MinIO).
	Blobs objectstore.Store

	// Mailer sends notification email over SMTP.
	Mailer *mailer.Mailer

	// Redis is set when redis_addr is configured.
	Redis *redis.Client

	// Queue enqueues mail when notify_mode is "queue".
	Queue *asynq.Client
}
