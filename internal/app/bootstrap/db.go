// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratasite/internal/app/system/indexes"
	"github.com/dalemusser/stratasite/internal/app/system/mailer"
	"github.com/dalemusser/stratasite/internal/app/system/objectstore"
	"github.com/dalemusser/stratasite/internal/app/system/seeding"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/dalemusser/stratasite/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectDB applies the configured deadlines, connects to MongoDB, the
// object store, and the optional Redis backends, and builds the mailer.
//
// WAFFLE calls this after configuration is loaded but before EnsureSchema and
// Startup.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	timeouts.Configure(appCfg.Timeouts)

	// Configure MongoDB connection pool
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, err
	}

	db := client.Database(appCfg.MongoDatabase)

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	blobs, err := objectstore.Open(ctx, storageOptions(appCfg))
	if err != nil {
		return DBDeps{}, fmt.Errorf("failed to initialize %s storage: %w", appCfg.StorageType, err)
	}
	logger.Info("initialized object storage",
		zap.String("type", appCfg.StorageType),
		zap.String("bucket", blobs.Bucket()),
	)

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Blobs:         blobs,
		Mailer:        NewMailer(appCfg, logger),
	}

	if appCfg.RedisAddr != "" {
		deps.Redis = redis.NewClient(&redis.Options{
			Addr:     appCfg.RedisAddr,
			Password: appCfg.RedisPassword,
			DB:       appCfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
		err := deps.Redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			// Redis is optional for serving pages; health reports it.
			logger.Warn("redis ping failed", zap.String("addr", appCfg.RedisAddr), zap.Error(err))
		} else {
			logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr))
		}
	}
	if appCfg.NotifyMode == "queue" {
		deps.Queue = asynq.NewClient(RedisClientOpt(appCfg))
	}

	return deps, nil
}

// NewMailer builds the SMTP mailer from config.
func NewMailer(appCfg AppConfig, logger *zap.Logger) *mailer.Mailer {
	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	logger.Info("initialized email mailer",
		zap.String("host", appCfg.MailSMTPHost),
		zap.Int("port", appCfg.MailSMTPPort),
		zap.String("mode", appCfg.NotifyMode),
	)
	return mail
}

// RedisClientOpt is the asynq connection for the configured Redis.
func RedisClientOpt(appCfg AppConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     appCfg.RedisAddr,
		Password: appCfg.RedisPassword,
		DB:       appCfg.RedisDB,
	}
}

func storageOptions(appCfg AppConfig) objectstore.Options {
	return objectstore.Options{
		Type:         appCfg.StorageType,
		LocalPath:    appCfg.StorageLocalPath,
		LocalURL:     appCfg.StorageLocalURL,
		Bucket:       appCfg.StorageBucket,
		Region:       appCfg.StorageRegion,
		Endpoint:     appCfg.StorageEndpoint,
		AccessKey:    appCfg.StorageAccessKey,
		SecretKey:    appCfg.StorageSecretKey,
		UseSSL:       appCfg.StorageUseSSL,
		PathStyle:    appCfg.StoragePathStyle,
		PublicURL:    appCfg.StoragePublicURL,
		CacheControl: appCfg.StorageCacheControl,
	}
}

// EnsureSchema creates collections with their validators, the indexes, and
// the default content of an empty database.
//
// The context has a timeout based on coreCfg.IndexBootTimeout, so long-running
// migrations should respect context cancellation.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	// Collections and validators first so indexes land on existing collections.
	logger.Info("ensuring collections and validators")
	if err := validators.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure validators", zap.Error(err))
		return err
	}

	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("seeding default data")
	if err := seeding.SeedAll(ctx, db, logger); err != nil {
		logger.Error("failed to seed default data", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
