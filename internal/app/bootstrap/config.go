// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/apicors"
	"github.com/dalemusser/stratasite/internal/app/system/ratelimit"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATASITE"

// Development defaults for the signing secrets. ValidateConfig refuses them
// in production.
const (
	devJWTSecret  = "dev-only-jwt-secret-change-me-0123456789"
	devCSRFKey    = "dev-only-csrf-key-please-change-0123456789"
	devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"
)

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, storage_type, etc.
//   - Environment variables: STRATASITE_MONGO_URI, STRATASITE_STORAGE_TYPE, etc.
//   - Command-line flags: --mongo_uri, --storage_type, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratasite", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Object storage
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local', 's3' or 'minio'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded files"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving local files"},
	{Name: "storage_bucket", Default: "", Desc: "Bucket name (s3/minio)"},
	{Name: "storage_region", Default: "", Desc: "Bucket region (s3/minio)"},
	{Name: "storage_endpoint", Default: "", Desc: "S3-compatible endpoint; blank means AWS"},
	{Name: "storage_access_key", Default: "", Desc: "Access key; blank uses the AWS default chain"},
	{Name: "storage_secret_key", Default: "", Desc: "Secret key"},
	{Name: "storage_use_ssl", Default: true, Desc: "Use TLS for the storage endpoint"},
	{Name: "storage_path_style", Default: false, Desc: "Use path-style bucket addressing"},
	{Name: "storage_public_url", Default: "", Desc: "Public base URL for stored objects (CDN)"},
	{Name: "storage_cache_control", Default: "public, max-age=31536000", Desc: "Cache-Control for uploaded objects"},

	// Upload pipeline
	{Name: "upload_max_bytes", Default: 10485760, Desc: "Maximum upload size in bytes"},
	{Name: "image_max_dimension", Default: 2560, Desc: "Longest image side after transform"},
	{Name: "image_jpeg_quality", Default: 82, Desc: "JPEG quality for transformed images"},
	{Name: "clamd_address", Default: "", Desc: "ClamAV daemon address (e.g., tcp://localhost:3310); blank disables scanning"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@example.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Strata", Desc: "From display name"},
	{Name: "notify_mode", Default: "inline", Desc: "Email delivery: 'inline' or 'queue' (asynq)"},

	// Redis
	{Name: "redis_addr", Default: "", Desc: "Redis address for the queue and rate limiting"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	// Rate limiting
	{Name: "rate_limit_backend", Default: "mongo", Desc: "Rate limit backend: 'mongo', 'redis' or 'memory'"},
	{Name: "rate_limit_contact", Default: "5/15m", Desc: "Contact submissions per IP"},
	{Name: "rate_limit_resume", Default: "5/1h", Desc: "Resume submissions per IP"},
	{Name: "rate_limit_newsletter", Default: "10/1h", Desc: "Newsletter signups per IP"},
	{Name: "rate_limit_media", Default: "30/15m", Desc: "Media uploads per IP"},

	// Admin credential
	{Name: "admin_email", Default: "", Desc: "Admin login email"},
	{Name: "admin_password", Default: "", Desc: "Admin password (plain; prefer admin_password_hash)"},
	{Name: "admin_password_hash", Default: "", Desc: "Admin password bcrypt hash (see sitectl hash-password)"},
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "Admin token signing secret"},
	{Name: "jwt_ttl", Default: "2h", Desc: "Admin token lifetime"},
	{Name: "login_max_attempts", Default: 5, Desc: "Failed admin logins before lockout"},
	{Name: "login_window", Default: "15m", Desc: "Window for counting failed logins"},
	{Name: "login_lockout", Default: "15m", Desc: "Lockout after too many failed logins"},

	// Browser-facing
	{Name: "allowed_origins", Default: "http://localhost:3000", Desc: "Comma separated origins allowed to call the APIs"},
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL for the sitemap and email links"},
	{Name: "csrf_key", Default: devCSRFKey, Desc: "CSRF token signing key (32+ chars in production)"},
	{Name: "session_key", Default: devSessionKey, Desc: "Flash cookie signing key (must be strong in production)"},

	// Background work
	{Name: "integrity_sweep_interval", Default: "6h", Desc: "Reference integrity sweep interval; 0 disables"},

	// GraphQL
	{Name: "graphql_max_depth", Default: 10, Desc: "Maximum GraphQL selection depth"},

	// Deadlines for work outside the request timeout
	{Name: "timeout_ping", Default: "2s", Desc: "MongoDB/Redis health probe timeout"},
	{Name: "timeout_page_load", Default: "5s", Desc: "Site settings/content load timeout per page"},
	{Name: "timeout_notify", Default: "30s", Desc: "SMTP delivery timeout per email"},
	{Name: "timeout_job", Default: "10m", Desc: "Maximum run time of one background job"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, STRATASITE_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		// Object storage
		StorageType:         appValues.String("storage_type"),
		StorageLocalPath:    appValues.String("storage_local_path"),
		StorageLocalURL:     appValues.String("storage_local_url"),
		StorageBucket:       appValues.String("storage_bucket"),
		StorageRegion:       appValues.String("storage_region"),
		StorageEndpoint:     appValues.String("storage_endpoint"),
		StorageAccessKey:    appValues.String("storage_access_key"),
		StorageSecretKey:    appValues.String("storage_secret_key"),
		StorageUseSSL:       appValues.Bool("storage_use_ssl"),
		StoragePathStyle:    appValues.Bool("storage_path_style"),
		StoragePublicURL:    appValues.String("storage_public_url"),
		StorageCacheControl: appValues.String("storage_cache_control"),

		// Upload pipeline
		UploadMaxBytes:    int64(appValues.Int("upload_max_bytes")),
		ImageMaxDimension: appValues.Int("image_max_dimension"),
		ImageJPEGQuality:  appValues.Int("image_jpeg_quality"),
		ClamdAddress:      appValues.String("clamd_address"),

		// Email/SMTP
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),
		NotifyMode:   appValues.String("notify_mode"),

		// Redis
		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		RateLimitBackend: appValues.String("rate_limit_backend"),

		// Admin
		AdminEmail:        appValues.String("admin_email"),
		AdminPassword:     appValues.String("admin_password"),
		AdminPasswordHash: appValues.String("admin_password_hash"),
		JWTSecret:         appValues.String("jwt_secret"),
		JWTTTL:            appValues.Duration("jwt_ttl", 2*time.Hour),
		LoginMaxAttempts:  appValues.Int("login_max_attempts"),
		LoginWindow:       appValues.Duration("login_window", 15*time.Minute),
		LoginLockout:      appValues.Duration("login_lockout", 15*time.Minute),

		// Browser-facing
		AllowedOrigins: apicors.ParseOrigins(appValues.String("allowed_origins")),
		BaseURL:        appValues.String("base_url"),
		CSRFKey:        appValues.String("csrf_key"),
		SessionKey:     appValues.String("session_key"),

		IntegritySweepInterval: appValues.Duration("integrity_sweep_interval", 6*time.Hour),
		GraphQLMaxDepth:        appValues.Int("graphql_max_depth"),

		Timeouts: timeouts.Config{
			Ping:     appValues.Duration("timeout_ping", timeouts.DefaultPing),
			PageLoad: appValues.Duration("timeout_page_load", timeouts.DefaultPageLoad),
			Notify:   appValues.Duration("timeout_notify", timeouts.DefaultNotify),
			Job:      appValues.Duration("timeout_job", timeouts.DefaultJob),
		},
	}

	rules := []struct {
		key string
		dst *ratelimit.Rule
	}{
		{"rate_limit_contact", &appCfg.RateLimitContact},
		{"rate_limit_resume", &appCfg.RateLimitResume},
		{"rate_limit_newsletter", &appCfg.RateLimitNewsletter},
		{"rate_limit_media", &appCfg.RateLimitMedia},
	}
	for _, r := range rules {
		rule, err := ratelimit.ParseRule(appValues.String(r.key))
		if err != nil {
			return nil, AppConfig{}, fmt.Errorf("%s: %w", r.key, err)
		}
		*r.dst = rule
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	var errs []error
	switch appCfg.StorageType {
	case "local", "":
	case "s3", "minio":
		if appCfg.StorageBucket == "" {
			errs = append(errs, fmt.Errorf("storage_bucket is required for storage_type %q", appCfg.StorageType))
		}
		if appCfg.StorageType == "minio" && appCfg.StorageEndpoint == "" {
			errs = append(errs, errors.New("storage_endpoint is required for storage_type \"minio\""))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage_type %q", appCfg.StorageType))
	}

	switch appCfg.NotifyMode {
	case "inline", "":
	case "queue":
		if appCfg.RedisAddr == "" {
			errs = append(errs, errors.New("notify_mode \"queue\" requires redis_addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown notify_mode %q", appCfg.NotifyMode))
	}

	switch appCfg.RateLimitBackend {
	case "mongo", "memory", "":
	case "redis":
		if appCfg.RedisAddr == "" {
			errs = append(errs, errors.New("rate_limit_backend \"redis\" requires redis_addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown rate_limit_backend %q", appCfg.RateLimitBackend))
	}

	if appCfg.UploadMaxBytes <= 0 {
		errs = append(errs, errors.New("upload_max_bytes must be positive"))
	}
	if appCfg.GraphQLMaxDepth <= 0 {
		errs = append(errs, errors.New("graphql_max_depth must be positive"))
	}

	if coreCfg != nil && coreCfg.Env == "prod" {
		if appCfg.JWTSecret == devJWTSecret || len(appCfg.JWTSecret) < 32 {
			errs = append(errs, errors.New("jwt_secret must be set to a strong value in production"))
		}
		if appCfg.CSRFKey == devCSRFKey || len(appCfg.CSRFKey) < 32 {
			errs = append(errs, errors.New("csrf_key must be set to a strong value in production"))
		}
		if appCfg.SessionKey == devSessionKey || len(appCfg.SessionKey) < 32 {
			errs = append(errs, errors.New("session_key must be set to a strong value in production"))
		}
		if appCfg.AdminEmail == "" || (appCfg.AdminPassword == "" && appCfg.AdminPasswordHash == "") {
			errs = append(errs, errors.New("admin_email and admin_password_hash are required in production"))
		}
	}

	if err := errors.Join(errs...); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	return nil
}
