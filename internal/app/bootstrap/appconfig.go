// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/ratelimit"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig carries the
// framework-level settings (ports, TLS, logging, env); everything the CMS
// and the site need lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Object storage: "local", "s3" or "minio"
	StorageType         string
	StorageLocalPath    string // Local storage path (e.g., "./uploads")
	StorageLocalURL     string // URL prefix for serving local files (e.g., "/files")
	StorageBucket       string
	StorageRegion       string
	StorageEndpoint     string // blank means AWS for s3
	StorageAccessKey    string
	StorageSecretKey    string
	StorageUseSSL       bool
	StoragePathStyle    bool
	StoragePublicURL    string // CDN or public base for object URLs
	StorageCacheControl string

	// Upload pipeline
	UploadMaxBytes    int64
	ImageMaxDimension int
	ImageJPEGQuality  int
	ClamdAddress      string // blank disables virus scanning

	// Email/SMTP configuration
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// Notification delivery: "inline" or "queue"
	NotifyMode string

	// Redis backs the queue and, optionally, rate limiting
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limiting: "mongo", "redis" or "memory"
	RateLimitBackend    string
	RateLimitContact    ratelimit.Rule
	RateLimitResume     ratelimit.Rule
	RateLimitNewsletter ratelimit.Rule
	RateLimitMedia      ratelimit.Rule

	// Admin credential and tokens
	AdminEmail        string
	AdminPassword     string
	AdminPasswordHash string // bcrypt; wins over AdminPassword
	JWTSecret         string
	JWTTTL            time.Duration

	// Login lockout for the admin credential
	LoginMaxAttempts int
	LoginWindow      time.Duration
	LoginLockout     time.Duration

	// Browser-facing settings
	AllowedOrigins []string // API CORS
	BaseURL        string   // sitemap and email links
	CSRFKey        string   // site form CSRF signing key
	SessionKey     string   // flash cookie signing key

	// Background work
	IntegritySweepInterval time.Duration // 0 disables the periodic sweep

	// GraphQL
	GraphQLMaxDepth int

	// Deadlines applied via timeouts.Configure at startup
	Timeouts timeouts.Config
}
