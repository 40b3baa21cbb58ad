// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"
	"time"

	adminfeature "github.com/dalemusser/stratasite/internal/app/features/admin"
	contactfeature "github.com/dalemusser/stratasite/internal/app/features/contact"
	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	graphqlfeature "github.com/dalemusser/stratasite/internal/app/features/graphqlapi"
	healthfeature "github.com/dalemusser/stratasite/internal/app/features/health"
	mediafeature "github.com/dalemusser/stratasite/internal/app/features/media"
	newsletterfeature "github.com/dalemusser/stratasite/internal/app/features/newsletter"
	resumesfeature "github.com/dalemusser/stratasite/internal/app/features/resumes"
	sitefeature "github.com/dalemusser/stratasite/internal/app/features/site"
	sitemapfeature "github.com/dalemusser/stratasite/internal/app/features/sitemap"
	appresources "github.com/dalemusser/stratasite/internal/app/resources"
	contentstore "github.com/dalemusser/stratasite/internal/app/store/content"
	intakestore "github.com/dalemusser/stratasite/internal/app/store/intake"
	ledgerstore "github.com/dalemusser/stratasite/internal/app/store/ledger"
	mediastore "github.com/dalemusser/stratasite/internal/app/store/media"
	ratelimitstore "github.com/dalemusser/stratasite/internal/app/store/ratelimit"
	settingsstore "github.com/dalemusser/stratasite/internal/app/store/settings"
	"github.com/dalemusser/stratasite/internal/app/system/adminauth"
	"github.com/dalemusser/stratasite/internal/app/system/apicors"
	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/contentquery"
	"github.com/dalemusser/stratasite/internal/app/system/imageproc"
	"github.com/dalemusser/stratasite/internal/app/system/ledger"
	"github.com/dalemusser/stratasite/internal/app/system/metrics"
	"github.com/dalemusser/stratasite/internal/app/system/notify"
	"github.com/dalemusser/stratasite/internal/app/system/ratelimit"
	"github.com/dalemusser/stratasite/internal/app/system/refexpand"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/dalemusser/stratasite/internal/app/system/upload"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// The router has three surfaces:
//   - the public JSON API under /api (GraphQL reads, form intake, media)
//   - the admin API under /admin/api (bearer token or cookie auth)
//   - the server-rendered site at "/" (CSRF-protected forms)
//
// Both APIs share CORS from allowed_origins and the request ledger. The site
// uses gorilla/csrf; the APIs rely on the token and CORS instead.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	db := deps.MongoDatabase

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	apiErrs := apierr.NewWriter(logger, coreCfg.Env)
	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler(apiErrs)

	// ─────────────────────────────────────────────────────────────────────────────
	// Stores and services
	// ─────────────────────────────────────────────────────────────────────────────
	content := contentstore.New(db)
	intake := intakestore.New(db)
	mediaRecords := mediastore.New(db)
	settings := settingsstore.New(db)
	requestLog := ledgerstore.New(db)

	reader := contentquery.New(content, refexpand.New(content, logger))

	var scanner upload.Scanner
	if appCfg.ClamdAddress != "" {
		clam := upload.NewClamAV(appCfg.ClamdAddress)
		if err := clam.Ping(); err != nil {
			logger.Warn("clamd not reachable; uploads will fail until it is",
				zap.String("addr", appCfg.ClamdAddress), zap.Error(err))
		}
		scanner = clam
	}
	pipeline := upload.New(upload.Config{
		Store:   deps.Blobs,
		Records: mediaRecords,
		Scanner: scanner,
		Image: imageproc.Options{
			MaxDimension: appCfg.ImageMaxDimension,
			JPEGQuality:  appCfg.ImageJPEGQuality,
		},
		Logger: logger,
	})

	notifier := newNotifier(appCfg, deps, logger)
	limiter := newLimiter(appCfg, deps)

	auth, err := adminauth.New(adminauth.Config{
		Email:        appCfg.AdminEmail,
		Password:     appCfg.AdminPassword,
		PasswordHash: appCfg.AdminPasswordHash,
		Secret:       appCfg.JWTSecret,
		TTL:          appCfg.JWTTTL,
	})
	if err != nil {
		logger.Error("admin auth init failed", zap.Error(err))
		return nil, err
	}
	if !auth.Configured() {
		logger.Warn("no admin credential configured; admin login is disabled")
	}
	lockout := ratelimitstore.NewLockout(db, appCfg.LoginMaxAttempts, appCfg.LoginWindow, appCfg.LoginLockout)

	gqlSchema, err := graphqlfeature.NewSchema(reader, settings, logger)
	if err != nil {
		logger.Error("graphql schema build failed", zap.Error(err))
		return nil, err
	}

	// ─────────────────────────────────────────────────────────────────────────────
	// Feature handlers
	// ─────────────────────────────────────────────────────────────────────────────
	graphqlHandler := graphqlfeature.NewHandler(gqlSchema, graphqlfeature.Guard{
		MaxDepth:      appCfg.GraphQLMaxDepth,
		Introspection: coreCfg.Env == "dev",
	}, logger)
	contactHandler := contactfeature.NewHandler(intake, settings, notifier, apiErrs, logger, appCfg.BaseURL)
	resumesHandler := resumesfeature.NewHandler(intake, mediaRecords, content, settings, notifier, apiErrs, logger, appCfg.BaseURL)
	newsletterHandler := newsletterfeature.NewHandler(intake, settings, notifier, apiErrs, logger)
	mediaHandler := mediafeature.NewHandler(pipeline, reader, apiErrs, logger, appCfg.UploadMaxBytes)
	sitemapHandler := sitemapfeature.NewHandler(content, apiErrs, logger, appCfg.BaseURL)
	adminHandler := adminfeature.NewHandler(adminfeature.Deps{
		Store:      content,
		Reader:     reader,
		Media:      mediaHandler,
		Settings:   settings,
		RequestLog: requestLog,
		Findings:   NewSweeper(deps, logger),
		Errors:     apiErrs,
		Logger:     logger,
	})
	usersHandler := adminfeature.NewUsers(auth, lockout, apiErrs, logger, secure)

	siteHandler := sitefeature.NewHandler(sitefeature.Deps{
		Reader:      reader,
		Settings:    settings,
		Contact:     contactHandler,
		Newsletter:  newsletterHandler,
		Flashes:     sitefeature.NewFlashes([]byte(appCfg.SessionKey), secure),
		Limiter:     limiter,
		ContactRule: appCfg.RateLimitContact,
		SignupRule:  appCfg.RateLimitNewsletter,
		ErrLog:      errLog,
		Logger:      logger,
	})

	checks := []healthfeature.Check{healthfeature.MongoCheck(deps.MongoClient)}
	if deps.Redis != nil {
		checks = append(checks, healthfeature.RedisCheck(deps.Redis))
	}
	healthHandler := healthfeature.NewHandler(logger, checks...)

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(apiErrs.Recoverer)
	r.Use(metrics.Middleware)

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// ─────────────────────────────────────────────────────────────────────────────
	// JSON APIs
	// Errors (status >= 400) are recorded to the request ledger and
	// browsable at /admin/api/request-log.
	// ─────────────────────────────────────────────────────────────────────────────
	ledgerCfg := ledger.DefaultConfig(requestLog, logger)
	cors := apicors.Middleware(appCfg.AllowedOrigins)

	r.Route("/api", func(api chi.Router) {
		api.Use(cors)
		api.Use(ledger.Middleware(ledgerCfg))

		api.Mount("/graphql", graphqlfeature.Routes(graphqlHandler, auth))
		api.Mount("/contact-submissions", contactfeature.Routes(contactHandler, limiter, appCfg.RateLimitContact, logger))
		api.Mount("/resumes", resumesfeature.Routes(resumesHandler, limiter, appCfg.RateLimitResume, logger))
		api.Mount("/newsletter", newsletterfeature.Routes(newsletterHandler, limiter, appCfg.RateLimitNewsletter, logger))
		api.Mount("/media", mediafeature.Routes(mediaHandler, auth, limiter, appCfg.RateLimitMedia, logger))
		api.Mount("/users", adminfeature.UserRoutes(usersHandler, auth))
		api.Method(http.MethodGet, "/sitemap.xml", sitemapHandler)
	})

	r.Route("/admin/api", func(admin chi.Router) {
		admin.Use(cors)
		admin.Use(ledger.Middleware(ledgerCfg))
		admin.Mount("/", adminfeature.Routes(adminHandler, auth))
	})

	// Health check endpoints for load balancers and orchestrators
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	r.Handle("/metrics", metrics.Handler())

	// /assets/* serves embedded assets (bundled into the binary)
	r.Handle("/assets/*", appresources.AssetsHandler("/assets"))

	// Uploaded files (local storage only)
	if appCfg.StorageType == "local" || appCfg.StorageType == "" {
		prefix := strings.TrimRight(appCfg.StorageLocalURL, "/")
		r.Handle(prefix+"/*", fileserver.Handler(prefix, appCfg.StorageLocalPath))
	}

	// ─────────────────────────────────────────────────────────────────────────────
	// Site
	// ─────────────────────────────────────────────────────────────────────────────
	r.Mount("/", sitefeature.Routes(siteHandler, siteCSRF(appCfg, secure, errorsHandler, logger)))

	return r, nil
}

// siteCSRF builds the CSRF middleware for the site's forms. The cookie name
// is "stratasite_csrf" to avoid collisions with other services on the same
// domain.
func siteCSRF(appCfg AppConfig, secure bool, errs *errorsfeature.Handler, logger *zap.Logger) func(http.Handler) http.Handler {
	protect := csrf.Protect([]byte(appCfg.CSRFKey),
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("stratasite_csrf"),
		csrf.FieldName("gorilla.csrf.Token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.Error(csrf.FailureReason(req)),
			)
			errs.Forbidden(w, req)
		})),
	)
	if secure {
		return protect
	}
	// Outside prod the site is served over plain HTTP, which csrf must be told
	// about or its Referer check rejects every post.
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.TLS == nil {
				req = csrf.PlaintextHTTPRequest(req)
			}
			h.ServeHTTP(w, req)
		})
	}
}

// newNotifier picks inline SMTP delivery or the asynq queue.
func newNotifier(appCfg AppConfig, deps DBDeps, logger *zap.Logger) notify.Notifier {
	if appCfg.NotifyMode == "queue" && deps.Queue != nil {
		logger.Info("notifications are queued for the worker")
		return notify.NewQueue(deps.Queue, logger)
	}
	if appCfg.MailSMTPHost == "" {
		logger.Warn("no SMTP host configured; notifications are logged and dropped")
		return notify.Discard{Logger: logger}
	}
	inlineNotifier = notify.NewInline(deps.Mailer, logger, timeouts.Notify())
	return inlineNotifier
}

// inlineNotifier is kept so Shutdown can wait for in-flight sends.
var inlineNotifier *notify.Inline

// newLimiter picks the rate-limit backend.
func newLimiter(appCfg AppConfig, deps DBDeps) ratelimit.Limiter {
	switch appCfg.RateLimitBackend {
	case "redis":
		if deps.Redis != nil {
			return ratelimit.NewRedis(deps.Redis)
		}
	case "memory":
		return ratelimit.NewMemory()
	}
	return ratelimit.NewMongo(ratelimitstore.NewWindows(deps.MongoDatabase))
}
