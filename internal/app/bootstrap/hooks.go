// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires this app into the WAFFLE lifecycle.
// Each function is called in order by app.Run, from configuration
// loading through DB setup, one-time startup work, HTTP handler
// construction, and finally graceful shutdown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "stratasite",   // used only for logging/diagnostics
	LoadConfig:     LoadConfig,     // load core + app config
	ValidateConfig: ValidateConfig, // storage, secrets, backends
	ConnectDB:      ConnectDB,      // MongoDB, object store, Redis, queue
	EnsureSchema:   EnsureSchema,   // validators, indexes, seed content
	Startup:        Startup,        // shared templates, background tasks
	BuildHandler:   BuildHandler,   // site, APIs, admin
	Shutdown:       Shutdown,       // stop tasks, close clients
}
