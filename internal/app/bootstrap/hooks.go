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
	Name:           "folderforge",  // used only for logging/diagnostics
	LoadConfig:     LoadConfig,     // load core + app config
	ValidateConfig: ValidateConfig, // validate backend choices and MongoDB URI
	ConnectDB:      ConnectDB,      // connect MongoDB, SQL and Redis as configured
	EnsureSchema:   EnsureSchema,   // collections, validators, indexes
	Startup:        Startup,        // build the session registry and background jobs
	BuildHandler:   BuildHandler,   // build the HTTP router + middleware stack
	Shutdown:       Shutdown,       // close sessions and backends
}
