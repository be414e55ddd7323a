// Package app provides the orchestration layer for the journey CLI.
//
// # Overview
//
// New is the composition root: it loads configuration, builds the zap
// logger, opens the configured token store, registers client metrics on a
// private Prometheus registry and creates the API client. Each CLI
// subcommand maps to one App method that writes plain text to Options.Out.
//
// # Data Flow
//
//	┌──────────────┐
//	│   New()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()       Read ~/.config/journey/config.toml
//	       ├─────> logging.New()       zap logger from [log]
//	       ├─────> tokenstore.Open()   file, redis or memory backend
//	       ├─────> api.NewMetrics()    client collectors
//	       └─────> api.NewClient()     HTTP client
//
//	Watch:
//	┌─────────────────────────────────────────┐
//	│ StartPoller() goroutine                 │
//	│  ├─> FetchAllJourneys()                 │
//	│  ├─> FetchJourneyProgress()  (parallel) │
//	│  ├─> FetchProgressLocation() (parallel) │
//	│  └─> store.Update()  (atomic)           │
//	│      └─> Watch prints store.Snapshot()  │
//	└─────────────────────────────────────────┘
//
// # Polling Behavior
//
// The poller refreshes at the configured interval (default 30 seconds). After
// a failure the wait doubles per consecutive failure up to 30 seconds, and
// resets on the next success. An authentication failure clears the snapshot
// and stops polling; Watch then returns the AuthenticationRequiredError so
// the CLI can exit with its auth status.
//
// # Error Handling
//
// Fatal errors (returned from New):
//   - Configuration file invalid
//   - Log output cannot be opened
//   - Unknown token store backend or bad API URL
//
// Command errors are returned unchanged so callers can classify them with
// errors.As against the api error types.
package app
