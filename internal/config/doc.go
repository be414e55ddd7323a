// Package config loads the journey client's TOML configuration.
//
// # Resolution
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/journey/config.toml
//  3. If the file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing or blank, use defaults
//
// # Defaults
//
//   - API: 127.0.0.1:8000 (the client adds the /api/v1 prefix)
//   - Request timeout: 15 seconds
//   - Poll interval: 30 seconds
//   - Token store: file backend at ~/.config/journey/session.toml
//   - Logging: info level, console format, stderr
//
// # Example
//
//	api_url = "https://journey.example.com"
//	request_timeout_seconds = 10
//	poll_seconds = 60
//	metrics_addr = "127.0.0.1:9464"
//
//	[token_store]
//	backend = "redis"
//	redis_addr = "10.0.0.5:6379"
//	redis_prefix = "journey:"
//
//	[log]
//	level = "debug"
//	format = "json"
//	output = "~/.local/state/journey/client.log"
//
// Paths beginning with ~ are expanded against the user's home directory.
// Unknown token store backends and log formats fail the load.
package config
