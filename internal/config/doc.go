// Package config loads the basecamp client configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/basecamp/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. Apply overrides from ./.env, if present
//  5. Apply overrides from the process environment
//
// # Default Values
//
//   - API base URL: http://127.0.0.1:8080/api
//   - Token file: ~/.config/basecamp/token
//   - Log file: ~/.local/state/basecamp/basecamp.log
//   - Collection cache TTL: 30s
//   - Background refresh interval: 30s
//
// # TOML Format
//
//	api_url = "https://treks.example.com/api"
//	token_file = "~/.config/basecamp/token"
//	log_file = "~/.local/state/basecamp/basecamp.log"
//	cache_ttl_seconds = 30
//	poll_seconds = 30
//
// Every field is optional. Tilde expansion is performed for paths.
//
// # Environment
//
//   - BASECAMP_API_URL overrides api_url
//   - BASECAMP_LOG_FILE overrides log_file
//   - BASECAMP_TOKEN supplies a bearer token directly, taking precedence over
//     token_file
//
// Missing config and .env files are NOT an error; the client works against a
// local stub backend without any configuration.
package config
