// Package config provides configuration management for ladder.
//
// Configuration is loaded from an optional YAML file with environment
// variable overrides:
//
//	cfg, err := config.LoadConfig("ladder.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("ladder.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention LADDER_SECTION_FIELD:
//
//   - LADDER_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - LADDER_ENGINE_LADDERS_PATH overrides engine.ladders_path
//   - LADDER_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//   - LADDER_ENGINE_GIT_AUTH_TOKEN overrides engine.git.auth.token
//   - LADDER_SERVER_API_KEYS overrides server.api_keys (comma separated)
//   - LADDER_SERVER_RATE_LIMIT_TRUSTED_PROXIES overrides server.rate_limit.trusted_proxies (comma separated)
//
// # Configuration Precedence
//
// Later steps override earlier ones:
//
//  1. Default values (defined in defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
package config
