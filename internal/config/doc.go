// Package config loads application configuration from environment variables.
//
// Configuration is read once at startup via cleanenv and passed down
// explicitly; no package reads the environment after Load returns.
//
// # Sections
//
//   - ServerConfig: HTTP listener and public URL
//   - DatabaseConfig: SurrealDB connection
//   - RedisConfig: delivery deduplication store
//   - SMTPConfig: outbound email
//   - AIConfig: job matching model
//   - DigestConfig: daily digest schedule, lookback window, throttles
//   - IdentityConfig: delegated auth provider
//   - AdminConfig: operational endpoint credentials
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// Validate is stricter in production: the AI and identity provider
// credentials must be present there, while development falls back to
// permissive defaults.
package config
