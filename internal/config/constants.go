package config

import "time"

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout     = 60 * time.Second
	DefaultAITimeout       = 8 * time.Second
	NotificationTimeout    = 10 * time.Second
	ServerShutdownTimeout  = 30 * time.Second
	HealthCheckTimeout     = 5 * time.Second
	WebhookDispatchTimeout = 10 * time.Second

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute
)

// Size constants
const (
	// DefaultAIMaxResponseBytes caps AI provider response bodies.
	DefaultAIMaxResponseBytes int64 = 1 << 20

	// Pagination defaults for list endpoints
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data:;"

	// APIKeyHeader carries the admin API key on gated routes.
	APIKeyHeader = "X-API-Key"
)
