package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

// Delay before reporting missing credentials so the overlay does not flash.
const MissingCredentialsDelay = 250 * time.Millisecond

const (
	DBMaxOpenConns    = 4
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	EmptyResultSnippetLen = 80
	MaxRequestBodyBytes   = 1 << 16
)
