package db

import "time"

// Processing status constants for raw messages.
const (
	MessageStatusPending   = "pending"
	MessageStatusClaimed   = "claimed"
	MessageStatusProcessed = "processed"
	MessageStatusFailed    = "failed"
)

// Analysis log kinds.
const (
	AnalysisKindContent  = "content"
	AnalysisKindMetadata = "metadata"
	AnalysisKindBot      = "bot"
	AnalysisKindGraph    = "graph"
)

// Claim constants.
const (
	// ClaimTimeout is how long a claimed message stays invisible to other workers.
	ClaimTimeout = 10 * time.Minute
)

// Database connection constants
const (
	// ConnectionRetrySleep is the sleep duration between connection retries
	ConnectionRetrySleep = 2 * time.Second
	// maxConnectionRetries is the number of retries for initial connection
	maxConnectionRetries = 10
)

// Database pool default constants
const (
	defaultMaxConns          int32         = 25
	defaultMinConns          int32         = 5
	defaultMaxConnIdleTime   time.Duration = 30 * time.Minute
	defaultMaxConnLifetime   time.Duration = time.Hour
	defaultHealthCheckPeriod time.Duration = time.Minute
)
