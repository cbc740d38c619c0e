package redis

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// Namespace prefixes bucket-level keys such as the revision counter
	Namespace string

	// ScanCount is the COUNT hint passed to SCAN when listing keys
	ScanCount int64
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		Namespace:    "clubhouse",
		ScanCount:    100,
	}
}
