package ui

import "time"

// Config controls the inspector's presentation.
type Config struct {
	// BasePath is the URL prefix the handler is mounted under.
	// Default: "/debug/session"
	BasePath string

	// RefreshInterval is the auto-refresh interval for the status page.
	// Default: 5s
	RefreshInterval time.Duration

	// HistoryLimit caps how many compaction events the history page shows.
	// Default: 50
	HistoryLimit int
}

// DefaultConfig returns the default inspector configuration.
func DefaultConfig() Config {
	return Config{
		BasePath:        "/debug/session",
		RefreshInterval: 5 * time.Second,
		HistoryLimit:    50,
	}
}

func (c *Config) applyDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/debug/session"
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 5 * time.Second
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 50
	}
}
