// internal/workers/retention/build-retention-playlist/config.go
package buildretentionplaylist

import "time"

type Config struct {
	Timeout time.Duration
	// EventsIndex is the per-play listening events index.
	EventsIndex string
	// MinSkipRatio is the skip share at which a genre is excluded.
	MinSkipRatio float64
	// MinPlays keeps rarely played genres out of the exclusion list.
	MinPlays int
	// MaxGenres caps the aggregation bucket count.
	MaxGenres int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		EventsIndex:  "listening_events",
		MinSkipRatio: 0.5,
		MinPlays:     5,
		MaxGenres:    50,
	}
}
