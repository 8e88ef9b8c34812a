// internal/workers/prediction/validate-profile/config.go
package validateprofile

import "time"

// Validation is pure and fast; the timeout only bounds job completion calls.
type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
