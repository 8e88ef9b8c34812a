// internal/workers/retention/send-retention-offer/config.go
package sendretentionoffer

import "time"

type Config struct {
	EmailEnabled bool
	PushEnabled  bool
	FromEmail    string
	AWSRegion    string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		EmailEnabled: true,
		PushEnabled:  true,
		Timeout:      30 * time.Second,
	}
}
