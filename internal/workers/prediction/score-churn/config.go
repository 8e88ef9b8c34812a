// internal/workers/prediction/score-churn/config.go
package scorechurn

import (
	"time"

	"churn-predictor/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// Threshold is the inclusive churn-risk cutoff applied to the scored
	// probability.
	Threshold float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   10 * time.Second,
		Threshold: config.DefaultChurnThreshold,
	}
}
