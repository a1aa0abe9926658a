// internal/workers/lease/generate-deal-terms/config.go
package generatedealterms

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
