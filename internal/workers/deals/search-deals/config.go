// internal/workers/deals/search-deals/config.go
package searchdeals

import "time"

type Config struct {
	Index   string
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Index:   "lease-deals",
		Timeout: 30 * time.Second,
	}
}
