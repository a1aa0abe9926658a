// internal/workers/deals/index-deal/config.go
package indexdeal

import "time"

type Config struct {
	Index   string
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Index:   "lease-deals",
		Timeout: 10 * time.Second,
	}
}
