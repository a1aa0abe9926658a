// internal/workers/lease/validate-business-profile/config.go
package validatebusinessprofile

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
