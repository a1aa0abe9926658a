// internal/lease/scoring/load.go
package scoring

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseStrategy decodes and validates a YAML strategy document.
func ParseStrategy(data []byte) (*Strategy, error) {
	var s Strategy
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode strategy: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
