// cmd/lease-calc/profile.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// readProfile decodes a profile document into the loose map the validator
// expects. YAML is chosen by extension; stdin is sniffed for a leading brace.
func readProfile(path string, stdin io.Reader) (map[string]interface{}, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	raw := map[string]interface{}{}
	if isYAML(path, data) {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode profile yaml: %w", err)
		}
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode profile json: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("profile %s is empty", path)
	}
	return raw, nil
}

func isYAML(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	case ".json":
		return false
	}
	trimmed := strings.TrimSpace(string(data))
	return !strings.HasPrefix(trimmed, "{")
}
