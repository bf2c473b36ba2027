package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Load parses environment variables into the provided struct.
// The struct should use `env` tags to define mappings.
//
// Example:
//
//	type Config struct {
//	    Port     int    `env:"HTTP_PORT" envDefault:"8080"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// LoadFile parses a YAML file of environment-style keys and then the process
// environment into cfg. Precedence is process env, then file, then envDefault.
// An empty path behaves like Load.
//
// Example file:
//
//	STOREFRONT_BACKEND_URL: https://api.ghargrocer.in
//	MIRROR_BACKEND: redis
//	CORS_ALLOWED_ORIGINS: [https://ghargrocer.in, https://www.ghargrocer.in]
func LoadFile(path string, cfg any) error {
	if path == "" {
		return Load(cfg)
	}

	vars, err := readFile(path)
	if err != nil {
		return err
	}

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	vars := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
		case []any:
			parts := make([]string, 0, len(val))
			for _, p := range val {
				parts = append(parts, fmt.Sprint(p))
			}
			vars[k] = strings.Join(parts, ",")
		case map[string]any:
			return nil, fmt.Errorf("parse config file: key %s must be a scalar or list", k)
		default:
			vars[k] = fmt.Sprint(val)
		}
	}
	return vars, nil
}
