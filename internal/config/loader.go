package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces dupfinder environment overrides.
const envPrefix = "DUPFINDER_"

// Load loads configuration from an optional YAML file, then overrides with
// DUPFINDER_* environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (DUPFINDER_STORE_PATH, DUPFINDER_LSI_TOPICS, ...)
//  2. YAML config file
//  3. Defaults
//
// Environment variables map to config keys by stripping the prefix, lowercasing,
// and splitting on the first underscore: DUPFINDER_STORE_PATH -> store.path,
// DUPFINDER_GROUND_TRUTH_TRIAGE_KEYWORD is not expressible this way, so
// multiword sections use their YAML spelling in files.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// DUPFINDER_STORE_PATH -> store.path
		// DUPFINDER_NEIGHBORS_K -> neighbors.k
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
