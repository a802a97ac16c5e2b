package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration, loaded from the environment.
type Config struct {
	Port string

	// SiteFile is the YAML file describing the versions to build.
	SiteFile string

	// OutputDir is where built versions, index artifacts and the
	// version manifest are written and served from.
	OutputDir string

	// Concurrency bounds per-version parallel document extraction.
	Concurrency int

	// Watch enables rebuild-on-change in the server.
	Watch bool

	QueryDebounce time.Duration
	WatchDebounce time.Duration
}

func Load() Config {
	cfg := Config{
		Port:          envOr("PORT", "8080"),
		SiteFile:      envOr("SITE_FILE", "docsite.yaml"),
		OutputDir:     envOr("OUTPUT_DIR", "public"),
		Concurrency:   envInt("BUILD_CONCURRENCY", 4),
		Watch:         envBool("WATCH", false),
		QueryDebounce: envDuration("QUERY_DEBOUNCE", 150*time.Millisecond),
		WatchDebounce: envDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.QueryDebounce <= 0 {
		cfg.QueryDebounce = 150 * time.Millisecond
	}
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = 500 * time.Millisecond
	}
	return cfg
}

// Version describes one documentation version in the site file.
type Version struct {
	ID      string `yaml:"id"`
	Label   string `yaml:"label"`
	Source  string `yaml:"source"`
	Default string `yaml:"default"`
}

// Site is the parsed site file.
type Site struct {
	Versions []Version `yaml:"versions"`
}

// LoadSite reads and validates the YAML site file.
func LoadSite(path string) (Site, error) {
	var site Site
	data, err := os.ReadFile(path)
	if err != nil {
		return site, fmt.Errorf("read site file: %w", err)
	}
	if err := yaml.Unmarshal(data, &site); err != nil {
		return site, fmt.Errorf("parse site file: %w", err)
	}
	if err := site.Validate(); err != nil {
		return site, err
	}
	return site, nil
}

func (s *Site) Validate() error {
	if len(s.Versions) == 0 {
		return fmt.Errorf("site file: no versions configured")
	}
	seen := make(map[string]bool, len(s.Versions))
	for i := range s.Versions {
		v := &s.Versions[i]
		if v.ID == "" {
			return fmt.Errorf("site file: version %d has no id", i)
		}
		if seen[v.ID] {
			return fmt.Errorf("site file: duplicate version id %q", v.ID)
		}
		seen[v.ID] = true
		if v.Source == "" {
			return fmt.Errorf("site file: version %q has no source", v.ID)
		}
		if v.Label == "" {
			v.Label = v.ID
		}
		if v.Default == "" {
			v.Default = "index.html"
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
