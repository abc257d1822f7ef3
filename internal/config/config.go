package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	BlobStore struct {
		Port   string `yaml:"port"`
		Prefix string `yaml:"prefix"`
	} `yaml:"blobstore"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Sync struct {
		Classroom    string `yaml:"classroom"`
		LocalURL     string `yaml:"localURL"`
		RemoteURL    string `yaml:"remoteURL"`
		LocalCapable string `yaml:"localCapable"` // auto, true or false
		ProbeTimeout string `yaml:"probeTimeout"`
		FetchTimeout string `yaml:"fetchTimeout"`
		PollInterval string `yaml:"pollInterval"`
		RecordsPath  string `yaml:"recordsPath"`
		Watch        bool   `yaml:"watch"`
	} `yaml:"sync"`
}

// Load reads YAML config from path. A missing file yields the zero config so every
// command can run on defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// LocalCapable resolves the localCapable setting; "auto" or empty defers to auto.
func LocalCapable(raw string, auto func() bool) bool {
	if raw == "" || raw == "auto" {
		return auto()
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return auto()
	}
	return v
}

// RecordsPath returns the configured durable records file or a per-user default.
func RecordsPath(raw string) string {
	if raw != "" {
		return raw
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "aptimaster", "records.json")
	}
	return filepath.Join(".aptimaster", "records.json")
}
