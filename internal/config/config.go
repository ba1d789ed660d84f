// Package config loads application configuration from environment variables
// and the repository manifest file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rulehound/rulehound/internal/domain/model"
)

// APIClient pairs a client name with its static API key.
type APIClient struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// Config holds the application configuration loaded from environment
// variables plus the repository list loaded from the manifest file.
type Config struct {
	ListenAddr      string
	DBPath          string
	StagingDir      string
	ReposFile       string
	CollectInterval time.Duration
	CollectWorkers  int
	StrictSync      bool
	JWTSecret       string
	JWTIssuer       string
	TokenTTL        time.Duration
	APIClients      []APIClient
	Repos           []model.RepoConfig
}

// APIClientKeys returns the configured clients as an API-key-to-name map,
// the shape the token service consumes.
func (c *Config) APIClientKeys() map[string]string {
	keys := make(map[string]string, len(c.APIClients))
	for _, client := range c.APIClients {
		keys[client.Key] = client.Name
	}
	return keys
}

// Load reads configuration from environment variables and the repository
// manifest, returning a validated Config. Required: RULEHOUND_JWT_SECRET.
// Optional variables with defaults: RULEHOUND_LISTEN_ADDR (127.0.0.1:8080),
// RULEHOUND_DB_PATH (rulehound.db), RULEHOUND_STAGING_DIR (staging),
// RULEHOUND_REPOS_FILE (repos.yaml), RULEHOUND_COLLECT_INTERVAL (1h),
// RULEHOUND_COLLECT_WORKERS (4), RULEHOUND_STRICT_SYNC (false),
// RULEHOUND_JWT_ISSUER (rulehound), RULEHOUND_TOKEN_TTL (30m),
// RULEHOUND_API_CLIENTS (empty JSON list of {"name","key"} objects).
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:      envOr("RULEHOUND_LISTEN_ADDR", "127.0.0.1:8080"),
		DBPath:          envOr("RULEHOUND_DB_PATH", "rulehound.db"),
		StagingDir:      envOr("RULEHOUND_STAGING_DIR", "staging"),
		ReposFile:       envOr("RULEHOUND_REPOS_FILE", "repos.yaml"),
		CollectInterval: time.Hour,
		CollectWorkers:  4,
		JWTIssuer:       envOr("RULEHOUND_JWT_ISSUER", "rulehound"),
		TokenTTL:        30 * time.Minute,
	}

	cfg.JWTSecret = os.Getenv("RULEHOUND_JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("RULEHOUND_JWT_SECRET is required")
	}

	if v, ok := os.LookupEnv("RULEHOUND_COLLECT_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("RULEHOUND_COLLECT_INTERVAL has invalid duration %q: %w", v, err)
		}
		cfg.CollectInterval = parsed
	}

	if v, ok := os.LookupEnv("RULEHOUND_TOKEN_TTL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("RULEHOUND_TOKEN_TTL has invalid duration %q: %w", v, err)
		}
		cfg.TokenTTL = parsed
	}

	if v, ok := os.LookupEnv("RULEHOUND_COLLECT_WORKERS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("RULEHOUND_COLLECT_WORKERS has invalid value %q", v)
		}
		cfg.CollectWorkers = parsed
	}

	if v, ok := os.LookupEnv("RULEHOUND_STRICT_SYNC"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("RULEHOUND_STRICT_SYNC has invalid value %q", v)
		}
		cfg.StrictSync = parsed
	}

	if v, ok := os.LookupEnv("RULEHOUND_API_CLIENTS"); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &cfg.APIClients); err != nil {
			return nil, fmt.Errorf("RULEHOUND_API_CLIENTS has invalid JSON: %w", err)
		}
		for _, client := range cfg.APIClients {
			if client.Name == "" || client.Key == "" {
				return nil, fmt.Errorf("RULEHOUND_API_CLIENTS entries need both name and key")
			}
		}
	}

	repos, err := LoadRepos(cfg.ReposFile)
	if err != nil {
		return nil, err
	}
	cfg.Repos = repos

	return cfg, nil
}

// manifest is the on-disk shape of the repository list.
type manifest struct {
	Repositories []repoEntry `yaml:"repositories"`
}

type repoEntry struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Branch  string `yaml:"branch"`
	Author  string `yaml:"author"`
	Path    string `yaml:"path"`
	Quality string `yaml:"quality"`
}

// LoadRepos reads and validates the YAML repository manifest. Every entry
// needs a name, a URL, and a branch.
func LoadRepos(path string) ([]model.RepoConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read repos manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse repos manifest %s: %w", path, err)
	}
	if len(m.Repositories) == 0 {
		return nil, fmt.Errorf("repos manifest %s lists no repositories", path)
	}

	repos := make([]model.RepoConfig, 0, len(m.Repositories))
	for i, entry := range m.Repositories {
		if entry.Name == "" || entry.URL == "" || entry.Branch == "" {
			return nil, fmt.Errorf("repos manifest %s: entry %d needs name, url, and branch", path, i)
		}
		repos = append(repos, model.RepoConfig{
			Name:    entry.Name,
			URL:     entry.URL,
			Branch:  entry.Branch,
			Author:  entry.Author,
			Path:    entry.Path,
			Quality: entry.Quality,
		})
	}
	return repos, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
