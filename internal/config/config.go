// Package config provides configuration loading and structs for the Clipseek server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Indexer IndexerConfig `yaml:"indexer"`
	Clients ClientsConfig `yaml:"clients"`
	Index   IndexConfig   `yaml:"index"`
	Hints   HintsConfig   `yaml:"hints"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// IndexerConfig holds worker scheduler settings.
type IndexerConfig struct {
	Workers        int `yaml:"workers"`
	PollIntervalMs int `yaml:"poll_interval_ms"`
	IdleDelayMs    int `yaml:"idle_delay_ms"`
	StartupDelayMs int `yaml:"startup_delay_ms"`
}

// PollInterval is the delay between chain passes of one worker.
func (c *IndexerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// IdleDelay is the worker backoff when nothing is claimable.
func (c *IndexerConfig) IdleDelay() time.Duration {
	return time.Duration(c.IdleDelayMs) * time.Millisecond
}

// StartupDelay is how long the scheduler waits before its first claim.
func (c *IndexerConfig) StartupDelay() time.Duration {
	return time.Duration(c.StartupDelayMs) * time.Millisecond
}

// ClientsConfig holds the external collaborator endpoints.
// DescriberURLs may contain several base URLs separated by ";"; one is
// picked at random per request.
type ClientsConfig struct {
	DescriberURLs  string `yaml:"describer_urls"`
	TranslatorURL  string `yaml:"translator_url"`
	EmbedderURL    string `yaml:"embedder_url"`
	TranscriberURL string `yaml:"transcriber_url"`
	TimeoutMinutes int    `yaml:"timeout_minutes"`
}

// Timeout is the per-request HTTP timeout for collaborator calls.
func (c *ClientsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMinutes) * time.Minute
}

// IndexConfig holds scoring, clustering, and expansion tunables.
type IndexConfig struct {
	NgramSize             int     `yaml:"ngram_size"`
	AvgDocLength          float64 `yaml:"avg_doc_length"`
	BM25K1                float64 `yaml:"bm25_k1"`
	BM25B                 float64 `yaml:"bm25_b"`
	CandidatePoolPerNgram int     `yaml:"candidate_pool_per_ngram"`
	KeywordCap            int     `yaml:"keyword_cap"`
	MinClusterFraction    float64 `yaml:"min_cluster_fraction"`
	MinPointsPerCluster   int     `yaml:"min_points_per_cluster"`
	ExpansionFloor        float64 `yaml:"expansion_floor"`
	VectorTolerance       float64 `yaml:"vector_tolerance"`
	LatinRatioTolerance   float64 `yaml:"latin_ratio_tolerance"`
	TranscriptKeywordCap  int     `yaml:"transcript_keyword_cap"`
}

// HintsConfig holds autocomplete settings.
type HintsConfig struct {
	QuietPeriodMs int `yaml:"quiet_period_ms"`
}

// QuietPeriod is the debounce window for hint index rebuilds.
func (c *HintsConfig) QuietPeriod() time.Duration {
	return time.Duration(c.QuietPeriodMs) * time.Millisecond
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, filepath.Dir(path))
	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
