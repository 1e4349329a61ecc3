package config

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the photosearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Faces     FacesConfig     `yaml:"faces"`
	Images    ImagesConfig    `yaml:"images"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Search    SearchConfig    `yaml:"search"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxUploadBytes  int64 `yaml:"max_upload_bytes"`
}

// DatabaseConfig holds index engine connection settings.
type DatabaseConfig struct {
	Addrs             []string `yaml:"addrs"`
	Password          string   `yaml:"password"`
	ReadinessTimeout  int      `yaml:"readiness_timeout_sec"`
	RequestTimeoutSec int      `yaml:"request_timeout_sec"`
}

// IndexConfig holds the vector index layout.
type IndexConfig struct {
	Name            string `yaml:"name"`
	KeyPrefix       string `yaml:"key_prefix"`
	Dimensions      int    `yaml:"dimensions"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds embedding model server settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"` // clip, openai (default: clip)
	BaseURL          string `yaml:"base_url"`
	APIKey           string `yaml:"api_key"`
	Model            string `yaml:"model"`
	TimeoutSec       int    `yaml:"timeout_sec"`
	Normalize        bool   `yaml:"normalize"`
	Serialize        bool   `yaml:"serialize"`
	QueryCacheTTLSec int    `yaml:"query_cache_ttl_sec"` // 0 disables the query cache
}

// FacesConfig holds face-exclusion settings.
type FacesConfig struct {
	Enabled   bool    `yaml:"enabled"`
	BaseURL   string  `yaml:"base_url"` // default: embedding.base_url
	Threshold float64 `yaml:"threshold"`
	MaxSide   int     `yaml:"max_side"` // images are downscaled to this before detection
}

// ImagesConfig holds the local image cache and remote origin.
type ImagesConfig struct {
	CacheDir           string `yaml:"cache_dir"`
	URLTemplate        string `yaml:"url_template"`
	DownloadTimeoutSec int    `yaml:"download_timeout_sec"`
}

// IngestionConfig holds bulk reindex settings.
type IngestionConfig struct {
	BatchSize   int `yaml:"batch_size"`
	Cap         int `yaml:"cap"` // 0 = unlimited
	Workers     int `yaml:"workers"`
	RootTaxonID int `yaml:"root_taxon_id"`
}

// SearchConfig holds query composition settings.
type SearchConfig struct {
	K                int      `yaml:"k"`
	NumCandidates    int      `yaml:"num_candidates"`
	DefaultPageSize  int      `yaml:"default_page_size"`
	MaxPageSize      int      `yaml:"max_page_size"`
	ExcludedTaxonIDs []int    `yaml:"excluded_taxon_ids"`
	MetadataFilters  []string `yaml:"metadata_filters"`
	NormalizeQuery   bool     `yaml:"normalize_query"`
}

// Load reads config/<env>.yaml.
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates the YAML file at path.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars(raw), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// GetEnv returns $ENV, or "local".
func GetEnv() string {
	return cmp.Or(os.Getenv("ENV"), "local")
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		c.HTTP.MaxUploadBytes = 10 << 20
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.RequestTimeoutSec <= 0 {
		c.Database.RequestTimeoutSec = 30
	}
	if c.Index.Name == "" {
		c.Index.Name = "photos"
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "photosearch:"
	}
	if c.Index.Dimensions <= 0 {
		c.Index.Dimensions = 512
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "clip"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 60
	}
	if c.Faces.BaseURL == "" {
		c.Faces.BaseURL = c.Embedding.BaseURL
	}
	if c.Faces.Threshold <= 0 {
		c.Faces.Threshold = 0.9
	}
	if c.Faces.MaxSide <= 0 {
		c.Faces.MaxSide = 1024
	}
	if c.Images.CacheDir == "" {
		c.Images.CacheDir = "data/images"
	}
	if c.Images.URLTemplate == "" {
		c.Images.URLTemplate = "https://inaturalist-open-data.s3.amazonaws.com/photos/{photo_id}/medium.{extension}"
	}
	if c.Images.DownloadTimeoutSec <= 0 {
		c.Images.DownloadTimeoutSec = 30
	}
	if c.Ingestion.BatchSize <= 0 {
		c.Ingestion.BatchSize = 50
	}
	if c.Ingestion.Workers <= 0 {
		c.Ingestion.Workers = 8
	}
	if c.Ingestion.RootTaxonID == 0 {
		c.Ingestion.RootTaxonID = 48460
	}
	if c.Search.K <= 0 {
		c.Search.K = 100
	}
	if c.Search.NumCandidates <= 0 {
		c.Search.NumCandidates = 2 * c.Search.K
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 20
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 100
	}
}

// metadataFields are the document fields that may be enabled as search filters.
var metadataFields = map[string]bool{
	"continent":      true,
	"quality_grade":  true,
	"observer_login": true,
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Embedding.Provider {
	case "clip", "openai":
	default:
		return fmt.Errorf("embedding.provider must be \"clip\" or \"openai\", got %q", c.Embedding.Provider)
	}
	if c.Embedding.BaseURL == "" && c.Embedding.Provider == "clip" {
		return fmt.Errorf("embedding.base_url is required for provider clip")
	}
	if c.Embedding.QueryCacheTTLSec < 0 {
		return fmt.Errorf("embedding.query_cache_ttl_sec must not be negative")
	}
	if c.Faces.Enabled && c.Faces.BaseURL == "" {
		return fmt.Errorf("faces.base_url is required when faces.enabled")
	}
	if c.Faces.Threshold > 1 {
		return fmt.Errorf("faces.threshold must be in (0, 1], got %g", c.Faces.Threshold)
	}
	if !strings.Contains(c.Images.URLTemplate, "{photo_id}") {
		return fmt.Errorf("images.url_template must contain {photo_id}")
	}
	if c.Ingestion.Cap < 0 {
		return fmt.Errorf("ingestion.cap must not be negative")
	}
	if c.Search.NumCandidates < c.Search.K {
		return fmt.Errorf("search.num_candidates (%d) must be >= search.k (%d)", c.Search.NumCandidates, c.Search.K)
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size must not exceed search.max_page_size")
	}
	for _, f := range c.Search.MetadataFilters {
		if !metadataFields[f] {
			return fmt.Errorf("search.metadata_filters: unknown field %q", f)
		}
	}
	return nil
}

// findConfigPath checks ./config, then <module root>/config.
func findConfigPath(env string) string {
	name := env + ".yaml"
	local := filepath.Join("config", name)

	_, self, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(self), "..", "..")
	for _, p := range []string{local, filepath.Join(root, "config", name)} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return local
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandEnvVars substitutes ${VAR} and ${VAR:-fallback}. Unset variables
// without a fallback become empty.
func expandEnvVars(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		m := envRef.FindSubmatch(ref)
		if v := os.Getenv(string(m[1])); v != "" {
			return []byte(v)
		}
		return m[3]
	})
}
