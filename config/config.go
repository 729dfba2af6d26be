package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for docrag.
type Config struct {
	Chunk      ChunkConfig      `yaml:"chunk"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Store      StoreConfig      `yaml:"store"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ChunkConfig holds chunking configuration.
type ChunkConfig struct {
	MaxTokens int `yaml:"max_tokens"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK int `yaml:"top_k"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider"`    // "gemini", "openai", "ollama", "mock"
	Model     string        `yaml:"model"`       // e.g., "models/embedding-001"
	APIKeyEnv string        `yaml:"api_key_env"` // Environment variable for API key; empty picks the provider's
	BaseURL   string        `yaml:"base_url"`
	Dimension int           `yaml:"dimension"` // 0 uses the model's native size
	Timeout   time.Duration `yaml:"timeout"`
}

// GenerationConfig holds answer generation configuration.
type GenerationConfig struct {
	Provider  string        `yaml:"provider"` // "gemini", "openai", "ollama", "echo"
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

// StoreConfig selects and configures the chunk store backend.
type StoreConfig struct {
	Backend  string         `yaml:"backend"` // "supabase", "bolt", "sqlite", "memory"
	Path     string         `yaml:"path"`    // relative paths resolve against the root directory
	Table    string         `yaml:"table"`
	Timeout  time.Duration  `yaml:"timeout"`
	Supabase SupabaseConfig `yaml:"supabase"`
}

type SupabaseConfig struct {
	URL    string `yaml:"url"`
	KeyEnv string `yaml:"key_env"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunk: ChunkConfig{
			MaxTokens: 500,
		},
		Retrieve: RetrieveConfig{
			TopK: 3,
		},
		Embedding: EmbeddingConfig{
			Provider:  "gemini",
			Model:     "models/embedding-001",
			Timeout:   60 * time.Second,
		},
		Generation: GenerationConfig{
			Provider:  "gemini",
			Model:     "gemini-2.5-pro",
			Timeout:   120 * time.Second,
		},
		Store: StoreConfig{
			Backend: "bolt",
			Path:    filepath.Join(".docrag", "corpus.db"),
			Table:   "documents",
			Timeout: 30 * time.Second,
			Supabase: SupabaseConfig{
				KeyEnv: "SUPABASE_KEY",
			},
		},
		Server: ServerConfig{
			Addr:            ":8000",
			DownloadTimeout: 30 * time.Second,
			MaxUploadBytes:  32 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. Fields absent from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for docrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	// Try docrag.yaml in the directory
	path := filepath.Join(dir, "docrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	// Try .docrag/config.yaml
	path = filepath.Join(dir, ".docrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	// Return defaults
	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides settings from the process environment. PORT replaces
// the server listen port.
func (c *Config) ApplyEnv() {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		c.Server.Addr = ":" + port
	}
}

var (
	embeddingProviders  = []string{"gemini", "openai", "ollama", "mock"}
	generationProviders = []string{"gemini", "openai", "ollama", "echo"}
	storeBackends       = []string{"supabase", "bolt", "sqlite", "memory"}
	logLevels           = []string{"debug", "info", "warn", "error"}
	logFormats          = []string{"text", "json"}
)

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	oneOf := func(field, value string, allowed []string) {
		for _, a := range allowed {
			if value == a {
				return
			}
		}
		errs = append(errs, fmt.Errorf("%s: unknown value %q (want one of %s)", field, value, strings.Join(allowed, ", ")))
	}

	oneOf("embedding.provider", c.Embedding.Provider, embeddingProviders)
	oneOf("generation.provider", c.Generation.Provider, generationProviders)
	oneOf("store.backend", c.Store.Backend, storeBackends)
	oneOf("logging.level", c.Logging.Level, logLevels)
	oneOf("logging.format", c.Logging.Format, logFormats)

	if c.Embedding.Dimension < 0 {
		errs = append(errs, fmt.Errorf("embedding.dimension: must not be negative, got %d", c.Embedding.Dimension))
	}
	if c.Retrieve.TopK <= 0 {
		errs = append(errs, fmt.Errorf("retrieve.top_k: must be positive, got %d", c.Retrieve.TopK))
	}
	switch c.Store.Backend {
	case "bolt", "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store.path: required for %s backend", c.Store.Backend))
		}
	case "supabase":
		if c.Store.Supabase.URL == "" {
			errs = append(errs, errors.New("store.supabase.url: required for supabase backend"))
		}
		if c.Store.Table == "" {
			errs = append(errs, errors.New("store.table: required for supabase backend"))
		}
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes: must be positive, got %d", c.Server.MaxUploadBytes))
	}

	return errors.Join(errs...)
}

// KeyEnv returns the environment variable holding the embedding API key.
func (c EmbeddingConfig) KeyEnv() string {
	if c.APIKeyEnv != "" {
		return c.APIKeyEnv
	}
	return defaultKeyEnv(c.Provider)
}

// KeyEnv returns the environment variable holding the generation API key.
func (c GenerationConfig) KeyEnv() string {
	if c.APIKeyEnv != "" {
		return c.APIKeyEnv
	}
	return defaultKeyEnv(c.Provider)
}

func defaultKeyEnv(provider string) string {
	switch provider {
	case "gemini":
		return "GOOGLE_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	}
	return ""
}

// Secret returns the value of the environment variable named by env.
func Secret(env string) string {
	if env == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(env))
}

// StorePath returns the store path, resolved against dir when relative.
func (c *Config) StorePath(dir string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(dir, c.Store.Path)
}

// EnsureStoreDir ensures the directory holding the store file exists.
func (c *Config) EnsureStoreDir(dir string) error {
	return os.MkdirAll(filepath.Dir(c.StorePath(dir)), 0755)
}
