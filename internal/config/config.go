package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// AIConfig selects the chat provider used for extraction and answering.
type AIConfig struct {
	Provider string `yaml:"provider"` // "openai" or "claude"
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// RAGConfig controls the retrieval layer.
type RAGConfig struct {
	EmbeddingModel string `yaml:"embedding_model"`
	PostgresDSN    string `yaml:"postgres_dsn"`
	Collection     string `yaml:"collection"`
	TopK           int    `yaml:"top_k"`
	ChunkSize      int    `yaml:"chunk_size"`
	ChunkOverlap   int    `yaml:"chunk_overlap"`
}

type Config struct {
	FeedURL         string    `yaml:"feed_url"`
	DataDir         string    `yaml:"data_dir,omitempty"`
	RefreshInterval string    `yaml:"refresh_interval"`
	Retention       string    `yaml:"retention"`
	Benchmark       string    `yaml:"benchmark,omitempty"`
	AI              *AIConfig `yaml:"ai,omitempty"`
	RAG             RAGConfig `yaml:"rag"`
}

// AIEnabled returns true if a chat provider is configured with an API key.
func (c *Config) AIEnabled() bool {
	return c.AI != nil && c.AIKey() != ""
}

// AIKey returns the resolved API key (config value, then env vars).
func (c *Config) AIKey() string {
	if c.AI != nil && c.AI.APIKey != "" {
		return c.AI.APIKey
	}
	if key := os.Getenv("NEWSRAG_AI_KEY"); key != "" {
		return key
	}
	if c.AI != nil && c.AI.Provider == "claude" {
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return os.Getenv("OPENAI_API_KEY")
}

// EmbeddingKey returns the key used for embeddings. Embeddings always go
// through OpenAI regardless of the chat provider.
func (c *Config) EmbeddingKey() string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	if c.AI != nil && c.AI.Provider == "openai" {
		return c.AIKey()
	}
	return ""
}

func (c *Config) RefreshDuration() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

func (c *Config) RetentionDuration() time.Duration {
	if c.Retention == "" {
		return 365 * 24 * time.Hour
	}
	// Support "Nd" day syntax
	if len(c.Retention) > 1 && c.Retention[len(c.Retention)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(c.Retention, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(c.Retention)
	if err != nil {
		return 365 * 24 * time.Hour
	}
	return d
}

// BenchmarkSymbol is the market index returns are compared against.
func (c *Config) BenchmarkSymbol() string {
	if c.Benchmark == "" {
		return "^GSPC"
	}
	return c.Benchmark
}

func (c *Config) TopK() int {
	if c.RAG.TopK <= 0 {
		return 7
	}
	return c.RAG.TopK
}

func (c *Config) ChunkSize() int {
	if c.RAG.ChunkSize <= 0 {
		return 1000
	}
	return c.RAG.ChunkSize
}

func (c *Config) ChunkOverlap() int {
	if c.RAG.ChunkOverlap <= 0 {
		return 200
	}
	return c.RAG.ChunkOverlap
}

func (c *Config) CollectionName() string {
	if c.RAG.Collection == "" {
		return "news_feed"
	}
	return c.RAG.Collection
}

// ResolvedDataDir is where the pipeline artifacts live.
func (c *Config) ResolvedDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return filepath.Join(xdg.DataHome, "newsrag")
}

// ArtifactPath joins a file name onto the data directory.
func (c *Config) ArtifactPath(name string) string {
	return filepath.Join(c.ResolvedDataDir(), name)
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "newsrag", "config.yaml")
}

func StorePath() string {
	return filepath.Join(xdg.CacheHome, "newsrag", "newsrag.db")
}

func IndexPath() string {
	return filepath.Join(xdg.CacheHome, "newsrag", "news_index.bleve")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	if cfg.FeedURL == "" {
		return fmt.Errorf("feed_url is required")
	}
	u, err := url.Parse(cfg.FeedURL)
	if err != nil {
		return fmt.Errorf("invalid feed_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("feed_url scheme must be http or https, got %q", u.Scheme)
	}
	if cfg.AI != nil {
		switch cfg.AI.Provider {
		case "", "openai", "claude":
		default:
			return fmt.Errorf("unknown ai provider %q (valid: openai, claude)", cfg.AI.Provider)
		}
	}
	return nil
}
