package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/excavator/excavator/internal/logging"

	"gopkg.in/yaml.v3"
)

// Config holds all excavator configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	StateDir string `yaml:"state_dir"`

	Catalog      CatalogConfig      `yaml:"catalog"`
	VectorStore  VectorStoreConfig  `yaml:"vector_store"`
	Watcher      WatcherConfig      `yaml:"watcher"`
	Queue        QueueConfig        `yaml:"queue"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	NER          NERConfig          `yaml:"ner"`
	Correlation  CorrelationConfig  `yaml:"correlation"`
	ControlPlane ControlPlaneConfig `yaml:"control_plane"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// CatalogConfig configures the relational catalog store.
type CatalogConfig struct {
	DatabasePath string `yaml:"database_path"`
	BusyTimeout  string `yaml:"busy_timeout"`
}

// VectorStoreConfig configures the embedding vector store.
type VectorStoreConfig struct {
	UseExtension bool `yaml:"use_extension"` // sqlite-vec vec0 table; false = brute-force cosine fallback
	Dimensions   int  `yaml:"dimensions"`
}

// WatcherConfig configures the recursive file watcher.
type WatcherConfig struct {
	Roots             []string `yaml:"roots"`
	DebounceMS        int      `yaml:"debounce_ms"`
	IgnoreHidden      bool     `yaml:"ignore_hidden"`
	IgnoreVCS         bool     `yaml:"ignore_vcs"`
	ExtensionBlocklist []string `yaml:"extension_blocklist"`
	MaxFileSizeMB     int      `yaml:"max_file_size_mb"`
}

// QueueConfig configures the durable job queue.
type QueueConfig struct {
	MaxRetries   int `yaml:"max_retries"`
	RecentRing   int `yaml:"recent_ring"`
	QueueCapacity int `yaml:"queue_capacity"`
}

// EmbeddingConfig configures the pluggable embedding engine.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // ollama | genai
	OllamaEndpoint string `yaml:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model"`
	GenAIModel     string `yaml:"genai_model"`
	GenAIAPIKey    string `yaml:"genai_api_key"`
	TaskType       string `yaml:"task_type"`
	BatchSize      int    `yaml:"batch_size"`
}

// NERConfig configures named-entity recognition.
type NERConfig struct {
	Provider        string `yaml:"provider"` // "" = built-in regex tech-term detector only
	EnableTechTerms bool   `yaml:"enable_tech_terms"`
}

// CorrelationConfig configures the correlation engine's bounds and scoring.
type CorrelationConfig struct {
	MaxEntities        int     `yaml:"max_entities"`
	MaxPairsPerFile     int     `yaml:"max_pairs_per_file"`
	MaxTotalPairs       int     `yaml:"max_total_pairs"`
	MinConfidence       float64 `yaml:"min_confidence"`
	ExpertiseMinTerms   int     `yaml:"expertise_min_terms"`
	MaxConcurrency      int     `yaml:"max_concurrency"`
}

// ControlPlaneConfig configures the HTTP control plane.
type ControlPlaneConfig struct {
	ListenAddr     string `yaml:"listen_addr"`
	ShutdownGraceS int    `yaml:"shutdown_grace_seconds"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:     "excavator",
		Version:  "0.1.0",
		StateDir: ".excavator",

		Catalog: CatalogConfig{
			DatabasePath: "data/excavator.db",
			BusyTimeout:  "5s",
		},

		VectorStore: VectorStoreConfig{
			UseExtension: false,
			Dimensions:   768,
		},

		Watcher: WatcherConfig{
			Roots:              []string{"."},
			DebounceMS:         500,
			IgnoreHidden:       true,
			IgnoreVCS:          true,
			ExtensionBlocklist: []string{".exe", ".bin", ".so", ".dll", ".dylib", ".o", ".a", ".class", ".jar"},
			MaxFileSizeMB:      50,
		},

		Queue: QueueConfig{
			MaxRetries:    3,
			RecentRing:    256,
			QueueCapacity: 4096,
		},

		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
			TaskType:       "RETRIEVAL_DOCUMENT",
			BatchSize:      32,
		},

		NER: NERConfig{
			Provider:        "",
			EnableTechTerms: true,
		},

		Correlation: CorrelationConfig{
			MaxEntities:       50000,
			MaxPairsPerFile:   500,
			MaxTotalPairs:     1000000,
			MinConfidence:     0.7,
			ExpertiseMinTerms: 5,
			MaxConcurrency:    4,
		},

		ControlPlane: ControlPlaneConfig{
			ListenAddr:     "127.0.0.1:8420",
			ShutdownGraceS: 10,
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults
// plus environment overrides when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	logging.Get(logging.CategoryBoot).Debug("loading config from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Get(logging.CategoryBoot).Info("config file not found, using defaults: %s", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyEnvOverrides layers environment variables on top of file/default config.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("EXCAVATOR_STATE_DIR"); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv("EXCAVATOR_DB_PATH"); v != "" {
		c.Catalog.DatabasePath = v
	}
	if v := os.Getenv("EXCAVATOR_LISTEN_ADDR"); v != "" {
		c.ControlPlane.ListenAddr = v
	}
	if v := os.Getenv("EXCAVATOR_EMBEDDING_PROVIDER"); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv("OLLAMA_ENDPOINT"); v != "" {
		c.Embedding.OllamaEndpoint = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Embedding.GenAIAPIKey = v
	}
	if v := os.Getenv("EXCAVATOR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if os.Getenv("EXCAVATOR_DEBUG") == "1" || os.Getenv("EXCAVATOR_DEBUG") == "true" {
		c.Logging.DebugMode = true
	}
}
