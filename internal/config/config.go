package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the docindex service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Model    ModelConfig    `yaml:"model"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Index    IndexConfig    `yaml:"index"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings for the query API.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// KafkaConfig holds the ingest event source settings.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	Topic         string   `yaml:"topic"`
	ConsumerGroup string   `yaml:"consumer_group"`
}

// ModelConfig holds the model gateway settings. Two model identities are
// used: a completion model for structured extraction and an embedding
// model for vectorization.
type ModelConfig struct {
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	CompletionModel string `yaml:"completion_model"`
	EmbeddingModel  string `yaml:"embedding_model"`
	MaxAttempts     int    `yaml:"max_attempts"`
	BaseDelayMs     int    `yaml:"base_delay_ms"`
}

// PipelineConfig holds ingest pipeline settings.
type PipelineConfig struct {
	ProcessedBucket string `yaml:"processed_bucket"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	Name            string `yaml:"name"`
	Dimensions      int    `yaml:"dimensions"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
	TopK            int    `yaml:"top_k"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Kafka.ConsumerGroup == "" {
		c.Kafka.ConsumerGroup = "docindex-ingest"
	}
	if c.Model.MaxAttempts <= 0 {
		c.Model.MaxAttempts = 3
	}
	if c.Model.BaseDelayMs <= 0 {
		c.Model.BaseDelayMs = 1000
	}
	if c.Pipeline.ProcessedBucket == "" {
		c.Pipeline.ProcessedBucket = "processed-bucket"
	}
	if c.Index.Name == "" {
		c.Index.Name = "documents-index"
	}
	if c.Index.Dimensions <= 0 {
		c.Index.Dimensions = 1536
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 32
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 400
	}
	if c.Index.TopK <= 0 {
		c.Index.TopK = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required")
	}
	if c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required")
	}
	if c.Model.CompletionModel == "" {
		return fmt.Errorf("model.completion_model is required")
	}
	if c.Model.EmbeddingModel == "" {
		return fmt.Errorf("model.embedding_model is required")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
