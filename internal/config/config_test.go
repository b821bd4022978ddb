package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "storage-events",
		},
		Model: ModelConfig{
			CompletionModel: "gpt-4o-mini",
			EmbeddingModel:  "text-embedding-3-small",
		},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing database addrs")
	}
	if !strings.Contains(err.Error(), "database.addrs") {
		t.Errorf("error should mention database.addrs, got %q", err.Error())
	}
}

func TestValidate_MissingKafka(t *testing.T) {
	cfg := validConfig()
	cfg.Kafka.Topic = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing kafka topic")
	}

	cfg = validConfig()
	cfg.Kafka.Brokers = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing kafka brokers")
	}
}

func TestValidate_MissingModels(t *testing.T) {
	cfg := validConfig()
	cfg.Model.CompletionModel = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing completion model")
	}

	cfg = validConfig()
	cfg.Model.EmbeddingModel = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding model")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()

	if cfg.Model.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.Model.MaxAttempts)
	}
	if cfg.Model.BaseDelayMs != 1000 {
		t.Errorf("BaseDelayMs = %d, want 1000", cfg.Model.BaseDelayMs)
	}
	if cfg.Index.Dimensions != 1536 {
		t.Errorf("Dimensions = %d, want 1536", cfg.Index.Dimensions)
	}
	if cfg.Index.TopK != 5 {
		t.Errorf("TopK = %d, want 5", cfg.Index.TopK)
	}
	if cfg.Index.Name != "documents-index" {
		t.Errorf("Index.Name = %q, want documents-index", cfg.Index.Name)
	}
	if cfg.Pipeline.ProcessedBucket != "processed-bucket" {
		t.Errorf("ProcessedBucket = %q", cfg.Pipeline.ProcessedBucket)
	}
}

func TestApplyDefaults_DoesNotOverride(t *testing.T) {
	cfg := validConfig()
	cfg.Index.Dimensions = 768
	cfg.Index.TopK = 10
	cfg.ApplyDefaults()

	if cfg.Index.Dimensions != 768 {
		t.Errorf("Dimensions = %d, want 768", cfg.Index.Dimensions)
	}
	if cfg.Index.TopK != 10 {
		t.Errorf("TopK = %d, want 10", cfg.Index.TopK)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DOCINDEX_TEST_KEY", "secret")

	out := expandEnvVars([]byte("api_key: ${DOCINDEX_TEST_KEY}"))
	if string(out) != "api_key: secret" {
		t.Errorf("got %q", string(out))
	}

	out = expandEnvVars([]byte("topic: ${DOCINDEX_UNSET_VAR:-storage-events}"))
	if string(out) != "topic: storage-events" {
		t.Errorf("got %q", string(out))
	}
}
