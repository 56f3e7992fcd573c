package config

import (
	"errors"
	"fmt"
	"os"

	postgres_wrapper "github.com/joripage/matching-core/pkg/infra/postgres"
	redis_wrapper "github.com/joripage/matching-core/pkg/infra/redis"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	ServiceName string                           `yaml:"service_name"`
	LogLevel    string                           `yaml:"log_level"`
	Book        BookConfig                       `yaml:"book"`
	Redis       *redis_wrapper.RedisConfig       `yaml:"redis"`
	JournalDB   *postgres_wrapper.PostgresConfig `yaml:"journal_db"`
	Kafka       *KafkaConfig                     `yaml:"kafka"`
}

type BookConfig struct {
	// levels per side in published depth, -1 for all
	DepthLevels int `yaml:"depth_levels"`
	// fractional digits used when displaying integer prices
	PriceScale int32 `yaml:"price_scale"`
	// recent executions kept in memory, 0 for all
	TapeSize int `yaml:"tape_size"`
	// redis key prefix for market data snapshots
	SnapshotPrefix string `yaml:"snapshot_prefix"`
}

// Validate rejects settings the book cannot display or parse prices with.
func (c BookConfig) Validate() error {
	if c.PriceScale < 0 {
		return fmt.Errorf("book.price_scale must not be negative, got %d", c.PriceScale)
	}
	return nil
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	Topic       string   `yaml:"topic"`
	GroupID     string   `yaml:"group_id"`
	WorkerCount int      `yaml:"worker_count"`
	MaxRetries  int      `yaml:"max_retries"`
	DLQTopic    string   `yaml:"dlq_topic"`
}

// Default is the configuration used when no file is given: an in-memory book with no outer services.
func Default() *AppConfig {
	return &AppConfig{
		ServiceName: "matching-core",
		LogLevel:    "info",
		Book: BookConfig{
			DepthLevels:    10,
			PriceScale:     0,
			TapeSize:       100,
			SnapshotPrefix: "book",
		},
	}
}

// Load load config from file and environment variables.
// Keys missing from the file keep their Default values.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	fields := []interface{}{
		"func",
		"config.readFromFile",
		"filePath",
		filePath,
	}

	sugar := zap.S().With(fields...)

	sugar.Debug("Load config...")
	zap.S().Debugf("CONFIG_FILE=%v", filePath)

	if len(filePath) == 0 {
		return nil, errors.New("config file path is empty")
	}

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := Default()

	err = yaml.Unmarshal(configBytes, cfg)
	if err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}

	if err := cfg.Book.Validate(); err != nil {
		sugar.Error("Invalid book config")
		return nil, err
	}

	zap.S().Debugf("config: %+v", cfg)

	return cfg, nil
}

// LoadOrDefault loads the file when a path is available and falls back to Default otherwise.
func LoadOrDefault(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 && len(os.Getenv("CONFIG_FILE")) == 0 {
		return Default(), nil
	}
	return Load(filePath)
}
