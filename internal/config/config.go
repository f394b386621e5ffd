package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Cache       CacheConfig       `yaml:"cache"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	Detection   DetectionConfig   `yaml:"detection"`
	AnalysisLog AnalysisLogConfig `yaml:"analysis_log"`
}

type ServerConfig struct {
	Port     int    `yaml:"port" default:"8000"`
	LogLevel string `yaml:"log_level" default:"info"`
}

type CacheConfig struct {
	Capacity int           `yaml:"capacity" default:"100"`
	MaxAge   time.Duration `yaml:"max_age" default:"5m"` // 0 disables expiry
}

type RateLimitConfig struct {
	BucketCapacity  int     `yaml:"bucket_capacity" default:"30"`
	RefillPerSecond float64 `yaml:"refill_per_second" default:"0.5"`
	MaxIdentities   int     `yaml:"max_identities" default:"10000"`
}

type ClassifierConfig struct {
	Endpoint  string        `yaml:"endpoint" default:"http://127.0.0.1:9090/v1/classify"`
	ModelName string        `yaml:"model_name"`
	Timeout   time.Duration `yaml:"timeout" default:"30s"`
}

type DetectionConfig struct {
	// HighConfidence is the probability above which a verdict leaves
	// the uncertain band.
	HighConfidence float64 `yaml:"high_confidence" default:"0.6"`
}

type AnalysisLogConfig struct {
	Dir           string `yaml:"dir" default:"./logs"`
	RetentionDays int    `yaml:"retention_days" default:"30"`
}

// Default returns a config populated with production defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8000,
			LogLevel: "info",
		},
		Cache: CacheConfig{
			Capacity: 100,
			MaxAge:   5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			BucketCapacity:  30,
			RefillPerSecond: 0.5,
			MaxIdentities:   10000,
		},
		Classifier: ClassifierConfig{
			Endpoint:  "http://127.0.0.1:9090/v1/classify",
			ModelName: "deepfake-detector-v1",
			Timeout:   30 * time.Second,
		},
		Detection: DetectionConfig{
			HighConfidence: 0.6,
		},
		AnalysisLog: AnalysisLogConfig{
			Dir:           "./logs",
			RetentionDays: 30,
		},
	}
}

// LoadFile reads a YAML config file over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) // #nosec G304 - operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would break the pipeline at runtime.
func (c *Config) Validate() error {
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("config: cache capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.RateLimit.BucketCapacity <= 0 {
		return fmt.Errorf("config: bucket capacity must be positive, got %d", c.RateLimit.BucketCapacity)
	}
	if c.RateLimit.RefillPerSecond <= 0 {
		return fmt.Errorf("config: refill rate must be positive, got %f", c.RateLimit.RefillPerSecond)
	}
	if c.Detection.HighConfidence <= 0.5 || c.Detection.HighConfidence > 1 {
		return fmt.Errorf("config: high confidence threshold must be in (0.5, 1], got %f", c.Detection.HighConfidence)
	}
	if c.Classifier.Timeout <= 0 {
		return fmt.Errorf("config: classifier timeout must be positive, got %s", c.Classifier.Timeout)
	}
	return nil
}
