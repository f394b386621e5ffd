package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv loads configuration overrides from environment variables
func LoadFromEnv(cfg *Config) {
	if port := os.Getenv("VERIDICAL_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if logLevel := os.Getenv("VERIDICAL_LOG_LEVEL"); logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}

	// Cache settings
	if capacity := os.Getenv("VERIDICAL_CACHE_CAPACITY"); capacity != "" {
		if n, err := strconv.Atoi(capacity); err == nil {
			cfg.Cache.Capacity = n
		}
	}
	if maxAge := os.Getenv("VERIDICAL_CACHE_MAX_AGE"); maxAge != "" {
		if d, err := time.ParseDuration(maxAge); err == nil {
			cfg.Cache.MaxAge = d
		}
	}

	// Rate limit settings
	if burst := os.Getenv("VERIDICAL_RATE_BUCKET_CAPACITY"); burst != "" {
		if n, err := strconv.Atoi(burst); err == nil {
			cfg.RateLimit.BucketCapacity = n
		}
	}
	if refill := os.Getenv("VERIDICAL_RATE_REFILL_PER_SECOND"); refill != "" {
		if f, err := strconv.ParseFloat(refill, 64); err == nil {
			cfg.RateLimit.RefillPerSecond = f
		}
	}

	// Classifier settings
	if endpoint := os.Getenv("VERIDICAL_CLASSIFIER_ENDPOINT"); endpoint != "" {
		cfg.Classifier.Endpoint = endpoint
	}
	if model := os.Getenv("VERIDICAL_MODEL_NAME"); model != "" {
		cfg.Classifier.ModelName = model
	}
	if timeout := os.Getenv("VERIDICAL_CLASSIFIER_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.Classifier.Timeout = d
		}
	}

	// Analysis log settings
	if dir := os.Getenv("VERIDICAL_LOG_DIR"); dir != "" {
		cfg.AnalysisLog.Dir = dir
	}
	if days := os.Getenv("VERIDICAL_LOG_RETENTION_DAYS"); days != "" {
		if n, err := strconv.Atoi(days); err == nil {
			cfg.AnalysisLog.RetentionDays = n
		}
	}
}

// GetEnvOrDefault returns environment variable or default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
