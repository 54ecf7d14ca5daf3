package config

import (
	"os"
	"strconv"
)

// LoadFromEnv applies SELFCRYPT_* environment overrides.
func LoadFromEnv(cfg *Config) {
	if dir := os.Getenv("SELFCRYPT_CHUNK_DIR"); dir != "" {
		cfg.ChunkDir = dir
	}
	if level := os.Getenv("SELFCRYPT_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if v := os.Getenv("SELFCRYPT_MAX_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Params.MaxChunkSize = n
		}
	}
	if v := os.Getenv("SELFCRYPT_MAX_INCLUDABLE_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Params.MaxIncludableChunkSize = n
		}
	}
	if v := os.Getenv("SELFCRYPT_MAX_INCLUDABLE_DATA_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Params.MaxIncludableDataSize = n
		}
	}
}

// GetEnvOrDefault returns the environment variable or a fallback.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
