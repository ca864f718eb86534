package config

import (
	"os"
	"strconv"
)

// FromEnv overlays BATCHQ_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("BATCHQ_QUEUE_NAME_REGEX"); v != "" {
		cfg.QueueNameRegex = v
	}
	if v := os.Getenv("BATCHQ_MAX_QUEUES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxQueues = n
		}
	}
	if v := os.Getenv("BATCHQ_QUEUE_DEFAULTS_FLUSH_AT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueDefaults.FlushAt = n
		}
	}
	if v := os.Getenv("BATCHQ_QUEUE_DEFAULTS_MAX_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueDefaults.MaxLength = n
		}
	}
	if v := os.Getenv("BATCHQ_QUEUE_DEFAULTS_FLUSH_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueDefaults.FlushTimeoutMs = n
		}
	}
}
