package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// QueueNameRegex validates queue names on open.
	QueueNameRegex string `json:"queueNameRegex" yaml:"queueNameRegex"`
	// MaxQueues bounds the number of live queues (0 = unlimited).
	MaxQueues int `json:"maxQueues" yaml:"maxQueues"`
	// QueueDefaults captures per-queue baseline settings applied when the
	// caller does not supply explicit options.
	QueueDefaults QueueDefaults `json:"queueDefaults" yaml:"queueDefaults"`
}

// QueueDefaults captures per-queue baseline settings.
type QueueDefaults struct {
	// FlushAt is the record-count threshold that triggers an automatic flush.
	FlushAt int `json:"flushAt" yaml:"flushAt"`
	// MaxLength is the soft capacity bound (0 = FlushAt*5).
	MaxLength int `json:"maxLength" yaml:"maxLength"`
	// FlushTimeoutMs is the age after which a non-empty queue becomes
	// flush-eligible on the next push.
	FlushTimeoutMs int `json:"flushTimeoutMs" yaml:"flushTimeoutMs"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		QueueNameRegex: "^[a-z0-9-_]{1,64}$",
		QueueDefaults: QueueDefaults{
			FlushAt:        100,
			FlushTimeoutMs: 5 * 60 * 1000,
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
