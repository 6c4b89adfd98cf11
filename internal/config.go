package internal

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the process configuration, read once at startup. Credentials
// and feature flags are materialized into this file by the deployment
// environment; the router only consumes them.
type Config struct {
	// Listen is the webhook bind address, e.g. ":8085".
	Listen string `yaml:"listen"`

	// Agent configures the conversational backend.
	Agent AgentConfig `yaml:"agent"`

	// Store selects and configures directory persistence.
	Store StoreConfig `yaml:"store"`

	// AllowedChats restricts who may use the bot. Empty means open.
	AllowedChats []string `yaml:"allowed_chats"`

	// Features toggles optional command surfaces.
	Features FeatureFlags `yaml:"features"`
}

// AgentConfig locates the agent process's REST API.
type AgentConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// StoreConfig selects the directory persistence driver.
type StoreConfig struct {
	Driver     string   `yaml:"driver"`
	SQLitePath string   `yaml:"sqlite_path"`
	RedisAddr  string   `yaml:"redis_addr"`
	RedisTTL   Duration `yaml:"redis_ttl"`
}

// FeatureFlags enables or disables optional listing commands.
type FeatureFlags struct {
	Skills       bool `yaml:"skills"`
	Integrations bool `yaml:"integrations"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Listen: ":8085",
		Agent: AgentConfig{
			BaseURL: "http://localhost:50001",
			Timeout: Duration(15 * time.Second),
		},
		Store: StoreConfig{
			Driver: string(StoreDriverMemory),
		},
		Features: FeatureFlags{
			Skills:       true,
			Integrations: true,
		},
	}
}

// LoadConfig reads a YAML config file, applying defaults for anything
// the file leaves unset.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the process cannot run with.
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.Agent.BaseURL == "" {
		return fmt.Errorf("agent.base_url must not be empty")
	}
	if c.Agent.Timeout <= 0 {
		return fmt.Errorf("agent.timeout must be positive")
	}
	switch StoreDriver(c.Store.Driver) {
	case StoreDriverMemory:
	case StoreDriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path required for sqlite driver")
		}
	case StoreDriverRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr required for redis driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// Allowed reports whether a chat may use the bot. An empty allow-list
// admits everyone.
func (c Config) Allowed(chat ChatID) bool {
	if len(c.AllowedChats) == 0 {
		return true
	}
	for _, id := range c.AllowedChats {
		if ChatID(id) == chat {
			return true
		}
	}
	return false
}
