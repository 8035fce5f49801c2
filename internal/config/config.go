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

// Config holds the corpusgate service configuration.
type Config struct {
	HTTP     HTTPConfig         `yaml:"http"`
	Auth     AuthConfig         `yaml:"auth"`
	Vault    VaultConfig        `yaml:"vault"`
	Identity ConnectionConfig   `yaml:"identity"`
	Corpora  []ConnectionConfig `yaml:"corpora"`
	Billing  BillingConfig      `yaml:"billing"`
	Logging  LoggingConfig      `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig maps API keys to requester identities.
type AuthConfig struct {
	APIKeys map[string]string `yaml:"api_keys"` // key -> requester id
}

// VaultConfig holds the credential vault settings.
type VaultConfig struct {
	Secret string `yaml:"secret"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ConnectionConfig describes one backing store connection. Password may be
// stored plaintext or vault-encrypted (iv:payload hex); persisted
// configuration always goes through the vault.
type ConnectionConfig struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Host        string `yaml:"host" json:"host"`
	Port        int    `yaml:"port" json:"port"`
	Username    string `yaml:"username" json:"username"`
	Password    string `yaml:"password" json:"password"`
	Database    string `yaml:"database" json:"database"` // logical namespace inside the store
	AuthRealm   string `yaml:"auth_realm" json:"auth_realm"`
	PoolSize    int    `yaml:"pool_size" json:"pool_size"`
	TimeoutSec  int    `yaml:"timeout_sec" json:"timeout_sec"`
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	Description string `yaml:"description" json:"description"`
}

// BillingConfig holds search fee settings.
type BillingConfig struct {
	Enabled       bool `yaml:"enabled"`
	CostPerSearch int  `yaml:"cost_per_search"`
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	applyConnectionDefaults(&c.Identity)
	for i := range c.Corpora {
		applyConnectionDefaults(&c.Corpora[i])
	}
	if c.Billing.CostPerSearch <= 0 {
		c.Billing.CostPerSearch = 1
	}
}

func applyConnectionDefaults(cc *ConnectionConfig) {
	if cc.Port <= 0 {
		cc.Port = 6379
	}
	if cc.TimeoutSec <= 0 {
		cc.TimeoutSec = 30
	}
	if cc.Name == "" {
		cc.Name = cc.ID
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Vault.Secret == "" {
		return fmt.Errorf("vault.secret is required")
	}
	if c.Identity.Host == "" {
		return fmt.Errorf("identity.host is required")
	}
	seen := make(map[string]struct{}, len(c.Corpora))
	for i, cc := range c.Corpora {
		if cc.ID == "" {
			return fmt.Errorf("corpora[%d].id is required", i)
		}
		if _, dup := seen[cc.ID]; dup {
			return fmt.Errorf("corpora[%d].id %q is duplicated", i, cc.ID)
		}
		seen[cc.ID] = struct{}{}
		if cc.Host == "" {
			return fmt.Errorf("corpora[%d].host is required", i)
		}
		if cc.Database == "" {
			return fmt.Errorf("corpora[%d].database is required", i)
		}
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
