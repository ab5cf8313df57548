package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root service configuration, loaded from YAML with
// environment variable substitution.
type Config struct {
	Server     ServerConfig              `yaml:"server"`
	Generation GenerationConfig          `yaml:"generation"`
	Providers  map[string]ProviderConfig `yaml:"providers" validate:"required,min=1"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port           string `yaml:"port"`
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
	AllowedOrigins string `yaml:"allowed_origins"`
	// StaticDir, when set, is served at the root path (the bundled web UI).
	StaticDir string `yaml:"static_dir"`
}

// GenerationConfig selects the upstream model used for question generation.
type GenerationConfig struct {
	Provider    string  `yaml:"provider" validate:"required,oneof=openai anthropic gemini"`
	Model       string  `yaml:"model" validate:"required"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
}

// ProviderConfig holds per-provider connection settings. API keys are
// read-only after process start; they are the only state shared across
// sessions. No request timeout is applied: streaming connections stay
// open for as long as the provider keeps generating.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

var validate = validator.New()

// LoadFromFile reads, substitutes and validates a YAML config file.
func LoadFromFile(configPath string) (*Config, error) {
	cleanPath := filepath.Clean(configPath)
	if strings.Contains(cleanPath, "..") {
		return nil, fmt.Errorf("invalid config path: path traversal not allowed")
	}
	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("invalid config file: only .yaml and .yml files are allowed")
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	content := substituteEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Provider lookups are case-insensitive.
	if config.Providers != nil {
		normalized := make(map[string]ProviderConfig, len(config.Providers))
		for key, value := range config.Providers {
			normalized[strings.ToLower(key)] = value
		}
		config.Providers = normalized
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadEnvFiles loads environment variables from .env files, first match
// per variable wins.
func LoadEnvFiles(envFiles []string) {
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err == nil {
				fmt.Printf("Loaded environment variables from %s\n", envFile)
			}
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.Environment == "" {
		c.Server.Environment = "development"
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "openai"
	}
	if c.Generation.Temperature == 0 {
		c.Generation.Temperature = 0.6
	}
}

// Validate checks structural constraints and that the selected generation
// provider has a configuration block.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, ok := c.Providers[c.Generation.Provider]; !ok {
		return fmt.Errorf("invalid configuration: generation provider %q has no providers entry", c.Generation.Provider)
	}
	return nil
}

// ProviderConfig returns the configuration for a provider name.
func (c *Config) ProviderConfig(provider string) (ProviderConfig, bool) {
	pc, ok := c.Providers[strings.ToLower(provider)]
	return pc, ok
}

// GetNormalizedLogLevel returns the configured log level, lowercased.
func (c *Config) GetNormalizedLogLevel() string {
	return strings.ToLower(strings.TrimSpace(c.Server.LogLevel))
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment variable values.
func substituteEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::(-[^}]*))?\}`)

	return re.ReplaceAllStringFunc(content, func(match string) string {
		submatches := re.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		defaultValue := ""
		if len(submatches) > 2 && submatches[2] != "" {
			defaultValue = strings.TrimPrefix(submatches[2], "-")
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}
