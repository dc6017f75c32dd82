package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const ConfigFileName = "inkdesk.json"

// Server represents an inkdesk backend
type Server struct {
	URL   string `json:"url" validate:"required,url"`
	Alias string `json:"alias" validate:"required"`
}

// Config represents the CLI configuration file
type Config struct {
	Servers []Server `json:"servers" validate:"dive"`
}

// FindConfigFile searches for inkdesk.json in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads and validates the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks every server has an alias and an absolute URL
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
		}
		if len(fields) == 0 {
			return fmt.Errorf("invalid config: %w", err)
		}
		return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
	}
	return nil
}

// GetServerByAlias returns a server by its alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Alias == alias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with alias '%s' not found", alias)
}

// GetServerByURLOrAlias finds a server by URL (normalized with ServerKey) or alias
func (c *Config) GetServerByURLOrAlias(urlOrAlias string) (*Server, error) {
	key := ServerKey(urlOrAlias)
	for i := range c.Servers {
		if ServerKey(c.Servers[i].URL) == key {
			return &c.Servers[i], nil
		}
	}
	return c.GetServerByAlias(urlOrAlias)
}

// ServerKey normalizes a server URL into the key that scopes per-server state
// (stored token, navigation history): lower-cased scheme and host plus the path,
// without a trailing slash.
func ServerKey(serverURL string) string {
	raw := strings.TrimSpace(serverURL)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(raw, "/")
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + strings.TrimRight(u.EscapedPath(), "/")
}

// GetDefaultServer returns the first server in the list
func (c *Config) GetDefaultServer() (*Server, error) {
	if len(c.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", ConfigFileName)
	}
	return &c.Servers[0], nil
}

// Env holds settings read from the environment (.env and .env.local are loaded first)
type Env struct {
	APIBase   string
	Timeout   time.Duration
	Username  string
	Password  string
	LogLevel  string
	LogFormat string
}

// LoadEnv reads INKDESK_* and logging variables
func LoadEnv() (*Env, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	env := &Env{
		APIBase:   os.Getenv("INKDESK_API_BASE"),
		Username:  os.Getenv("INKDESK_USERNAME"),
		Password:  os.Getenv("INKDESK_PASSWORD"),
		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: os.Getenv("LOG_FORMAT"),
	}

	if env.LogLevel == "" {
		env.LogLevel = "warn"
	}
	if env.LogFormat == "" {
		env.LogFormat = "console"
	}

	if raw := os.Getenv("INKDESK_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid INKDESK_TIMEOUT %q: %w", raw, err)
		}
		env.Timeout = timeout
	}

	return env, nil
}
