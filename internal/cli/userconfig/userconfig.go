package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/inkdesk-dev/inkdesk/internal/cli/config"
)

const (
	configDirName  = "inkdesk"
	configFileName = "config.json"
)

// UserConfig represents the user's local configuration stored in ~/.config/inkdesk/config.json
type UserConfig struct {
	SelectedServerURL string `json:"selected_server_url"`
	// LastRoutes maps a server URL to the last protected location visited on it
	LastRoutes map[string]string `json:"last_routes,omitempty"`
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", configDirName)
	return filepath.Join(configDir, configFileName), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return empty config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &UserConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// SetSelectedServer updates the selected server URL and saves the config
func SetSelectedServer(serverURL string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.SelectedServerURL = serverURL
	return Save(cfg)
}

// GetSelectedServer returns the selected server URL, or empty string if not set
func GetSelectedServer() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	return cfg.SelectedServerURL, nil
}

// History persists the last visited location per server so the role gate
// can send the user back where they came from across invocations.
type History struct {
	server string
}

func NewHistory(serverURL string) *History {
	return &History{server: config.ServerKey(serverURL)}
}

// Previous returns the last recorded location, or "" when none is stored
func (h *History) Previous() string {
	cfg, err := Load()
	if err != nil {
		return ""
	}
	return cfg.LastRoutes[h.server]
}

// Record stores location as the last visited one
func (h *History) Record(location string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	if cfg.LastRoutes == nil {
		cfg.LastRoutes = make(map[string]string)
	}
	if cfg.LastRoutes[h.server] == location {
		return nil
	}
	cfg.LastRoutes[h.server] = location
	return Save(cfg)
}
