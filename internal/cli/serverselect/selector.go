package serverselect

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"

	"github.com/inkdesk-dev/inkdesk/internal/cli/config"
	"github.com/inkdesk-dev/inkdesk/internal/cli/userconfig"
)

// ResolveServer determines which server to use based on the following priority:
// 1. If serverFlag is provided, use the server with that URL or alias
// 2. If user has a selected server in their local config, use that
// 3. If only one server in project config, use that
// 4. Otherwise, prompt user to select a server interactively
func ResolveServer(projectConfig *config.Config, serverFlag string) (*config.Server, error) {
	// Priority 1: explicit --server, matched by URL or alias
	if serverFlag != "" {
		return projectConfig.GetServerByURLOrAlias(serverFlag)
	}

	// Priority 2: the server remembered in ~/.config/inkdesk
	selectedURL, err := userconfig.GetSelectedServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selectedURL != "" {
		if server, err := getServerByURL(projectConfig, selectedURL); err == nil {
			return server, nil
		}
		// Removed from inkdesk.json since it was selected; forget it and fall through
		_ = userconfig.SetSelectedServer("")
	}

	// Priority 3: a single configured server needs no choice
	if len(projectConfig.Servers) == 1 {
		server := &projectConfig.Servers[0]
		remember(server)
		return server, nil
	}

	// Priority 4: ask
	server, err := PromptServerSelection(projectConfig)
	if err != nil {
		return nil, err
	}
	remember(server)

	return server, nil
}

// remember saves the selection; a failure only costs a prompt next time
func remember(server *config.Server) {
	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save selected server: %v\n", err)
	}
}

// PromptServerSelection shows an interactive prompt for the user to select a server
func PromptServerSelection(projectConfig *config.Config) (*config.Server, error) {
	if len(projectConfig.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", config.ConfigFileName)
	}

	// Label each server with alias and URL so same-host backends can be told apart
	type serverOption struct {
		Label  string
		Server *config.Server
	}

	options := make([]serverOption, len(projectConfig.Servers))
	for i := range projectConfig.Servers {
		server := &projectConfig.Servers[i]
		options[i] = serverOption{
			Label:  fmt.Sprintf("%s (%s)", server.Alias, server.URL),
			Server: server,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a server",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server selection cancelled: %w", err)
	}

	return options[index].Server, nil
}

// getServerByURL matches on the normalized URL so a trailing slash or host case does not matter
func getServerByURL(cfg *config.Config, serverURL string) (*config.Server, error) {
	key := config.ServerKey(serverURL)
	for i := range cfg.Servers {
		if config.ServerKey(cfg.Servers[i].URL) == key {
			return &cfg.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with URL '%s' not found in project config", serverURL)
}
