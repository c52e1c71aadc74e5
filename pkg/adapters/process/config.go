package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config describes an external program bound to a command name.
type Config struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// File is the structure of commands.yaml.
type File struct {
	Commands []Config `yaml:"commands" json:"commands"`
}

// LoadCommands reads a YAML or JSON command file. A missing file yields no commands.
func LoadCommands(path string) (map[string]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Config{}, nil
		}
		return nil, fmt.Errorf("failed to read commands config: %w", err)
	}

	var cfg File
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	commands := make(map[string]Config, len(cfg.Commands))
	for _, c := range cfg.Commands {
		if c.Name == "" {
			continue
		}
		if c.Command == "" {
			return nil, fmt.Errorf("command %q has no executable", c.Name)
		}
		commands[c.Name] = c
	}
	return commands, nil
}
