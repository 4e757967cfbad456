package configs

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "quill"

// Settings resolves where quill keeps its files.
type Settings struct {
	ConfigDir string
	DataDir   string
}

// NewSettings resolves the XDG config and data directories.
func NewSettings() (*Settings, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("error getting config directory: %w", err)
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("error getting home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return &Settings{
		ConfigDir: filepath.Join(configDir, appName),
		DataDir:   filepath.Join(dataDir, appName),
	}, nil
}

func (s *Settings) ConfigPath() string {
	return filepath.Join(s.ConfigDir, "config.toml")
}

func (s *Settings) KeysPath() string {
	return filepath.Join(s.DataDir, "keys.json")
}

func (s *Settings) BiometricDir() string {
	return filepath.Join(s.DataDir, "biometric")
}

func (s *Settings) AuditPath() string {
	return filepath.Join(s.DataDir, "audit.jsonl")
}
