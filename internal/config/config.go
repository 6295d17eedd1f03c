// Package config resolves which server the client talks to. Precedence:
// command-line flag, CORROSCAN_SERVER, the default profile from
// profiles.yaml, then the local dev address. A .env file, when present, is
// loaded by the root command before any of this runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/manash/corroscan/internal/security"
)

const (
	EnvServer    = "CORROSCAN_SERVER"
	EnvTimeout   = "CORROSCAN_TIMEOUT"
	EnvConfigDir = "CORROSCAN_CONFIG_DIR"

	// DefaultServerURL matches the service's local development address.
	DefaultServerURL = "http://localhost:5000"

	profilesFile = "profiles.yaml"
)

type Config struct {
	ServerURL  string
	TimeoutSec int
}

// Profiles maps short names to server URLs so inspectors can switch
// between installations without retyping addresses.
type Profiles struct {
	Default string            `yaml:"default,omitempty"`
	Servers map[string]string `yaml:"servers,omitempty"`
}

// Resolve builds the effective configuration. flagServer comes from the
// --server flag and wins over everything else.
func Resolve(flagServer string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	serverURL := flagServer
	if serverURL == "" {
		serverURL = getenv(EnvServer)
	}
	if serverURL == "" {
		profiles, err := LoadProfiles()
		if err != nil {
			return nil, err
		}
		if profiles.Default != "" {
			serverURL = profiles.Servers[profiles.Default]
		}
	}
	if serverURL == "" {
		serverURL = DefaultServerURL
	}

	if err := security.ValidateServerURL(serverURL); err != nil {
		return nil, err
	}

	timeoutSec := 0
	if raw := getenv(EnvTimeout); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("invalid %s value %q", EnvTimeout, raw)
		}
		timeoutSec = parsed
	}

	return &Config{ServerURL: serverURL, TimeoutSec: timeoutSec}, nil
}

// Dir returns the platform config directory for corroscan.
func Dir() (string, error) {
	if testDir := os.Getenv(EnvConfigDir); testDir != "" {
		return testDir, nil
	}

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "corroscan"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "corroscan"), nil
	default:
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, "corroscan"), nil
	}
}

// LoadProfiles reads profiles.yaml. A missing file yields empty profiles.
func LoadProfiles() (*Profiles, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, profilesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &Profiles{Servers: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}

	profiles := &Profiles{}
	if err := yaml.Unmarshal(data, profiles); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	if profiles.Servers == nil {
		profiles.Servers = map[string]string{}
	}
	return profiles, nil
}

// SaveProfiles writes profiles.yaml, creating the config dir if needed.
func SaveProfiles(profiles *Profiles) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, profilesFile), data, 0600); err != nil {
		return fmt.Errorf("failed to write profiles: %w", err)
	}
	return nil
}
