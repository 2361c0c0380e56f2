// ABOUTME: Remember-me prefill storage for the login screen
// ABOUTME: Persists the last email and role in the XDG config directory

package remember

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Prefill is what the login form restores on the next launch. Only the
// email and role are kept; session persistence stays with the identity
// service.
type Prefill struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Store manages the remember-me prefill file
type Store struct {
	configDir string
}

// New creates a Store with the given config directory
func New(configDir string) *Store {
	return &Store{configDir: configDir}
}

// DefaultConfigDir returns the default config directory following XDG spec
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "schooltrack")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "schooltrack")
}

// configFile returns the path to the prefill JSON
func (s *Store) configFile() string {
	return filepath.Join(s.configDir, "remember.json")
}

// Load reads the stored prefill. A missing or invalid file yields an
// empty prefill rather than an error; the login form just starts blank.
func (s *Store) Load() Prefill {
	data, err := os.ReadFile(s.configFile())
	if err != nil {
		return Prefill{}
	}

	var p Prefill
	if err := json.Unmarshal(data, &p); err != nil {
		return Prefill{}
	}
	return p
}

// Save writes the prefill to disk
func (s *Store) Save(p Prefill) error {
	if err := os.MkdirAll(s.configDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.configFile(), data, 0600)
}

// Clear removes the stored prefill; called when the user signs in with
// the remember box unchecked.
func (s *Store) Clear() error {
	err := os.Remove(s.configFile())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
