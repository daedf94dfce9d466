package core

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Hard-coded fallbacks applied when the .env file carries no default.
const (
	FallbackLocation   = "nbg1"
	FallbackServerType = "cpx11"
)

// Settings holds the persisted defaults and the API credential, loaded once
// at startup and passed by value into the resolver and executor.
type Settings struct {
	Token             string
	DefaultLocation   string
	DefaultServerType string
	DefaultSSHKey     string
	DefaultTags       string

	// Loaded reports whether a settings file was actually read; Path is
	// the file consulted either way.
	Loaded bool
	Path   string
}

// LoadSettings reads dotenv-style KEY=VALUE pairs from path (default ".env").
// A missing file is not an error; a malformed one is.
func LoadSettings(path string) (Settings, error) {
	if path == "" {
		path = ".env"
	}
	s := Settings{
		DefaultLocation:   FallbackLocation,
		DefaultServerType: FallbackServerType,
		Path:              path,
	}
	if _, err := os.Stat(path); err != nil {
		return s, nil
	}
	vals, err := godotenv.Read(path)
	if err != nil {
		return s, fmt.Errorf("load %s: %w", path, err)
	}
	s.Loaded = true
	s.Token = vals["HETZNER_TOKEN"]
	if v := vals["DEFAULT_LOCATION"]; v != "" {
		s.DefaultLocation = v
	}
	if v := vals["DEFAULT_SERVER_TYPE"]; v != "" {
		s.DefaultServerType = v
	}
	s.DefaultSSHKey = vals["DEFAULT_SSH_KEY_NAME"]
	s.DefaultTags = vals["DEFAULT_TAGS"]
	return s, nil
}
