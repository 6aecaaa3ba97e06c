package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/aluiziolira/go-scrape-opinions/models"
	"gopkg.in/yaml.v3"
)

// SessionEntry is one entry of the sessions file.
type SessionEntry struct {
	Name           string `yaml:"name"`
	Remote         bool   `yaml:"remote"`
	Static         bool   `yaml:"static"`
	OS             string `yaml:"os"`
	OSVersion      string `yaml:"os_version"`
	Browser        string `yaml:"browser"`
	BrowserVersion string `yaml:"browser_version"`
	Device         string `yaml:"device"`
}

// SessionsFile is the layout of the YAML sessions file.
type SessionsFile struct {
	Sessions []SessionEntry `yaml:"sessions"`
}

// DefaultSessions mirrors the stock run: one local Chrome plus five profiles
// on the remote grid.
func DefaultSessions() []SessionEntry {
	return []SessionEntry{
		{Name: "Local_Chrome"},
		{Name: "Windows_Chrome", Remote: true, OS: "Windows", OSVersion: "10", Browser: "Chrome", BrowserVersion: "latest"},
		{Name: "Mac_Firefox", Remote: true, OS: "OS X", OSVersion: "Ventura", Browser: "Firefox", BrowserVersion: "latest"},
		{Name: "iPhone_Safari", Remote: true, Device: "iPhone 14", OSVersion: "16", Browser: "Safari"},
		{Name: "Samsung_Chrome", Remote: true, Device: "Samsung Galaxy S22", OSVersion: "12.0", Browser: "Chrome"},
		{Name: "Windows_Edge", Remote: true, OS: "Windows", OSVersion: "10", Browser: "Edge", BrowserVersion: "latest"},
	}
}

// LoadSessions reads session entries from a YAML file. An empty path yields
// DefaultSessions.
func LoadSessions(path string) ([]SessionEntry, error) {
	if path == "" {
		return DefaultSessions(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sessions file: %w", err)
	}

	var file SessionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sessions file: %w", err)
	}
	if len(file.Sessions) == 0 {
		return nil, fmt.Errorf("sessions file %s declares no sessions", path)
	}
	return file.Sessions, nil
}

// SessionConfig converts the entry into its target variant. A device implies
// a mobile profile.
func (e SessionEntry) SessionConfig() (models.SessionConfig, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return models.SessionConfig{}, fmt.Errorf("session name is required")
	}

	var target models.Target
	switch {
	case e.Remote && e.Static:
		return models.SessionConfig{}, fmt.Errorf("session %s: remote and static are mutually exclusive", name)
	case e.Remote && e.Device != "":
		target = models.RemoteMobileTarget{
			Device:    e.Device,
			OSVersion: e.OSVersion,
			Browser:   e.Browser,
		}
	case e.Remote:
		if e.Browser == "" {
			return models.SessionConfig{}, fmt.Errorf("session %s: remote desktop profile needs a browser", name)
		}
		target = models.RemoteDesktopTarget{
			OS:             e.OS,
			OSVersion:      e.OSVersion,
			Browser:        e.Browser,
			BrowserVersion: e.BrowserVersion,
		}
	case e.Static:
		target = models.StaticTarget{}
	default:
		target = models.LocalTarget{}
	}

	return models.SessionConfig{Name: name, Target: target}, nil
}

// BuildSessions converts entries, enforcing unique names and filtering by
// group (local, remote, or all).
func BuildSessions(entries []SessionEntry, group string) ([]models.SessionConfig, error) {
	seen := make(map[string]struct{}, len(entries))
	out := make([]models.SessionConfig, 0, len(entries))
	for _, entry := range entries {
		cfg, err := entry.SessionConfig()
		if err != nil {
			return nil, err
		}
		if _, ok := seen[cfg.Name]; ok {
			return nil, fmt.Errorf("duplicate session name %q", cfg.Name)
		}
		seen[cfg.Name] = struct{}{}

		switch group {
		case "local":
			if cfg.Remote() {
				continue
			}
		case "remote":
			if !cfg.Remote() {
				continue
			}
		}
		out = append(out, cfg)
	}
	return out, nil
}
