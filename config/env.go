package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envUsername  = "BROWSERSTACK_USERNAME"
	envAccessKey = "BROWSERSTACK_ACCESS_KEY"
)

// Credentials authenticate against the remote browser grid.
type Credentials struct {
	Username  string
	AccessKey string
}

// Complete reports whether both values are present.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.AccessKey != ""
}

// CredentialsFromEnv reads the grid credentials from the environment.
func CredentialsFromEnv() Credentials {
	user, _ := EnvString(envUsername)
	key, _ := EnvString(envAccessKey)
	return Credentials{Username: user, AccessKey: key}
}

// LoadDotEnv loads variables from the given files without overriding the
// environment. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// EnvString returns the trimmed value of key and whether it was set.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvDuration parses key as a time.Duration ("1s", "500ms").
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}
