package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds CLI configuration
type Config struct {
	ConfigFile string
	EnvFiles   []string
	ServerURL  string
	Token      string
	TokenFile  string
	Output     string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		EnvFiles: []string{".env.local", ".env"},
		Output:   "text",
	}
}

// applyEnv fills unset client settings from the environment, which may
// have been populated from dotenv files
func (c *Config) applyEnv() {
	if c.ServerURL == "" {
		c.ServerURL = getEnvOrDefault("CLUBHOUSE_SERVER", "http://localhost:8080")
	}
	if c.Token == "" {
		c.Token = os.Getenv("CLUBHOUSE_TOKEN")
	}
	if c.TokenFile == "" {
		c.TokenFile = getEnvOrDefault("CLUBHOUSE_TOKEN_FILE", defaultTokenFile())
	}
}

// LoadToken loads the token from file if not already set
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // No token file is fine
		}
		return err
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken saves the token to the token file
func (c *Config) SaveToken(token string) error {
	c.Token = token

	dir := filepath.Dir(c.TokenFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(c.TokenFile, []byte(token), 0600)
}

// ClearToken removes the saved token
func (c *Config) ClearToken() error {
	c.Token = ""
	if err := os.Remove(c.TokenFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// loadDotEnv loads each file that exists. Variables already set are kept,
// so earlier files take precedence over later ones.
func loadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".clubhouse/token"
	}
	return filepath.Join(home, ".clubhouse", "token")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
