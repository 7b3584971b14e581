package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	xdgAppName = "lifeos"
	configFile = "config.json"

	DefaultCalendar         = "Tasks"
	DefaultUserID           = "local"
	DefaultFocusCount       = 3
	DefaultArchiveAfterDays = 30
	DefaultLLMBaseURL       = "https://openrouter.ai/api/v1"
	DefaultLLMModel         = "qwen/qwen3-coder-next"
	DefaultLLMTimeout       = 20

	envDB     = "LIFEOS_DB"
	envAPIKey = "OPENROUTER_API_KEY"
	envModel  = "OPENROUTER_MODEL"
)

type LLM struct {
	BaseURL        string `json:"base_url,omitempty"`
	Model          string `json:"model,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	// APIKey is only ever read from the environment.
	APIKey string `json:"-"`
}

type Config struct {
	Calendar            string `json:"calendar"`
	DBPath              string `json:"db_path,omitempty"`
	UserID              string `json:"user_id"`
	Timezone            string `json:"timezone,omitempty"`
	FocusCount          int    `json:"focus_count"`
	ArchiveAfterDays    int    `json:"archive_after_days"`
	AllowDuplicateDaily bool   `json:"allow_duplicate_daily"`
	DailyBatchesFile    string `json:"daily_batches_file,omitempty"`
	LLM                 LLM    `json:"llm"`
}

// Default returns a config with every field at its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Calendar == "" {
		c.Calendar = DefaultCalendar
	}
	if c.UserID == "" {
		c.UserID = DefaultUserID
	}
	if c.FocusCount <= 0 {
		c.FocusCount = DefaultFocusCount
	}
	if c.ArchiveAfterDays <= 0 {
		c.ArchiveAfterDays = DefaultArchiveAfterDays
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = DefaultLLMBaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = DefaultLLMTimeout
	}
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(envDB)); v != "" {
		c.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv(envModel)); v != "" {
		c.LLM.Model = v
	}
	c.LLM.APIKey = strings.TrimSpace(os.Getenv(envAPIKey))
}

// Location resolves Timezone, falling back to the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ArchiveAfter is the retention window for completed tasks.
func (c *Config) ArchiveAfter() time.Duration {
	return time.Duration(c.ArchiveAfterDays) * 24 * time.Hour
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// Dir is ~/.config/lifeos, where the config, database and OAuth files live.
func Dir() (string, error) {
	xdgHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(xdgHome, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads path, fills defaults and applies environment overrides. A
// missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

func SaveTo(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
