// ABOUTME: Application configuration stored as YAML at XDG paths
// ABOUTME: Layers defaults, the config file, a .env file, and FIELDFORCE_* environment overrides
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/harperreed/fieldforce/crm"
	"github.com/harperreed/fieldforce/models"
)

// CRM modes.
const (
	ModeMock = "mock"
	ModeLive = "live"
)

type Config struct {
	DatabasePath string      `yaml:"database_path"`
	ListenAddr   string      `yaml:"listen_addr"`
	Debug        bool        `yaml:"debug"`
	LogDir       string      `yaml:"log_dir"`
	CRM          CRMConfig   `yaml:"crm"`
	Agent        AgentConfig `yaml:"agent"`
	Fabricators  []string    `yaml:"fabricators"`
	Products     []string    `yaml:"products"`
	Sync         SyncConfig  `yaml:"sync"`
}

type CRMConfig struct {
	Mode         string        `yaml:"mode"` // mock, live
	InstanceURL  string        `yaml:"instance_url"`
	APIVersion   string        `yaml:"api_version"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret,omitempty"`
	AccessToken  string        `yaml:"access_token,omitempty"`
	Owner        string        `yaml:"owner"`
	Timeout      time.Duration `yaml:"timeout"`
	CacheToken   bool          `yaml:"cache_token"`
}

type AgentConfig struct {
	Name          string `yaml:"name"`
	Title         string `yaml:"title"`
	MonthlyTarget int    `yaml:"monthly_target"`
}

type SyncConfig struct {
	Interval    time.Duration `yaml:"interval"` // 0 disables the background worker
	MaxAttempts int           `yaml:"max_attempts"`
	BatchSize   int           `yaml:"batch_size"`
}

// Dir returns the XDG config directory for fieldforce.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "fieldforce")
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in configuration: mock CRM, data under XDG_DATA_HOME.
func Default() *Config {
	dataDir := filepath.Join(xdg.DataHome, "fieldforce")
	return &Config{
		DatabasePath: filepath.Join(dataDir, "fieldforce.db"),
		ListenAddr:   "127.0.0.1:8080",
		LogDir:       filepath.Join(xdg.StateHome, "fieldforce", "logs"),
		CRM: CRMConfig{
			Mode:       ModeMock,
			APIVersion: "v62.0",
			Owner:      "Sai Kiran",
			Timeout:    15 * time.Second,
			CacheToken: true,
		},
		Agent: AgentConfig{
			Name:          "Sai Kiran",
			Title:         "Field Sales Executive",
			MonthlyTarget: 30,
		},
		Fabricators: []string{
			"Rajesh Kumar",
			"Rohit Isor",
			"Sachin Gangadhar",
			"Arijit Rout",
			"Darshan Patil",
		},
		Products: append([]string(nil), models.DefaultProducts...),
		Sync: SyncConfig{
			Interval:    time.Minute,
			MaxAttempts: 5,
			BatchSize:   20,
		},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from path into the environment without
// replacing variables that are already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	strVars := map[string]*string{
		"FIELDFORCE_DB":                &c.DatabasePath,
		"FIELDFORCE_LISTEN":            &c.ListenAddr,
		"FIELDFORCE_LOG_DIR":           &c.LogDir,
		"FIELDFORCE_CRM_MODE":          &c.CRM.Mode,
		"FIELDFORCE_CRM_URL":           &c.CRM.InstanceURL,
		"FIELDFORCE_CRM_API_VERSION":   &c.CRM.APIVersion,
		"FIELDFORCE_CRM_CLIENT_ID":     &c.CRM.ClientID,
		"FIELDFORCE_CRM_CLIENT_SECRET": &c.CRM.ClientSecret,
		"FIELDFORCE_CRM_ACCESS_TOKEN":  &c.CRM.AccessToken,
		"FIELDFORCE_CRM_OWNER":         &c.CRM.Owner,
		"FIELDFORCE_AGENT_NAME":        &c.Agent.Name,
	}
	for key, dst := range strVars {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("FIELDFORCE_DEBUG"); v != "" {
		c.Debug = v == "true" || v == "1"
	}
	if v := os.Getenv("FIELDFORCE_SYNC_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FIELDFORCE_SYNC_INTERVAL: %w", err)
		}
		c.Sync.Interval = d
	}
	if v := os.Getenv("FIELDFORCE_MONTHLY_TARGET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FIELDFORCE_MONTHLY_TARGET: %w", err)
		}
		c.Agent.MonthlyTarget = n
	}
	return nil
}

// Validate reports the first setting that would prevent the app from running.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return errors.New("database_path is required")
	}
	switch c.CRM.Mode {
	case ModeMock:
	case ModeLive:
		if strings.TrimSpace(c.CRM.InstanceURL) == "" {
			return errors.New("crm.instance_url is required in live mode")
		}
		hasClient := c.CRM.ClientID != "" && c.CRM.ClientSecret != ""
		if !hasClient && c.CRM.AccessToken == "" {
			return errors.New("crm credentials are required in live mode: set client_id and client_secret or access_token")
		}
	default:
		return fmt.Errorf("unknown crm.mode %q (want %s or %s)", c.CRM.Mode, ModeMock, ModeLive)
	}
	if len(c.Fabricators) == 0 {
		return errors.New("at least one fabricator must be configured")
	}
	if c.Agent.MonthlyTarget < 0 {
		return errors.New("agent.monthly_target cannot be negative")
	}
	if c.Sync.Interval < 0 {
		return errors.New("sync.interval cannot be negative")
	}
	if c.Sync.MaxAttempts < 1 {
		return errors.New("sync.max_attempts must be at least 1")
	}
	if c.Sync.BatchSize < 1 {
		return errors.New("sync.batch_size must be at least 1")
	}
	return nil
}

// CRMClientConfig returns the settings for crm.NewClient.
func (c *Config) CRMClientConfig() crm.Config {
	cc := crm.Config{
		InstanceURL:  c.CRM.InstanceURL,
		APIVersion:   c.CRM.APIVersion,
		ClientID:     c.CRM.ClientID,
		ClientSecret: c.CRM.ClientSecret,
		AccessToken:  c.CRM.AccessToken,
		Timeout:      c.CRM.Timeout,
	}
	if c.CRM.CacheToken {
		cc.TokenCachePath = crm.TokenPath()
	}
	return cc
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	out.Fabricators = append([]string(nil), c.Fabricators...)
	out.Products = append([]string(nil), c.Products...)
	if out.CRM.ClientSecret != "" {
		out.CRM.ClientSecret = "********"
	}
	if out.CRM.AccessToken != "" {
		out.CRM.AccessToken = "********"
	}
	return &out
}

// Save writes the configuration to path with owner-only permissions.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
