// Package config provides YAML-based configuration loading for Switchboard.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Switchboard configuration, loaded from config.yaml.
type Config struct {
	BotToken      string          `yaml:"bot_token"`
	CommandPrefix string          `yaml:"command_prefix"`
	SelfURL       string          `yaml:"self_url"`
	AttachmentDir string          `yaml:"attachment_dir"`
	DB            DBConfig        `yaml:"db"`
	Relay         RelayConfig     `yaml:"relay"`
	Scheduler     SchedulerConfig `yaml:"scheduler"`
}

// DBConfig holds connection settings for the thread database. Driver is
// "sqlite" (default) or "mysql".
type DBConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
}

// RelayConfig holds the relay behavior toggles.
type RelayConfig struct {
	UseNicknames          bool   `yaml:"use_nicknames"`
	RelaySmallAttachments bool   `yaml:"relay_small_attachments"`
	SmallAttachmentLimit  int64  `yaml:"small_attachment_limit"`
	ReactOnSeen           bool   `yaml:"react_on_seen"`
	ReactOnSeenEmoji      string `yaml:"react_on_seen_emoji"`
}

// SchedulerConfig controls the deferred-transition poller.
type SchedulerConfig struct {
	PollIntervalSec int    `yaml:"poll_interval_sec"`
	OrphanSweepCron string `yaml:"orphan_sweep_cron"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.CommandPrefix == "" {
		c.CommandPrefix = "!"
	}
	if c.AttachmentDir == "" {
		c.AttachmentDir = "attachments"
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite"
	}
	if c.DB.Path == "" {
		c.DB.Path = "switchboard.db"
	}
	if c.DB.Host == "" {
		c.DB.Host = "127.0.0.1"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.Relay.SmallAttachmentLimit == 0 {
		c.Relay.SmallAttachmentLimit = 2 * 1024 * 1024
	}
	if c.Relay.ReactOnSeenEmoji == "" {
		c.Relay.ReactOnSeenEmoji = "✅"
	}
	if c.Scheduler.PollIntervalSec == 0 {
		c.Scheduler.PollIntervalSec = 10
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.BotToken == "" {
		errs = append(errs, "bot_token is required")
	}
	switch c.DB.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("db.driver must be sqlite or mysql, got %q", c.DB.Driver))
	}
	if c.DB.Driver == "mysql" && c.DB.Database == "" {
		errs = append(errs, "db.database is required for the mysql driver")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
