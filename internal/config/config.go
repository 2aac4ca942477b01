// Package config provides YAML-based configuration loading for the Bwengye server.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level server configuration, loaded from bwengye.yaml.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Chat      ChatConfig      `yaml:"chat"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Notify    NotifyConfig    `yaml:"notify"`
	Models    []ModelSeed     `yaml:"models"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig holds connection settings for the MySQL store.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"` // usually injected via BWENGYE_DB_PASSWORD
}

// AuthConfig points at the external identity provider.
type AuthConfig struct {
	UserInfoURL string `yaml:"userinfo_url"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// OpenAIConfig holds upstream inference provider settings. The API key is
// read from OPENAI_API_KEY, never from the config file.
type OpenAIConfig struct {
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// ChatConfig controls conversation orchestration.
type ChatConfig struct {
	SystemPreamble      string `yaml:"system_preamble"`
	HistoryLimit        int    `yaml:"history_limit"`
	TitleMaxLen         int    `yaml:"title_max_len"`
	MaxCompletionTokens int    `yaml:"max_completion_tokens"`
}

// AnalyticsConfig controls the analytics sink and retention sweep.
type AnalyticsConfig struct {
	RetentionDays int    `yaml:"retention_days"`
	SweepSchedule string `yaml:"sweep_schedule"` // 5-field cron expression
}

// NotifyConfig selects the ops alert channels. Tokens come from
// SLACK_BOT_TOKEN / DISCORD_BOT_TOKEN.
type NotifyConfig struct {
	Slack   SlackNotifyConfig   `yaml:"slack"`
	Discord DiscordNotifyConfig `yaml:"discord"`
}

// SlackNotifyConfig holds the Slack alert channel.
type SlackNotifyConfig struct {
	Channel string `yaml:"channel"`
}

// DiscordNotifyConfig holds the Discord alert channel.
type DiscordNotifyConfig struct {
	Channel string `yaml:"channel"`
}

// ModelSeed describes one catalog entry seeded at migration time.
type ModelSeed struct {
	Name          string                 `yaml:"name"`
	Provider      string                 `yaml:"provider"`
	ModelType     string                 `yaml:"model_type"`
	Capabilities  []string               `yaml:"capabilities"`
	MaxTokens     int                    `yaml:"max_tokens"`
	CostPerToken  float64                `yaml:"cost_per_token"`
	Active        bool                   `yaml:"active"`
	Configuration map[string]interface{} `yaml:"configuration"`
}

// DefaultSystemPreamble is the assistant persona prepended to every context
// window when the config does not override it.
const DefaultSystemPreamble = "You are Bwengye AI, an advanced AI assistant designed for African contexts. " +
	"You are intelligent, helpful, and culturally aware. You can communicate in English, Luganda, " +
	"Swahili, and other African languages. You excel at reasoning, coding, research, and providing " +
	"contextually relevant assistance."

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
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "bwengye"
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if pw := os.Getenv("BWENGYE_DB_PASSWORD"); pw != "" {
		c.Database.Password = pw
	}
	if c.Auth.TimeoutSec == 0 {
		c.Auth.TimeoutSec = 10
	}
	if c.OpenAI.TimeoutSec == 0 {
		c.OpenAI.TimeoutSec = 120
	}
	if c.Chat.SystemPreamble == "" {
		c.Chat.SystemPreamble = DefaultSystemPreamble
	}
	if c.Chat.HistoryLimit == 0 {
		c.Chat.HistoryLimit = 50
	}
	if c.Chat.TitleMaxLen == 0 {
		c.Chat.TitleMaxLen = 50
	}
	if c.Chat.MaxCompletionTokens == 0 {
		c.Chat.MaxCompletionTokens = 4000
	}
	if c.Analytics.RetentionDays == 0 {
		c.Analytics.RetentionDays = 90
	}
	if c.Analytics.SweepSchedule == "" {
		c.Analytics.SweepSchedule = "0 3 * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Auth.UserInfoURL == "" {
		errs = append(errs, "auth.userinfo_url is required")
	}
	if c.Chat.HistoryLimit < 1 {
		errs = append(errs, "chat.history_limit must be positive")
	}
	for i, m := range c.Models {
		if m.Name == "" {
			errs = append(errs, fmt.Sprintf("models[%d].name is required", i))
		}
		switch m.ModelType {
		case "chat", "image", "audio":
		default:
			errs = append(errs, fmt.Sprintf("models[%d].model_type must be chat, image or audio", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
