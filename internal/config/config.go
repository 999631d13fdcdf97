// Package config provides configuration loading, validation, and
// management for leadwatch. It handles reading from YAML files,
// environment variable overrides, default values, and validating
// configuration parameters.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config defines the application configuration for all components:
// logging, monitoring accounts, classification thresholds, outbound
// throttling, deduplication, enrichment, persistence, and scheduled
// tasks.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Watch      WatchConfig      `mapstructure:"watch"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Throttle   ThrottleConfig   `mapstructure:"throttle"`
	Dedup      DedupConfig      `mapstructure:"dedup"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	Database   DatabaseConfig   `mapstructure:"database"`
	State      StateConfig      `mapstructure:"state"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// AccountConfig describes one monitoring account.
type AccountConfig struct {
	Name  string `mapstructure:"name"  validate:"required"`
	Token string `mapstructure:"token" validate:"required"`
}

// TelegramConfig carries transport credentials and the operator
// surface: where lead notifications go and who may issue commands.
type TelegramConfig struct {
	Accounts       []AccountConfig `mapstructure:"accounts" validate:"min=1,dive"`
	OperatorChatID int64           `mapstructure:"operator_chat_id" validate:"required"`
	AdminIDs       []int64         `mapstructure:"admin_ids"`
	AdminHandles   []string        `mapstructure:"admin_handles"`
	InviteGroup    string          `mapstructure:"invite_group"`
}

// WatchConfig lists the monitored channel handles, resolved once at
// startup to warm the chat cache.
type WatchConfig struct {
	Channels []string `mapstructure:"channels"`
}

// ClassifierConfig holds the scoring thresholds and policy knobs.
// ActionThreshold gates lead creation; EnrichGate is the lower score
// at which the enrichment provider is consulted. Priority overrides
// the tie-break ordering; Actionable lists the categories that may
// become leads.
type ClassifierConfig struct {
	ActionThreshold int      `mapstructure:"action_threshold" validate:"min=0,max=100"`
	EnrichGate      int      `mapstructure:"enrich_gate"      validate:"min=0,max=100"`
	Actionable      []string `mapstructure:"actionable"`
	Priority        []string `mapstructure:"priority"`
}

// ThrottleConfig configures per-account outbound ceilings.
type ThrottleConfig struct {
	MinDMInterval  time.Duration `mapstructure:"min_dm_interval"  validate:"min=0"`
	HourlyDMCap    int           `mapstructure:"hourly_dm_cap"    validate:"min=0"`
	DailyDMCap     int           `mapstructure:"daily_dm_cap"     validate:"min=0"`
	DailyInviteCap int           `mapstructure:"daily_invite_cap" validate:"min=0"`
}

// DedupConfig bounds the seen/dedup gate.
type DedupConfig struct {
	MaxEntries     int           `mapstructure:"max_entries"     validate:"min=0"`
	MessageTTL     time.Duration `mapstructure:"message_ttl"     validate:"min=0"`
	FingerprintTTL time.Duration `mapstructure:"fingerprint_ttl" validate:"min=0"`
}

// EnrichmentConfig selects and configures the optional enrichment
// provider layered on top of the rule classifier.
type EnrichmentConfig struct {
	Provider    string        `mapstructure:"provider" validate:"oneof=none gemini openai"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"min=0"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
}

// DatabaseConfig locates the SQLite message archive.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// StateConfig locates the JSON state files (leads, seen keys,
// counters, favorites, analytics).
type StateConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// TaskConfig enables one scheduled task with a cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// Validate checks the configuration beyond what struct tags express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if len(c.Telegram.AdminIDs) == 0 && len(c.Telegram.AdminHandles) == 0 {
		return fmt.Errorf("invalid configuration: at least one admin id or admin handle is required")
	}
	if c.Enrichment.Provider != "none" && c.Enrichment.APIKey == "" {
		return fmt.Errorf("invalid configuration: enrichment provider %q requires an api key", c.Enrichment.Provider)
	}
	if c.Classifier.EnrichGate > c.Classifier.ActionThreshold {
		return fmt.Errorf("invalid configuration: enrich_gate (%d) must not exceed action_threshold (%d)",
			c.Classifier.EnrichGate, c.Classifier.ActionThreshold)
	}
	return nil
}
