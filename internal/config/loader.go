package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoadConfig loads and validates configuration from, in order of
// precedence: BOT_* environment variables, the YAML file at path, and
// built-in defaults. A missing config file is allowed; missing
// required values still fail validation.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		// Config file not found is okay, defaults and env remain.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers default values for optional parameters.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("classifier.action_threshold", 60)
	v.SetDefault("classifier.enrich_gate", 40)
	v.SetDefault("classifier.actionable", []string{"LEAD_SEARCH", "LEAD_QUESTION", "PARTNER_SERVICES"})

	v.SetDefault("throttle.min_dm_interval", 180*time.Second)
	v.SetDefault("throttle.hourly_dm_cap", 5)
	v.SetDefault("throttle.daily_dm_cap", 20)
	v.SetDefault("throttle.daily_invite_cap", 10)

	v.SetDefault("dedup.max_entries", 50000)
	v.SetDefault("dedup.message_ttl", 72*time.Hour)
	v.SetDefault("dedup.fingerprint_ttl", 12*time.Hour)

	v.SetDefault("enrichment.provider", "none")
	v.SetDefault("enrichment.model", "")
	v.SetDefault("enrichment.timeout", 20*time.Second)
	v.SetDefault("enrichment.temperature", 0.4)

	v.SetDefault("database.path", "leadwatch.db")
	v.SetDefault("state.dir", "state")

	v.SetDefault("scheduler.tasks", map[string]any{
		"dedup_sweep":     map[string]any{"enabled": true, "schedule": "0 */30 * * * *"},
		"counter_prune":   map[string]any{"enabled": true, "schedule": "0 15 3 * * *"},
		"sql_maintenance": map[string]any{"enabled": true, "schedule": "0 30 4 * * 0"},
	})
}
