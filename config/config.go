// config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	JoinGrant             = "grant"
	JoinGrantAndProvision = "grant-and-provision"
	FallbackDirectMessage = "dm"
	FallbackSkip          = "skip"
	defaultHistoryLimit   = 100
	maxHistoryLimit       = 200
	defaultCommandPrefix  = "!"
	defaultTimezone       = "Europe/Berlin"
	defaultHTTPAddr       = ":5000"
)

var defaultPaths = []string{"etc/bot.yaml", "/etc/training-bot/bot.yaml"}

type Config struct {
	Discord  DiscordConfig  `yaml:"discord"`
	Channels ChannelsConfig `yaml:"channels"`
	Roles    RolesConfig    `yaml:"roles"`
	Training TrainingConfig `yaml:"training"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Policy   PolicyConfig   `yaml:"policy"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Telegram TelegramConfig `yaml:"telegram"`
	Journal  JournalConfig  `yaml:"journal"`
	Commands CommandsConfig `yaml:"commands"`
}

type DiscordConfig struct {
	Token   string `yaml:"token"`
	GuildID string `yaml:"guild_id"`
}

type ChannelsConfig struct {
	Training     string `yaml:"training"`
	TestTraining string `yaml:"test_training"`
	Log          string `yaml:"log"`
	// PrivateCategory and ProbationCategory hold category channel ids.
	PrivateCategory   string `yaml:"private_category"`
	ProbationCategory string `yaml:"probation_category"`
}

type RolesConfig struct {
	Member       string `yaml:"member"`
	Sponsor      string `yaml:"sponsor"`
	Probationary string `yaml:"probationary"`
}

type TrainingDay struct {
	// Weekday is 0=Monday .. 6=Sunday.
	Weekday int    `yaml:"weekday"`
	Label   string `yaml:"label"`
}

type TrainingConfig struct {
	Days         []TrainingDay `yaml:"days"`
	HistoryLimit int           `yaml:"history_limit"`
	Timezone     string        `yaml:"timezone"`
	Announce     bool          `yaml:"announce"`
}

type Trigger struct {
	Enabled bool `yaml:"enabled"`
	// Weekday is 0=Monday .. 6=Sunday.
	Weekday int `yaml:"weekday"`
	Hour    int `yaml:"hour"`
	Minute  int `yaml:"minute"`
}

type ScheduleConfig struct {
	Reminder Trigger       `yaml:"reminder"`
	Poll     Trigger       `yaml:"poll"`
	Tick     time.Duration `yaml:"tick"`
}

type PolicyConfig struct {
	Join             string `yaml:"join"`
	ReminderFallback string `yaml:"reminder_fallback"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type TelegramConfig struct {
	Token     string `yaml:"token"`
	LogChatID int64  `yaml:"log_chat_id"`
}

type JournalConfig struct {
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

type CommandsConfig struct {
	Prefix string `yaml:"prefix"`
}

// Default returns the stock deployment settings without ids or secrets.
func Default() *Config {
	return &Config{
		Roles: RolesConfig{Member: "Pizzen", Sponsor: "VM", Probationary: "Probetraining"},
		Training: TrainingConfig{
			Days: []TrainingDay{
				{Weekday: 0, Label: "Montag"},
				{Weekday: 1, Label: "Dienstag"},
				{Weekday: 3, Label: "Donnerstag"},
			},
			HistoryLimit: defaultHistoryLimit,
			Timezone:     defaultTimezone,
		},
		Schedule: ScheduleConfig{
			Reminder: Trigger{Enabled: true, Weekday: 6, Hour: 12, Minute: 0},
			Poll:     Trigger{Enabled: false, Weekday: 5, Hour: 10, Minute: 0},
			Tick:     time.Minute,
		},
		Policy:   PolicyConfig{Join: JoinGrant, ReminderFallback: FallbackDirectMessage},
		HTTP:     HTTPConfig{Addr: defaultHTTPAddr},
		Log:      LogConfig{Level: "info", Console: true, MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 30},
		Journal:  JournalConfig{RetentionDays: 90},
		Commands: CommandsConfig{Prefix: defaultCommandPrefix},
	}
}

// LoadConfig reads .env, then the yaml file, then environment overrides.
// An empty path searches the default locations and tolerates their absence.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env not loaded, using process environment", "err", err)
	}

	cfg := Default()
	paths := defaultPaths
	if path != "" {
		paths = []string{path}
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			if path != "" {
				return nil, fmt.Errorf("read config %s: %w", p, err)
			}
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", p, err)
		}
		break
	}

	applyEnv(cfg)
	cfg.normalize()
	return cfg, nil
}

func applyEnv(c *Config) {
	envOverride(&c.Discord.Token, "TOKEN")
	envOverride(&c.Discord.Token, "DISCORD_TOKEN")
	envOverride(&c.Discord.GuildID, "DISCORD_GUILD_ID")
	envOverride(&c.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	envOverrideInt64(&c.Telegram.LogChatID, "TELEGRAM_LOG_CHAT_ID")
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.File, "LOG_FILE")
	envOverride(&c.HTTP.Addr, "HTTP_ADDR")
	envOverride(&c.Journal.Path, "JOURNAL_PATH")
}

func (c *Config) normalize() {
	if c.Training.HistoryLimit <= 0 {
		c.Training.HistoryLimit = defaultHistoryLimit
	}
	if c.Training.HistoryLimit > maxHistoryLimit {
		c.Training.HistoryLimit = maxHistoryLimit
	}
	if c.Schedule.Tick <= 0 {
		c.Schedule.Tick = time.Minute
	}
	if c.Commands.Prefix == "" {
		c.Commands.Prefix = defaultCommandPrefix
	}
	if c.Training.Timezone == "" {
		c.Training.Timezone = defaultTimezone
	}
}

// Validate reports the first problem that keeps the bot from running.
func (c *Config) Validate() error {
	switch {
	case c.Discord.Token == "":
		return errors.New("discord token is not set (TOKEN or DISCORD_TOKEN)")
	case c.Discord.GuildID == "":
		return errors.New("discord guild id is not set")
	case c.Channels.Training == "":
		return errors.New("training channel is not set")
	case len(c.Training.Days) == 0:
		return errors.New("no training days configured")
	case c.Roles.Member == "":
		return errors.New("member role name is not set")
	}
	seen := map[int]bool{}
	for _, d := range c.Training.Days {
		if d.Weekday < 0 || d.Weekday > 6 {
			return fmt.Errorf("training day %q: weekday %d out of range 0..6", d.Label, d.Weekday)
		}
		if seen[d.Weekday] {
			return fmt.Errorf("training day %q: weekday %d configured twice", d.Label, d.Weekday)
		}
		if d.Label == "" {
			return fmt.Errorf("training day %d has no label", d.Weekday)
		}
		seen[d.Weekday] = true
	}
	for name, t := range map[string]Trigger{"reminder": c.Schedule.Reminder, "poll": c.Schedule.Poll} {
		if t.Weekday < 0 || t.Weekday > 6 || t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
			return fmt.Errorf("schedule %s: invalid time %d %02d:%02d", name, t.Weekday, t.Hour, t.Minute)
		}
	}
	switch c.Policy.Join {
	case JoinGrant, JoinGrantAndProvision:
	default:
		return fmt.Errorf("unknown join policy %q", c.Policy.Join)
	}
	switch c.Policy.ReminderFallback {
	case FallbackDirectMessage, FallbackSkip:
	default:
		return fmt.Errorf("unknown reminder fallback %q", c.Policy.ReminderFallback)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location loads the civil timezone triggers and poll dates are computed in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Training.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Training.Timezone, err)
	}
	return loc, nil
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}
