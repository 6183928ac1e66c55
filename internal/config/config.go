// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPollInterval      = 120 * time.Second
	DefaultRateLimitCooldown = 900 * time.Second
	DefaultBatchSize         = 5

	// The users/:id/tweets endpoint rejects max_results outside [5,100].
	minBatchSize = 5
	maxBatchSize = 100
)

type RuntimeConfig struct {
	Dev    bool
	DryRun bool
}

type BotConfig struct {
	Token        string  `yaml:"token"`
	ChatID       int64   `yaml:"chat_id"`
	ExtraChatIDs []int64 `yaml:"extra_chat_ids"`
	// per-chat sends allowed per minute when redis is configured
	SendsPerMinute int `yaml:"sends_per_minute"`
}

type TwitterConfig struct {
	BearerToken string        `yaml:"bearer_token"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
}

type RelayConfig struct {
	Users             []string      `yaml:"users"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	RateLimitCooldown time.Duration `yaml:"rate_limit_cooldown"`
	BatchSize         int           `yaml:"batch_size"`
	StartupMessage    *bool         `yaml:"startup_message"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port int `yaml:"port"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Config struct {
	Bot     BotConfig     `yaml:"bot"`
	Twitter TwitterConfig `yaml:"twitter"`
	Relay   RelayConfig   `yaml:"relay"`
	Log     LogConfig     `yaml:"log"`
	Admin   AdminConfig   `yaml:"admin"`
	Redis   RedisConfig   `yaml:"redis"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the optional YAML file at path, loads envFile into the
// process environment (existing variables win) and overlays the environment.
func LoadConfig(path, envFile string, dev bool) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			// environment-only deployments have no yaml file
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := strings.TrimSpace(getenv("TWITTER_BEARER_TOKEN")); v != "" {
		cfg.Twitter.BearerToken = v
	}
	if v := strings.TrimSpace(getenv("TWITTER_API_BASE_URL")); v != "" {
		cfg.Twitter.BaseURL = v
	}
	if v := strings.TrimSpace(getenv("TELEGRAM_BOT_TOKEN")); v != "" {
		cfg.Bot.Token = v
	}
	if v := strings.TrimSpace(getenv("TELEGRAM_CHAT_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Bot.ChatID = id
	}
	if v := getenv("TELEGRAM_EXTRA_CHAT_IDS"); strings.TrimSpace(v) != "" {
		ids, err := parseChatIDs(v)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_EXTRA_CHAT_IDS: %w", err)
		}
		cfg.Bot.ExtraChatIDs = ids
	}
	if v := getenv("USERS_TO_MONITOR"); strings.TrimSpace(v) != "" {
		cfg.Relay.Users = SplitList(v)
	}
	if v := strings.TrimSpace(getenv("POLL_INTERVAL")); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid POLL_INTERVAL: %w", err)
		}
		cfg.Relay.PollInterval = d
	}
	if v := strings.TrimSpace(getenv("RATE_LIMIT_COOLDOWN")); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_COOLDOWN: %w", err)
		}
		cfg.Relay.RateLimitCooldown = d
	}
	if v := strings.TrimSpace(getenv("BATCH_SIZE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BATCH_SIZE: %w", err)
		}
		cfg.Relay.BatchSize = n
	}
	if v := strings.TrimSpace(getenv("LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(getenv("LOG_FORMAT")); v != "" {
		cfg.Log.Format = v
	}
	if v := strings.TrimSpace(getenv("ADMIN_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ADMIN_PORT: %w", err)
		}
		cfg.Admin.Port = port
	}
	if v := strings.TrimSpace(getenv("REDIS_URL")); v != "" {
		cfg.Redis.URL = v
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Relay.PollInterval <= 0 {
		cfg.Relay.PollInterval = DefaultPollInterval
	}
	if cfg.Relay.RateLimitCooldown <= 0 {
		cfg.Relay.RateLimitCooldown = DefaultRateLimitCooldown
	}
	switch {
	case cfg.Relay.BatchSize <= 0:
		cfg.Relay.BatchSize = DefaultBatchSize
	case cfg.Relay.BatchSize < minBatchSize:
		cfg.Relay.BatchSize = minBatchSize
	case cfg.Relay.BatchSize > maxBatchSize:
		cfg.Relay.BatchSize = maxBatchSize
	}
	if cfg.Twitter.Timeout <= 0 {
		cfg.Twitter.Timeout = 30 * time.Second
	}
	if cfg.Bot.SendsPerMinute <= 0 {
		cfg.Bot.SendsPerMinute = 20
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	users := cfg.Relay.Users[:0]
	for _, u := range cfg.Relay.Users {
		u = strings.TrimPrefix(strings.TrimSpace(u), "@")
		if u != "" {
			users = append(users, u)
		}
	}
	cfg.Relay.Users = users
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	if c.Twitter.BearerToken == "" {
		return errors.New("twitter.bearer_token (TWITTER_BEARER_TOKEN) is required")
	}
	if c.Bot.Token == "" {
		return errors.New("bot.token (TELEGRAM_BOT_TOKEN) is required")
	}
	if c.Bot.ChatID == 0 {
		return errors.New("bot.chat_id (TELEGRAM_CHAT_ID) is required")
	}
	if len(c.Relay.Users) == 0 {
		return errors.New("relay.users (USERS_TO_MONITOR) must list at least one username")
	}
	return nil
}

func (c *Config) StartupMessageEnabled() bool {
	return c.Relay.StartupMessage == nil || *c.Relay.StartupMessage
}

// Destinations returns the primary chat followed by the extra chats, without
// duplicates and in configured order.
func (c *Config) Destinations() []int64 {
	seen := make(map[int64]struct{}, 1+len(c.Bot.ExtraChatIDs))
	out := make([]int64, 0, 1+len(c.Bot.ExtraChatIDs))
	for _, id := range append([]int64{c.Bot.ChatID}, c.Bot.ExtraChatIDs...) {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SplitList splits a comma separated value, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseChatIDs(s string) ([]int64, error) {
	parts := SplitList(s)
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("chat id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseDuration accepts Go durations ("2m") and bare seconds ("120").
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}
