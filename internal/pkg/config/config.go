package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Timezone    string            `yaml:"timezone"` // publication timezone, e.g. Europe/Rome
	Telegram    TelegramConfig    `yaml:"telegram"`
	APIFootball APIFootballConfig `yaml:"api_football"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Redis       RedisConfig       `yaml:"redis"`
	Planner     PlannerConfig     `yaml:"planner"`
	Live        LiveConfig        `yaml:"live"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type TelegramConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID int64  `yaml:"channel_id"`
	AdminID   int64  `yaml:"admin_id"`
}

type APIFootballConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	BookmakerID int           `yaml:"bookmaker_id"` // reference bookmaker, bet365 = 8
	Timeout     time.Duration `yaml:"timeout"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"` // empty disables the cache
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	RatesTTL time.Duration `yaml:"rates_ttl"`
}

type PlannerConfig struct {
	RiskGapMin      float64 `yaml:"risk_gap_min"`      // coin-flip veto: min |p_home - p_away|
	ContraUnderMax  float64 `yaml:"contra_under_max"`  // BTTS-Yes veto when implied P(Under 2.5) exceeds this
	ContraOverMax   float64 `yaml:"contra_over_max"`   // No-Goal veto when implied P(Over 2.5) exceeds this
	MaxPerLeague    int     `yaml:"max_per_league"`    // per-day cap across the whole plan
	StatsLastN      int     `yaml:"stats_last_n"`      // finished matches per team for rates
	PlanningHour    int     `yaml:"planning_hour"`     // local hour the morning job fires
}

type LiveConfig struct {
	PollInterval     time.Duration `yaml:"poll_interval"`
	QuietFrom        int           `yaml:"quiet_from"` // local hour, inclusive
	QuietTo          int           `yaml:"quiet_to"`   // local hour, exclusive
	AlertFavoriteMax float64       `yaml:"alert_favorite_max"` // pre-match price cap for a strong favorite
	AlertMaxMinute   int           `yaml:"alert_max_minute"`
	AlertRecheck     time.Duration `yaml:"alert_recheck"`
}

type ScheduleConfig struct {
	FlushInterval time.Duration `yaml:"flush_interval"`
	SendLead      time.Duration `yaml:"send_lead"`   // publish this long before first kickoff
	WindowStart   int           `yaml:"window_start"` // never publish before this local hour
	MaxAttempts   int           `yaml:"max_attempts"` // failures before surfacing to the operator
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the side server
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnv()
	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyEnv lets secrets come from the environment instead of the yaml file.
func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHANNEL_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChannelID = id
		}
	}
	if v := os.Getenv("TELEGRAM_ADMIN_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.AdminID = id
		}
	}
	if v := os.Getenv("API_FOOTBALL_KEY"); v != "" {
		c.APIFootball.APIKey = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

func (c *Config) applyDefaults() {
	if c.Timezone == "" {
		c.Timezone = "Europe/Rome"
	}
	if c.APIFootball.BaseURL == "" {
		c.APIFootball.BaseURL = "https://v3.football.api-sports.io"
	}
	if c.APIFootball.BookmakerID == 0 {
		c.APIFootball.BookmakerID = 8
	}
	if c.APIFootball.Timeout == 0 {
		c.APIFootball.Timeout = 25 * time.Second
	}
	if c.Redis.RatesTTL == 0 {
		c.Redis.RatesTTL = 6 * time.Hour
	}
	if c.Planner.RiskGapMin == 0 {
		c.Planner.RiskGapMin = 0.08
	}
	if c.Planner.ContraUnderMax == 0 {
		c.Planner.ContraUnderMax = 0.60
	}
	if c.Planner.ContraOverMax == 0 {
		c.Planner.ContraOverMax = 0.60
	}
	if c.Planner.MaxPerLeague == 0 {
		c.Planner.MaxPerLeague = 3
	}
	if c.Planner.StatsLastN == 0 {
		c.Planner.StatsLastN = 5
	}
	if c.Planner.PlanningHour == 0 {
		c.Planner.PlanningHour = 8
	}
	if c.Live.PollInterval == 0 {
		c.Live.PollInterval = 60 * time.Second
	}
	if c.Live.QuietTo == 0 {
		c.Live.QuietTo = 8
	}
	if c.Live.AlertFavoriteMax == 0 {
		c.Live.AlertFavoriteMax = 1.26
	}
	if c.Live.AlertMaxMinute == 0 {
		c.Live.AlertMaxMinute = 20
	}
	if c.Live.AlertRecheck == 0 {
		c.Live.AlertRecheck = 60 * time.Second
	}
	if c.Schedule.FlushInterval == 0 {
		c.Schedule.FlushInterval = 30 * time.Second
	}
	if c.Schedule.SendLead == 0 {
		c.Schedule.SendLead = 3 * time.Hour
	}
	if c.Schedule.WindowStart == 0 {
		c.Schedule.WindowStart = 8
	}
	if c.Schedule.MaxAttempts == 0 {
		c.Schedule.MaxAttempts = 5
	}
}

func (c *Config) validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is required")
	}
	if c.Telegram.ChannelID == 0 {
		return fmt.Errorf("telegram channel id is required")
	}
	if c.Telegram.AdminID == 0 {
		return fmt.Errorf("telegram admin id is required")
	}
	if c.APIFootball.APIKey == "" {
		return fmt.Errorf("api-football key is required")
	}
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres DSN is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the publication timezone. Config validation guarantees
// it loads.
func (c *Config) Location() *time.Location {
	loc, _ := time.LoadLocation(c.Timezone)
	return loc
}
