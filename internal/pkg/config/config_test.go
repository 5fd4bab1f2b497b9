package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
telegram:
  bot_token: "token"
  channel_id: -100123
  admin_id: 42
api_football:
  api_key: "key"
postgres:
  dsn: "postgres://localhost/tipsbot"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHANNEL_ID", "TELEGRAM_ADMIN_ID",
		"API_FOOTBALL_KEY", "POSTGRES_DSN", "REDIS_ADDR",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Timezone != "Europe/Rome" {
		t.Errorf("timezone = %s", cfg.Timezone)
	}
	if cfg.APIFootball.BookmakerID != 8 {
		t.Errorf("bookmaker = %d", cfg.APIFootball.BookmakerID)
	}
	if cfg.Planner.MaxPerLeague != 3 || cfg.Planner.StatsLastN != 5 || cfg.Planner.PlanningHour != 8 {
		t.Errorf("planner defaults: %+v", cfg.Planner)
	}
	if cfg.Live.QuietFrom != 0 || cfg.Live.QuietTo != 8 {
		t.Errorf("quiet window defaults: %+v", cfg.Live)
	}
	if cfg.Schedule.SendLead != 3*time.Hour || cfg.Schedule.WindowStart != 8 {
		t.Errorf("schedule defaults: %+v", cfg.Schedule)
	}
	if cfg.Location() == nil {
		t.Error("location must load for the default timezone")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("TELEGRAM_CHANNEL_ID", "-100999")

	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.BotToken != "env-token" {
		t.Errorf("token = %s, want env value", cfg.Telegram.BotToken)
	}
	if cfg.Telegram.ChannelID != -100999 {
		t.Errorf("channel = %d, want env value", cfg.Telegram.ChannelID)
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		yaml string
	}{
		{"missing token", `
telegram: {channel_id: 1, admin_id: 1}
api_football: {api_key: k}
postgres: {dsn: d}
`},
		{"missing api key", `
telegram: {bot_token: t, channel_id: 1, admin_id: 1}
postgres: {dsn: d}
`},
		{"missing dsn", `
telegram: {bot_token: t, channel_id: 1, admin_id: 1}
api_football: {api_key: k}
`},
		{"bad timezone", `
timezone: "Mars/Olympus"
telegram: {bot_token: t, channel_id: 1, admin_id: 1}
api_football: {api_key: k}
postgres: {dsn: d}
`},
	}
	for _, tt := range tests {
		if _, err := Load(writeConfig(t, tt.yaml)); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}
