package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aiprotips/tipsbot/internal/apifootball"
	"github.com/aiprotips/tipsbot/internal/candidates"
	"github.com/aiprotips/tipsbot/internal/live"
	"github.com/aiprotips/tipsbot/internal/pkg/config"
	"github.com/aiprotips/tipsbot/internal/pkg/logging"
	"github.com/aiprotips/tipsbot/internal/pkg/metrics"
	"github.com/aiprotips/tipsbot/internal/pkg/storage"
	"github.com/aiprotips/tipsbot/internal/planner"
	"github.com/aiprotips/tipsbot/internal/schedule"
	"github.com/aiprotips/tipsbot/internal/stats"
	"github.com/aiprotips/tipsbot/internal/telegram"
)

func main() {
	var configPath string
	var logLevel string
	flag.StringVar(&configPath, "config", "configs/config.yaml", "Path to configuration file")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	_ = godotenv.Load()

	logger := logging.SetupLogger("tipsbot", logLevel)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	loc := cfg.Location()

	pg, err := storage.NewPostgres(cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Error("Failed to initialize postgres", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	var ratesCache stats.Cache
	if cfg.Redis.Addr != "" {
		cache, err := storage.NewRatesCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.RatesTTL)
		if err != nil {
			logger.Error("Failed to initialize redis", "error", err)
			os.Exit(1)
		}
		defer cache.Close()
		ratesCache = cache
	} else {
		logger.Warn("Redis not configured, team rates are cached in memory only")
	}

	api := apifootball.NewClient(
		cfg.APIFootball.BaseURL,
		cfg.APIFootball.APIKey,
		cfg.Timezone,
		cfg.APIFootball.BookmakerID,
		cfg.APIFootball.Timeout,
	)

	statsEngine := stats.New(api, ratesCache, cfg.Planner.StatsLastN)
	builder := candidates.NewBuilder(statsEngine, candidates.Config{
		RiskGapMin:     cfg.Planner.RiskGapMin,
		ContraUnderMax: cfg.Planner.ContraUnderMax,
		ContraOverMax:  cfg.Planner.ContraOverMax,
	}, logger)
	dayPlanner := planner.New(api, builder, cfg.Planner.MaxPerLeague, cfg.Schedule.WindowStart, loc, logger)

	sink, err := telegram.NewSink(cfg.Telegram.BotToken, cfg.Telegram.ChannelID, cfg.Telegram.AdminID, logger)
	if err != nil {
		logger.Error("Failed to initialize telegram", "error", err)
		os.Exit(1)
	}

	morning := schedule.NewMorningJob(dayPlanner, pg, sink, loc,
		cfg.Planner.PlanningHour, cfg.Schedule.WindowStart, cfg.Schedule.SendLead, logger)
	publisher := schedule.NewPublisher(pg, sink, cfg.Schedule.FlushInterval, cfg.Schedule.MaxAttempts, logger)
	engine := live.NewEngine(pg, api, sink, loc,
		cfg.Live.PollInterval, cfg.Live.QuietFrom, cfg.Live.QuietTo, logger)
	watcher := live.NewWatcher(api, sink, loc,
		cfg.Live.PollInterval, cfg.Live.AlertFavoriteMax, cfg.Live.AlertMaxMinute,
		cfg.Live.AlertRecheck, cfg.Live.QuietFrom, cfg.Live.QuietTo, logger)
	commands := telegram.NewCommands(sink, cfg.Telegram.AdminID, pg, dayPlanner, morning, watcher, loc, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Metrics.Addr != "" {
		srv := metrics.StartServer(cfg.Metrics.Addr, pg.Ping)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("Metrics server started", "addr", cfg.Metrics.Addr)
	}

	go morning.Start(ctx)
	go publisher.Start(ctx)
	go engine.Start(ctx)
	go watcher.Start(ctx)
	go commands.Run(ctx)

	logger.Info("tipsbot started",
		"timezone", cfg.Timezone,
		"channel_id", cfg.Telegram.ChannelID,
		"planning_hour", cfg.Planner.PlanningHour)

	<-ctx.Done()
	logger.Info("Shutdown signal received, stopping")
}
