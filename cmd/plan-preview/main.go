// plan-preview runs one planning pass for a date and prints the result
// without touching the database or Telegram.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/aiprotips/tipsbot/internal/apifootball"
	"github.com/aiprotips/tipsbot/internal/candidates"
	"github.com/aiprotips/tipsbot/internal/pkg/config"
	"github.com/aiprotips/tipsbot/internal/pkg/logging"
	"github.com/aiprotips/tipsbot/internal/planner"
	"github.com/aiprotips/tipsbot/internal/stats"
	"github.com/aiprotips/tipsbot/internal/templates"
)

func main() {
	var configPath string
	var date string
	var showSkips bool
	flag.StringVar(&configPath, "config", "configs/config.yaml", "Path to configuration file")
	flag.StringVar(&date, "date", "", "Date to plan (YYYY-MM-DD, default today)")
	flag.BoolVar(&showSkips, "skips", false, "Print skipped candidates with reasons")
	flag.Parse()

	_ = godotenv.Load()

	logger := logging.SetupLogger("plan-preview", "warn")

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	loc := cfg.Location()
	if date == "" {
		date = time.Now().In(loc).Format("2006-01-02")
	}

	api := apifootball.NewClient(
		cfg.APIFootball.BaseURL,
		cfg.APIFootball.APIKey,
		cfg.Timezone,
		cfg.APIFootball.BookmakerID,
		cfg.APIFootball.Timeout,
	)
	statsEngine := stats.New(api, nil, cfg.Planner.StatsLastN)
	builder := candidates.NewBuilder(statsEngine, candidates.Config{
		RiskGapMin:     cfg.Planner.RiskGapMin,
		ContraUnderMax: cfg.Planner.ContraUnderMax,
		ContraOverMax:  cfg.Planner.ContraOverMax,
	}, logger)
	dayPlanner := planner.New(api, builder, cfg.Planner.MaxPerLeague, cfg.Schedule.WindowStart, loc, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	plan, err := dayPlanner.PlanDay(ctx, date)
	if err != nil {
		logger.Error("Planning failed", "date", date, "error", err)
		os.Exit(1)
	}

	if plan.Empty() {
		fmt.Printf("%s: nothing publishable (%d candidates skipped)\n", date, len(plan.Skips))
	} else {
		fmt.Printf("%s: %d slip(s)\n\n", date, len(plan.Slips))
		for _, slip := range plan.Slips {
			fmt.Println(templates.SlipMessage(slip, loc))
			fmt.Println()
		}
	}

	if showSkips {
		fmt.Printf("Skipped candidates: %d\n", len(plan.Skips))
		for _, s := range plan.Skips {
			fmt.Printf("  fixture %d %s: %s\n", s.FixtureID, s.Market, s.Reason)
		}
	}
}
