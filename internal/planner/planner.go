// Package planner assembles the day plan: it filters the day's odds
// entries to whitelisted leagues and daytime kickoffs, builds candidates,
// and packages them into slips via whole-day optimization.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aiprotips/tipsbot/internal/candidates"
	"github.com/aiprotips/tipsbot/internal/leagues"
	"github.com/aiprotips/tipsbot/internal/pkg/metrics"
	"github.com/aiprotips/tipsbot/internal/pkg/models"
)

// EntriesSource is the slice of the odds provider the planner needs.
type EntriesSource interface {
	EntriesByDate(ctx context.Context, date string) ([]models.OddsEntry, error)
}

// CandidateBuilder turns entries into scored candidates.
type CandidateBuilder interface {
	BuildDay(ctx context.Context, entries []models.OddsEntry) ([]models.Candidate, []candidates.Skip)
}

type Planner struct {
	src          EntriesSource
	builder      CandidateBuilder
	formats      map[models.Format]FormatSpec
	maxPerLeague int
	windowStart  int // local hour before which kickoffs are ignored
	loc          *time.Location
	log          *slog.Logger
}

func New(src EntriesSource, builder CandidateBuilder, maxPerLeague, windowStart int, loc *time.Location, log *slog.Logger) *Planner {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	if windowStart <= 0 {
		windowStart = 8
	}
	return &Planner{
		src:          src,
		builder:      builder,
		formats:      DefaultFormats(),
		maxPerLeague: maxPerLeague,
		windowStart:  windowStart,
		loc:          loc,
		log:          log,
	}
}

// DayPlan is the planner's output for one trading date.
type DayPlan struct {
	Date  string
	Slips []*models.Slip
	Skips []candidates.Skip
}

// Empty reports whether the day produced nothing publishable.
func (p *DayPlan) Empty() bool {
	return len(p.Slips) == 0
}

// PlanDay builds the plan for a date (YYYY-MM-DD in the publication
// timezone). A thin day yields an empty plan, not an error.
func (p *Planner) PlanDay(ctx context.Context, date string) (*DayPlan, error) {
	metrics.PlannerRuns.Inc()

	entries, err := p.src.EntriesByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("entries for %s: %w", date, err)
	}
	entries = p.filterEntries(entries)
	p.log.Info("planning day", "date", date, "eligible_fixtures", len(entries))

	cands, skips := p.builder.BuildDay(ctx, entries)
	tickets := ChooseBestPack(cands, p.formats, p.maxPerLeague)

	plan := &DayPlan{Date: date, Skips: skips}
	for _, t := range tickets {
		slip, err := toSlip(t, date)
		if err != nil {
			// a ticket violating slip invariants is a planner bug; drop it loudly
			p.log.Error("ticket rejected by slip validation", "format", t.Spec.Format, "error", err)
			continue
		}
		plan.Slips = append(plan.Slips, slip)
		metrics.SlipsPlanned.Inc()
	}
	p.log.Info("day planned", "date", date, "slips", len(plan.Slips), "candidates", len(cands), "skipped", len(skips))
	return plan, nil
}

// filterEntries keeps whitelisted leagues with kickoffs inside the
// local publishing day (window start to midnight).
func (p *Planner) filterEntries(entries []models.OddsEntry) []models.OddsEntry {
	var out []models.OddsEntry
	for _, e := range entries {
		if !leagues.Allowed(e.Country, e.League) {
			continue
		}
		if h := e.Kickoff.In(p.loc).Hour(); h < p.windowStart {
			continue
		}
		out = append(out, e)
	}
	return out
}

func toSlip(t Ticket, date string) (*models.Slip, error) {
	legs := make([]models.Leg, 0, len(t.Legs))
	for _, c := range t.Legs {
		legs = append(legs, models.Leg{
			FixtureID:   c.FixtureID,
			League:      c.League,
			Home:        c.Home,
			Away:        c.Away,
			Kickoff:     c.Kickoff,
			Market:      c.Market,
			Price:       c.Price,
			Probability: c.PAdjusted,
			Result:      models.ResultPending,
		})
	}
	return models.NewSlip(t.Spec.Format, date, legs)
}
