// Package candidates turns per-fixture market quotes into scored
// candidates: implied probability, a bounded statistical adjustment,
// and the resulting edge. Risky self-contradictory picks are vetoed
// with typed skip reasons.
package candidates

import (
	"context"
	"log/slog"

	"github.com/aiprotips/tipsbot/internal/pkg/metrics"
	"github.com/aiprotips/tipsbot/internal/pkg/models"
	"github.com/aiprotips/tipsbot/internal/stats"
)

// maxAdjustment bounds how far team statistics may pull a probability
// away from the bookmaker's price.
const maxAdjustment = 0.12

// SkipReason says why a (fixture, market) pair produced no candidate.
type SkipReason string

const (
	SkipNoQuote        SkipReason = "no_quote"
	SkipDegenerate     SkipReason = "degenerate_price"
	SkipNoStats        SkipReason = "no_stats"
	SkipCoinFlip       SkipReason = "coin_flip"
	SkipLowScoringBTTS SkipReason = "low_scoring_btts"
	SkipHighScoringNG  SkipReason = "high_scoring_nogoal"
)

// Skip is one rejected (fixture, market) pair.
type Skip struct {
	FixtureID int64
	Market    models.Market
	Reason    SkipReason
}

// Config holds the risk-veto thresholds.
type Config struct {
	RiskGapMin     float64 // min |p(1) - p(2)| before an outright pick is allowed
	ContraUnderMax float64 // BTTS-Yes vetoed when implied P(Under 2.5) exceeds this
	ContraOverMax  float64 // No-Goal vetoed when implied P(Over 2.5) exceeds this
}

// FeaturesSource provides team rates per fixture.
type FeaturesSource interface {
	FeaturesForFixture(ctx context.Context, fixtureID int64) (models.FixtureFeatures, error)
}

type Builder struct {
	stats FeaturesSource
	cfg   Config
	log   *slog.Logger
}

func NewBuilder(statsSource FeaturesSource, cfg Config, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{stats: statsSource, cfg: cfg, log: log}
}

// BuildDay evaluates every canonical market of every entry. Fixtures
// without statistics are skipped entirely; per-market vetoes are
// reported in the skip list.
func (b *Builder) BuildDay(ctx context.Context, entries []models.OddsEntry) ([]models.Candidate, []Skip) {
	var out []models.Candidate
	var skips []Skip

	record := func(s Skip) {
		skips = append(skips, s)
		metrics.CandidatesSkipped.WithLabelValues(string(s.Reason)).Inc()
	}

	for _, entry := range entries {
		feats, err := b.stats.FeaturesForFixture(ctx, entry.FixtureID)
		if err != nil {
			b.log.Warn("skipping fixture without stats", "fixture_id", entry.FixtureID, "error", err)
			record(Skip{FixtureID: entry.FixtureID, Reason: SkipNoStats})
			continue
		}

		for _, market := range models.CandidateMarkets {
			cand, reason := b.evaluate(entry, market, feats)
			if reason != "" {
				if reason != SkipNoQuote {
					record(Skip{FixtureID: entry.FixtureID, Market: market, Reason: reason})
				}
				continue
			}
			out = append(out, cand)
		}
	}
	return out, skips
}

func (b *Builder) evaluate(entry models.OddsEntry, market models.Market, feats models.FixtureFeatures) (models.Candidate, SkipReason) {
	price, ok := entry.Markets[market]
	if !ok {
		return models.Candidate{}, SkipNoQuote
	}
	pImp := impliedProb(price)
	if pImp <= 0 {
		return models.Candidate{}, SkipDegenerate
	}

	if reason := b.veto(market, entry.Markets); reason != "" {
		return models.Candidate{}, reason
	}

	adj := adjustment(market, entry.Markets, feats)
	pAdj := stats.Clamp(pImp+adj, 0.01, 0.99)

	return models.Candidate{
		FixtureID: entry.FixtureID,
		League:    entry.LeagueLabel(),
		Home:      entry.Home,
		Away:      entry.Away,
		Kickoff:   entry.Kickoff,
		Market:    market,
		Price:     price,
		PImplied:  pImp,
		PAdjusted: pAdj,
		Edge:      pAdj - pImp,
	}, ""
}

// veto rejects picks that contradict what the market itself prices in.
func (b *Builder) veto(market models.Market, quotes map[models.Market]float64) SkipReason {
	switch market {
	case models.MarketHomeWin, models.MarketAwayWin:
		if strengthGap(quotes) < b.cfg.RiskGapMin {
			return SkipCoinFlip
		}
	case models.MarketBTTSYes:
		if impliedProb(quotes[models.MarketUnder25]) > b.cfg.ContraUnderMax {
			return SkipLowScoringBTTS
		}
	case models.MarketBTTSNo:
		if impliedProb(quotes[models.MarketOver25]) > b.cfg.ContraOverMax {
			return SkipHighScoringNG
		}
	}
	return ""
}

func impliedProb(price float64) float64 {
	if price > 1.001 {
		return stats.Clamp(1.0/price, 0.01, 0.99)
	}
	return 0
}

// strengthGap estimates how one-sided the match is from the outright prices.
func strengthGap(quotes map[models.Market]float64) float64 {
	p1 := impliedProb(quotes[models.MarketHomeWin])
	p2 := impliedProb(quotes[models.MarketAwayWin])
	if p1 > p2 {
		return p1 - p2
	}
	return p2 - p1
}

func favoriteIsHome(quotes map[models.Market]float64) bool {
	return impliedProb(quotes[models.MarketHomeWin]) >= impliedProb(quotes[models.MarketAwayWin])
}

func avg(a, b float64) float64 {
	return (a + b) / 2
}

// adjustment nudges the implied probability from team rates, bounded to
// keep the model close to bookmaker pricing.
func adjustment(market models.Market, quotes map[models.Market]float64, feats models.FixtureFeatures) float64 {
	h, a := feats.Home, feats.Away
	totAvg := avg(h.TotalGoals, a.TotalGoals)
	bttsAvg := avg(h.BTTS, a.BTTS)
	csAvg := avg(h.CleanSheet, a.CleanSheet)
	gap := strengthGap(quotes)
	favHome := favoriteIsHome(quotes)

	var adj float64
	switch market {
	case models.MarketOver05:
		adj = 0.02*(totAvg-2.3) + 0.02*(bttsAvg-0.55)
	case models.MarketOver15:
		adj = 0.04*(avg(h.Over15, a.Over15)-0.60) + 0.03*(totAvg-2.4) + 0.02*(bttsAvg-0.55)
	case models.MarketOver25:
		adj = 0.05*(avg(h.Over25, a.Over25)-0.50) + 0.03*(totAvg-2.6) + 0.02*(bttsAvg-0.55)
	case models.MarketUnder25:
		adj = 0.05*(0.50-avg(h.Over25, a.Over25)) + 0.03*(2.5-totAvg) + 0.02*(0.55-bttsAvg)
	case models.MarketUnder35:
		adj = 0.05*(avg(h.Under35, a.Under35)-0.60) + 0.03*(3.0-totAvg) + 0.02*(0.55-bttsAvg)
	case models.MarketBTTSYes:
		adj = 0.06*(bttsAvg-0.50) + 0.03*(totAvg-2.5) - 0.02*(csAvg-0.30)
	case models.MarketBTTSNo:
		adj = 0.06*(csAvg-0.30) + 0.03*(0.55-bttsAvg) + 0.02*(gap-0.12)
	case models.MarketHomeOrDraw:
		adj = 0.05*(h.FormRate-0.50) + 0.03*(gap-0.12) - 0.02*(a.FormRate-0.50)
		if !favHome {
			adj *= 0.5
		}
	case models.MarketAwayOrDraw:
		adj = 0.05*(a.FormRate-0.50) + 0.03*(gap-0.12) - 0.02*(h.FormRate-0.50)
		if favHome {
			adj *= 0.5
		}
	case models.MarketHomeWin:
		adj = 0.07*(h.FormRate-0.50) + 0.04*(gap-0.12) - 0.03*(a.FormRate-0.50)
	case models.MarketAwayWin:
		adj = 0.07*(a.FormRate-0.50) + 0.04*(gap-0.12) - 0.03*(h.FormRate-0.50)
	default:
		// X and 12 carry no statistical opinion
		adj = 0
	}
	return stats.Clamp(adj, -maxAdjustment, maxAdjustment)
}
