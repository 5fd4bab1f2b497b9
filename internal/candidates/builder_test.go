package candidates

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aiprotips/tipsbot/internal/pkg/models"
)

type fakeFeatures struct {
	feats map[int64]models.FixtureFeatures
}

func (f *fakeFeatures) FeaturesForFixture(_ context.Context, id int64) (models.FixtureFeatures, error) {
	feats, ok := f.feats[id]
	if !ok {
		return models.FixtureFeatures{}, fmt.Errorf("no stats for fixture %d", id)
	}
	return feats, nil
}

func neutralRates() models.TeamRates {
	return models.TeamRates{
		Matches: 5, FormRate: 0.50, GoalsFor: 1.2, GoalsAgst: 1.1,
		TotalGoals: 2.3, Over15: 0.65, Over25: 0.50, Under35: 0.70,
		BTTS: 0.50, CleanSheet: 0.30,
	}
}

func testConfig() Config {
	return Config{RiskGapMin: 0.08, ContraUnderMax: 0.60, ContraOverMax: 0.60}
}

func entry(id int64, markets map[models.Market]float64) models.OddsEntry {
	return models.OddsEntry{
		FixtureID: id,
		Country:   "Italy", League: "Serie A",
		Home: "Como", Away: "Torino",
		Kickoff: time.Date(2026, 3, 7, 15, 0, 0, 0, time.UTC),
		Markets: markets,
	}
}

func buildOne(t *testing.T, e models.OddsEntry) ([]models.Candidate, []Skip) {
	t.Helper()
	src := &fakeFeatures{feats: map[int64]models.FixtureFeatures{
		e.FixtureID: {Home: neutralRates(), Away: neutralRates()},
	}}
	b := NewBuilder(src, testConfig(), nil)
	return b.BuildDay(context.Background(), []models.OddsEntry{e})
}

func TestBuildDay_ProbabilitiesClampedAndEdgeConsistent(t *testing.T) {
	cands, _ := buildOne(t, entry(1, map[models.Market]float64{
		models.MarketOver05:  1.07,
		models.MarketOver15:  1.30,
		models.MarketUnder35: 1.40,
	}))
	if len(cands) == 0 {
		t.Fatal("expected candidates")
	}
	for _, c := range cands {
		if c.PImplied < 0.01 || c.PImplied > 0.99 {
			t.Errorf("%s p_implied %.4f out of bounds", c.Market, c.PImplied)
		}
		if c.PAdjusted < 0.01 || c.PAdjusted > 0.99 {
			t.Errorf("%s p_adjusted %.4f out of bounds", c.Market, c.PAdjusted)
		}
		if !approx(c.Edge, c.PAdjusted-c.PImplied) {
			t.Errorf("%s edge %.4f != p_adj - p_imp", c.Market, c.Edge)
		}
		if c.Edge > maxAdjustment+1e-9 || c.Edge < -maxAdjustment-1e-9 {
			t.Errorf("%s edge %.4f exceeds adjustment bound", c.Market, c.Edge)
		}
	}
}

func TestBuildDay_CoinFlipVetoesOutrights(t *testing.T) {
	// 2.50 vs 2.60: implied gap ~0.015, well under 0.08
	cands, skips := buildOne(t, entry(1, map[models.Market]float64{
		models.MarketHomeWin: 2.50,
		models.MarketAwayWin: 2.60,
		models.MarketOver15:  1.30,
	}))
	for _, c := range cands {
		if c.Market == models.MarketHomeWin || c.Market == models.MarketAwayWin {
			t.Errorf("outright %s should be vetoed in a coin-flip match", c.Market)
		}
	}
	found := 0
	for _, s := range skips {
		if s.Reason == SkipCoinFlip {
			found++
		}
	}
	if found != 2 {
		t.Errorf("expected 2 coin-flip skips, got %d", found)
	}
}

func TestBuildDay_ClearFavoriteKeepsOutright(t *testing.T) {
	cands, _ := buildOne(t, entry(1, map[models.Market]float64{
		models.MarketHomeWin: 1.50,
		models.MarketAwayWin: 6.00,
	}))
	var got bool
	for _, c := range cands {
		if c.Market == models.MarketHomeWin {
			got = true
		}
	}
	if !got {
		t.Error("clear favorite outright should survive the veto")
	}
}

func TestBuildDay_BTTSContradictionVetoes(t *testing.T) {
	// Under 2.5 at 1.50 implies 0.67 > 0.60: market says low-scoring
	_, skips := buildOne(t, entry(1, map[models.Market]float64{
		models.MarketBTTSYes: 1.90,
		models.MarketUnder25: 1.50,
	}))
	var got bool
	for _, s := range skips {
		if s.Reason == SkipLowScoringBTTS && s.Market == models.MarketBTTSYes {
			got = true
		}
	}
	if !got {
		t.Error("BTTS-Yes should be vetoed when the Under market implies a low-scoring game")
	}
}

func TestBuildDay_NoGoalContradictionVetoes(t *testing.T) {
	_, skips := buildOne(t, entry(1, map[models.Market]float64{
		models.MarketBTTSNo: 2.10,
		models.MarketOver25: 1.40, // implies 0.71 > 0.60
	}))
	var got bool
	for _, s := range skips {
		if s.Reason == SkipHighScoringNG && s.Market == models.MarketBTTSNo {
			got = true
		}
	}
	if !got {
		t.Error("No-Goal should be vetoed when the Over market implies a high-scoring game")
	}
}

func TestBuildDay_FixtureWithoutStatsIsSkippedEntirely(t *testing.T) {
	src := &fakeFeatures{feats: map[int64]models.FixtureFeatures{}}
	b := NewBuilder(src, testConfig(), nil)
	cands, skips := b.BuildDay(context.Background(), []models.OddsEntry{
		entry(1, map[models.Market]float64{models.MarketOver15: 1.30}),
	})
	if len(cands) != 0 {
		t.Errorf("expected no candidates, got %d", len(cands))
	}
	if len(skips) != 1 || skips[0].Reason != SkipNoStats {
		t.Errorf("expected one no_stats skip, got %v", skips)
	}
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
