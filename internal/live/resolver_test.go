package live

import (
	"testing"

	"github.com/aiprotips/tipsbot/internal/pkg/models"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		market   models.Market
		gh, ga   int
		finished bool
		want     models.Result
	}{
		{"over 0.5 resolves early", models.MarketOver05, 1, 0, false, models.ResultWon},
		{"over 2.5 pending in play", models.MarketOver25, 1, 1, false, models.ResultPending},
		{"over 2.5 lost only at full time", models.MarketOver25, 1, 1, true, models.ResultLost},
		{"under 3.5 won at full time with three goals", models.MarketUnder35, 2, 1, true, models.ResultWon},
		{"under 2.5 lost on same state", models.MarketUnder25, 2, 1, true, models.ResultLost},
		{"under never settles in play", models.MarketUnder25, 0, 0, false, models.ResultPending},
		{"home win", models.MarketHomeWin, 2, 0, true, models.ResultWon},
		{"home win void on draw", models.MarketHomeWin, 1, 1, true, models.ResultVoid},
		{"away win void on draw", models.MarketAwayWin, 0, 0, true, models.ResultVoid},
		{"away win lost", models.MarketAwayWin, 2, 1, true, models.ResultLost},
		{"outright pending in play even when ahead", models.MarketHomeWin, 3, 0, false, models.ResultPending},
		{"1X won on draw", models.MarketHomeOrDraw, 1, 1, true, models.ResultWon},
		{"1X lost on away win", models.MarketHomeOrDraw, 0, 1, true, models.ResultLost},
		{"X2 won on away win", models.MarketAwayOrDraw, 0, 2, true, models.ResultWon},
		{"12 lost on draw", models.MarketHomeOrAway, 2, 2, true, models.ResultLost},
		{"12 won on any winner", models.MarketHomeOrAway, 0, 1, true, models.ResultWon},
		{"btts yes", models.MarketBTTSYes, 1, 2, true, models.ResultWon},
		{"btts yes lost on clean sheet", models.MarketBTTSYes, 3, 0, true, models.ResultLost},
		{"btts yes waits for full time", models.MarketBTTSYes, 1, 1, false, models.ResultPending},
		{"btts no won", models.MarketBTTSNo, 2, 0, true, models.ResultWon},
		{"home to score resolves early", models.MarketHomeToScore, 1, 0, false, models.ResultWon},
		{"away to score lost at full time", models.MarketAwayToScore, 2, 0, true, models.ResultLost},
	}
	for _, tt := range tests {
		if got := Resolve(tt.market, tt.gh, tt.ga, tt.finished); got != tt.want {
			t.Errorf("%s: Resolve(%s, %d-%d, finished=%v) = %s, want %s",
				tt.name, tt.market, tt.gh, tt.ga, tt.finished, got, tt.want)
		}
	}
}

func TestResolve_Idempotent(t *testing.T) {
	// Re-running the resolver on the same state must not flap.
	first := Resolve(models.MarketOver15, 2, 0, false)
	second := Resolve(models.MarketOver15, 2, 0, false)
	if first != second || first != models.ResultWon {
		t.Errorf("resolver flapped: %s then %s", first, second)
	}
}
