package apifootball

import (
	"testing"

	"github.com/aiprotips/tipsbot/internal/pkg/models"
)

func TestParseMarketBlock_MatchWinnerAndTotals(t *testing.T) {
	bets := []betBlock{
		{Name: "Match Winner", Values: []betValue{
			{Value: "Home", Odd: "1.57"},
			{Value: "Draw", Odd: "4.10"},
			{Value: "Away", Odd: "5.80"},
		}},
		{Name: "Goals Over/Under", Values: []betValue{
			{Value: "Over 1.5", Odd: "1.28"},
			{Value: "Under 3.5", Odd: "1.44"},
			{Value: "Over 4.5", Odd: "5.00"},
		}},
		{Name: "Both Teams To Score", Values: []betValue{
			{Value: "Yes", Odd: "1.80"},
			{Value: "No", Odd: "1.95"},
		}},
	}

	got := parseMarketBlock(bets)

	want := map[models.Market]float64{
		models.MarketHomeWin: 1.57,
		models.MarketDraw:    4.10,
		models.MarketAwayWin: 5.80,
		models.MarketOver15:  1.28,
		models.MarketUnder35: 1.44,
		models.MarketBTTSYes: 1.80,
		models.MarketBTTSNo:  1.95,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d markets, want %d: %v", len(got), len(want), got)
	}
	for m, price := range want {
		if got[m] != price {
			t.Errorf("%s = %.2f, want %.2f", m, got[m], price)
		}
	}
}

func TestParseMarketBlock_SkipsPartialMarkets(t *testing.T) {
	bets := []betBlock{
		{Name: "Match Winner 1st Half", Values: []betValue{{Value: "Home", Odd: "2.10"}}},
		{Name: "Goals Over/Under First Half", Values: []betValue{{Value: "Over 0.5", Odd: "1.30"}}},
	}
	if got := parseMarketBlock(bets); len(got) != 0 {
		t.Errorf("partial markets should be dropped, got %v", got)
	}
}

func TestParseMarketBlock_KeepsMinimumValidPrice(t *testing.T) {
	bets := []betBlock{
		{Name: "Goals Over/Under", Values: []betValue{{Value: "Over 1.5", Odd: "1.32"}}},
		{Name: "Total", Values: []betValue{{Value: "Over 1.5", Odd: "1.27"}}},
	}
	got := parseMarketBlock(bets)
	if got[models.MarketOver15] != 1.27 {
		t.Errorf("Over 1.5 = %.2f, want minimum 1.27", got[models.MarketOver15])
	}
}

func TestParseMarketBlock_DropsDegenerateAndBrokenOdds(t *testing.T) {
	bets := []betBlock{
		{Name: "Goals Over/Under", Values: []betValue{
			{Value: "Over 0.5", Odd: "1.05"}, // at/below validity floor
			{Value: "Over 1.5", Odd: "n/a"},
		}},
	}
	if got := parseMarketBlock(bets); len(got) != 0 {
		t.Errorf("degenerate odds should be dropped, got %v", got)
	}
}

func TestParseMarketBlock_DoubleChanceLabels(t *testing.T) {
	bets := []betBlock{
		{Name: "Double Chance", Values: []betValue{
			{Value: "Home/Draw", Odd: "1.18"},
			{Value: "Home/Away", Odd: "1.25"},
			{Value: "Draw/Away", Odd: "1.60"},
		}},
	}
	got := parseMarketBlock(bets)
	if got[models.MarketHomeOrDraw] != 1.18 || got[models.MarketHomeOrAway] != 1.25 || got[models.MarketAwayOrDraw] != 1.60 {
		t.Errorf("double chance parse wrong: %v", got)
	}
}
