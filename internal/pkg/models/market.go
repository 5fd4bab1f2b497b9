package models

// Market is the closed set of canonical markets the bot trades in.
// Raw bookmaker labels are parsed into this enum once, at the ingestion
// boundary; everything downstream works with these values only.
type Market string

const (
	MarketHomeWin      Market = "1"
	MarketDraw         Market = "X"
	MarketAwayWin      Market = "2"
	MarketHomeOrDraw   Market = "1X"
	MarketHomeOrAway   Market = "12"
	MarketAwayOrDraw   Market = "X2"
	MarketOver05       Market = "Over 0.5"
	MarketOver15       Market = "Over 1.5"
	MarketOver25       Market = "Over 2.5"
	MarketUnder25      Market = "Under 2.5"
	MarketUnder35      Market = "Under 3.5"
	MarketBTTSYes      Market = "Goal"
	MarketBTTSNo       Market = "No Goal"
	MarketHomeToScore  Market = "Home to Score"
	MarketAwayToScore  Market = "Away to Score"
)

// Category groups markets for slip diversification.
type Category string

const (
	CategoryOutright    Category = "outright"
	CategoryDoubleCh    Category = "double_chance"
	CategoryTotalsOver  Category = "totals_over"
	CategoryTotalsUnder Category = "totals_under"
	CategoryBTTS        Category = "btts"
	CategoryTeamGoal    Category = "team_goal"
)

// CandidateMarkets is the fixed set the candidate builder evaluates per fixture.
var CandidateMarkets = []Market{
	MarketHomeWin, MarketDraw, MarketAwayWin,
	MarketHomeOrDraw, MarketHomeOrAway, MarketAwayOrDraw,
	MarketOver05, MarketOver15, MarketOver25,
	MarketUnder25, MarketUnder35,
	MarketBTTSYes, MarketBTTSNo,
}

// safeOrder ranks markets from safest to riskiest; used as the final
// tie-breaker when the planner picks between equally scored candidates.
var safeOrder = map[Market]int{
	MarketOver05:      0,
	MarketHomeOrAway:  1,
	MarketHomeOrDraw:  2,
	MarketAwayOrDraw:  3,
	MarketOver15:      4,
	MarketUnder35:     5,
	MarketBTTSYes:     6,
	MarketOver25:      7,
	MarketUnder25:     8,
	MarketBTTSNo:      9,
	MarketHomeToScore: 10,
	MarketAwayToScore: 11,
	MarketHomeWin:     12,
	MarketAwayWin:     13,
	MarketDraw:        14,
}

// ParseMarket maps a canonical label back to the enum. Returns false for
// anything outside the closed set.
func ParseMarket(s string) (Market, bool) {
	m := Market(s)
	if _, ok := safeOrder[m]; ok {
		return m, true
	}
	return "", false
}

func (m Market) String() string {
	return string(m)
}

// Category returns the diversification bucket the market belongs to.
func (m Market) Category() Category {
	switch m {
	case MarketHomeWin, MarketDraw, MarketAwayWin:
		return CategoryOutright
	case MarketHomeOrDraw, MarketHomeOrAway, MarketAwayOrDraw:
		return CategoryDoubleCh
	case MarketOver05, MarketOver15, MarketOver25:
		return CategoryTotalsOver
	case MarketUnder25, MarketUnder35:
		return CategoryTotalsUnder
	case MarketBTTSYes, MarketBTTSNo:
		return CategoryBTTS
	case MarketHomeToScore, MarketAwayToScore:
		return CategoryTeamGoal
	default:
		return CategoryOutright
	}
}

// SafeRank returns the safety priority of the market (lower is safer).
func (m Market) SafeRank() int {
	if r, ok := safeOrder[m]; ok {
		return r
	}
	return len(safeOrder)
}

// TotalsLine returns the goals line for over/under markets.
func (m Market) TotalsLine() (float64, bool) {
	switch m {
	case MarketOver05:
		return 0.5, true
	case MarketOver15:
		return 1.5, true
	case MarketOver25, MarketUnder25:
		return 2.5, true
	case MarketUnder35:
		return 3.5, true
	}
	return 0, false
}
