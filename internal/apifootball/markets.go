package apifootball

import (
	"strconv"
	"strings"

	"github.com/aiprotips/tipsbot/internal/pkg/models"
)

// minValidOdd is the floor below which a price carries no information
// for publication (fees eat it).
const minValidOdd = 1.06

// partialTokens mark half/period markets, which are never traded.
var partialTokens = []string{"half", "period", "1st", "2nd"}

func isPartial(name string) bool {
	for _, tok := range partialTokens {
		if strings.Contains(name, tok) {
			return true
		}
	}
	return false
}

// put records a price for a market, keeping the minimum across duplicate
// bet blocks and dropping anything at or below the validity floor.
func put(out map[models.Market]float64, m models.Market, raw string) {
	odd, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return
	}
	if odd <= minValidOdd {
		return
	}
	if cur, ok := out[m]; !ok || odd < cur {
		out[m] = odd
	}
}

// parseMarketBlock reduces a bookmaker's bet blocks to the canonical
// market set: full-time 1X2, double chance, goal totals and BTTS.
// Everything else, including partial markets, is ignored.
func parseMarketBlock(bets []betBlock) map[models.Market]float64 {
	out := make(map[models.Market]float64)
	for _, bet := range bets {
		name := strings.ToLower(strings.TrimSpace(bet.Name))
		if isPartial(name) {
			continue
		}

		switch name {
		case "match winner", "winner":
			for _, v := range bet.Values {
				val := strings.ToLower(v.Value)
				switch {
				case strings.HasPrefix(val, "home") || val == "1":
					put(out, models.MarketHomeWin, v.Odd)
				case strings.HasPrefix(val, "away") || val == "2":
					put(out, models.MarketAwayWin, v.Odd)
				case strings.HasPrefix(val, "draw") || val == "x":
					put(out, models.MarketDraw, v.Odd)
				}
			}

		case "double chance":
			for _, v := range bet.Values {
				val := strings.ToLower(v.Value)
				switch {
				case strings.Contains(val, "home/draw") || val == "1x" || val == "home or draw":
					put(out, models.MarketHomeOrDraw, v.Odd)
				case strings.Contains(val, "home/away") || val == "12" || strings.Contains(val, "home or away"):
					put(out, models.MarketHomeOrAway, v.Odd)
				case strings.Contains(val, "draw/away") || val == "x2" || val == "draw or away" || val == "away or draw":
					put(out, models.MarketAwayOrDraw, v.Odd)
				}
			}

		case "goals over/under", "total":
			for _, v := range bet.Values {
				val := strings.ReplaceAll(strings.ToLower(v.Value), " ", "")
				switch val {
				case "over0.5", "o0.5":
					put(out, models.MarketOver05, v.Odd)
				case "over1.5", "o1.5":
					put(out, models.MarketOver15, v.Odd)
				case "over2.5", "o2.5":
					put(out, models.MarketOver25, v.Odd)
				case "under2.5", "u2.5":
					put(out, models.MarketUnder25, v.Odd)
				case "under3.5", "u3.5":
					put(out, models.MarketUnder35, v.Odd)
				}
			}

		case "both teams to score", "goal/no goal":
			for _, v := range bet.Values {
				val := strings.ToLower(v.Value)
				if strings.Contains(val, "yes") {
					put(out, models.MarketBTTSYes, v.Odd)
				} else if strings.Contains(val, "no") {
					put(out, models.MarketBTTSNo, v.Odd)
				}
			}
		}
	}
	return out
}
