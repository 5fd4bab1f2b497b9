// Package live settles legs and slips against live fixture state and
// emits progress and result notifications exactly once.
package live

import "github.com/aiprotips/tipsbot/internal/pkg/models"

// Resolve maps a market and a fixture state onto a leg result.
//
// Over-style and team-to-score markets may resolve WON before full time
// once the goal condition is guaranteed. Everything LOST or VOID waits
// for the final whistle, so a transient scoreline never settles a leg
// negatively. Undecided combinations stay PENDING.
func Resolve(market models.Market, gh, ga int, finished bool) models.Result {
	tot := gh + ga

	switch market {
	case models.MarketOver05:
		return overResult(tot, 1, finished)
	case models.MarketOver15:
		return overResult(tot, 2, finished)
	case models.MarketOver25:
		return overResult(tot, 3, finished)

	case models.MarketUnder25:
		return underResult(tot, 2, finished)
	case models.MarketUnder35:
		return underResult(tot, 3, finished)

	case models.MarketHomeWin:
		return outrightResult(gh, ga, finished)
	case models.MarketAwayWin:
		return outrightResult(ga, gh, finished)

	case models.MarketHomeOrDraw:
		return finishedOnly(finished, gh >= ga)
	case models.MarketAwayOrDraw:
		return finishedOnly(finished, ga >= gh)
	case models.MarketHomeOrAway:
		return finishedOnly(finished, gh != ga)

	case models.MarketBTTSYes:
		return finishedOnly(finished, gh >= 1 && ga >= 1)
	case models.MarketBTTSNo:
		return finishedOnly(finished, gh == 0 || ga == 0)

	case models.MarketHomeToScore:
		return sideScoresResult(gh, finished)
	case models.MarketAwayToScore:
		return sideScoresResult(ga, finished)
	}
	return models.ResultPending
}

func overResult(tot, need int, finished bool) models.Result {
	if tot >= need {
		return models.ResultWon
	}
	if finished {
		return models.ResultLost
	}
	return models.ResultPending
}

func underResult(tot, max int, finished bool) models.Result {
	if !finished {
		return models.ResultPending
	}
	if tot <= max {
		return models.ResultWon
	}
	return models.ResultLost
}

// outrightResult settles a straight win from the picked side's view.
// A draw voids the pick instead of losing it.
func outrightResult(picked, other int, finished bool) models.Result {
	if !finished {
		return models.ResultPending
	}
	switch {
	case picked > other:
		return models.ResultWon
	case picked < other:
		return models.ResultLost
	default:
		return models.ResultVoid
	}
}

func finishedOnly(finished, won bool) models.Result {
	if !finished {
		return models.ResultPending
	}
	if won {
		return models.ResultWon
	}
	return models.ResultLost
}

func sideScoresResult(goals int, finished bool) models.Result {
	if goals >= 1 {
		return models.ResultWon
	}
	if finished {
		return models.ResultLost
	}
	return models.ResultPending
}
