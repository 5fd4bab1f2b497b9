// Package templates renders channel and operator message bodies. It
// decides numbers and event wording only; the sink handles delivery.
package templates

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/aiprotips/tipsbot/internal/pkg/models"
)

var formatTitles = map[models.Format]string{
	models.FormatSingle: "SINGLE",
	models.FormatDouble: "DOUBLE",
	models.FormatTriple: "TRIPLE",
	models.FormatQuint:  "QUINTUPLE",
	models.FormatLong:   "SUPER COMBO",
}

func title(s *models.Slip) string {
	t := formatTitles[s.Format]
	if s.Format == models.FormatLong {
		t = fmt.Sprintf("%s x%d", t, len(s.Legs))
	}
	return t
}

// SlipMessage renders the publishable body of a slip.
func SlipMessage(s *models.Slip, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 <b>%s</b> <code>#%s</code>\n", title(s), s.Code)
	for _, l := range s.Legs {
		fmt.Fprintf(&b, "• %s 🆚 %s — %s <b>%.2f</b>\n",
			html.EscapeString(l.Home), html.EscapeString(l.Away), html.EscapeString(l.Market.String()), l.Price)
	}
	if len(s.Legs) > 1 {
		fmt.Fprintf(&b, "Total: <b>%.2f</b>\n", s.Total)
	}
	fmt.Fprintf(&b, "🕒 %s", s.FirstKickoff().In(loc).Format("15:04"))
	return b.String()
}

// progressLines is what we say when a leg locks in, per market.
var progressLines = map[models.Market]string{
	models.MarketOver05:      "Over 0.5 secured ✅",
	models.MarketOver15:      "Over 1.5 on track ✅",
	models.MarketOver25:      "Over 2.5 banked ✅",
	models.MarketUnder35:     "Under 3.5 under control ✅",
	models.MarketUnder25:     "Under 2.5 held up ✅",
	models.MarketHomeWin:     "Home side delivered ✅",
	models.MarketAwayWin:     "Away side delivered ✅",
	models.MarketHomeOrDraw:  "1X line solid ✅",
	models.MarketAwayOrDraw:  "X2 line solid ✅",
	models.MarketHomeOrAway:  "No-draw line solid ✅",
	models.MarketBTTSYes:     "Both teams scored ✅",
	models.MarketBTTSNo:      "Clean sheet held ✅",
	models.MarketHomeToScore: "Home goal in ✅",
	models.MarketAwayToScore: "Away goal in ✅",
}

// Progress renders the one-time leg-won message. ok is false for
// markets we stay silent about.
func Progress(l models.Leg, minute int, code string) (string, bool) {
	line, ok := progressLines[l.Market]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("⚡ %s 🆚 %s (%d')\n%s\nSlip <code>#%s</code>",
		html.EscapeString(l.Home), html.EscapeString(l.Away), minute, line, code), true
}

// CelebrationSingle renders the win message for a one-leg slip.
func CelebrationSingle(l models.Leg, score string, total float64) string {
	return fmt.Sprintf("🏆 <b>WINNER</b>\n%s 🆚 %s %s\n%s @ <b>%.2f</b> ✅",
		html.EscapeString(l.Home), html.EscapeString(l.Away), score,
		html.EscapeString(l.Market.String()), total)
}

// CelebrationMulti renders the win message for a multi-leg slip.
func CelebrationMulti(s *models.Slip, scores map[int64]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 <b>%s CASHED</b> <code>#%s</code>\n", title(s), s.Code)
	for _, l := range s.Legs {
		mark := "✅"
		if l.Result == models.ResultVoid {
			mark = "➖"
		}
		fmt.Fprintf(&b, "%s %s 🆚 %s %s — %s\n",
			mark, html.EscapeString(l.Home), html.EscapeString(l.Away),
			scores[l.FixtureID], html.EscapeString(l.Market.String()))
	}
	fmt.Fprintf(&b, "Total: <b>%.2f</b> 🎉", s.EffectiveTotal())
	return b.String()
}

// NearMiss renders the loss message when exactly one leg failed.
func NearMiss(s *models.Slip, lost models.Leg) string {
	return fmt.Sprintf("😤 So close. <code>#%s</code> went down by one leg:\n%s 🆚 %s (%s)",
		s.Code, html.EscapeString(lost.Home), html.EscapeString(lost.Away),
		html.EscapeString(lost.Market.String()))
}

// Lost renders the generic loss message.
func Lost(s *models.Slip) string {
	return fmt.Sprintf("💔 Slip <code>#%s</code> didn't make it today. Next one.", s.Code)
}

// FavoriteBehind renders the operator alert for a trailing favorite.
func FavoriteBehind(home, away string, minute int, favorite string, preOdd float64) string {
	return fmt.Sprintf("👀 Favorite behind: %s 🆚 %s (%d')\n%s was priced <b>%.2f</b> pre-match, no red card.",
		html.EscapeString(home), html.EscapeString(away), minute,
		html.EscapeString(favorite), preOdd)
}

// MorningReport summarizes the planned day for the operator.
func MorningReport(date string, slips []*models.Slip, loc *time.Location) string {
	if len(slips) == 0 {
		return fmt.Sprintf("📋 Plan %s: nothing publishable today.", date)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Plan %s: %d slip(s)\n", date, len(slips))
	for _, s := range slips {
		fmt.Fprintf(&b, "• %s <code>#%s</code> x%d @ %.2f, first kickoff %s\n",
			title(s), s.Code, len(s.Legs), s.Total, s.FirstKickoff().In(loc).Format("15:04"))
	}
	return b.String()
}
