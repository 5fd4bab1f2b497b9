package models

import "time"

// OddsEntry is one fixture with its reference-bookmaker prices, already
// reduced to the canonical market set (minimum valid price per market).
type OddsEntry struct {
	FixtureID int64
	Country   string
	League    string
	Home      string
	Away      string
	Kickoff   time.Time
	Markets   map[Market]float64
}

// LeagueLabel is the display label used in slip messages.
func (e OddsEntry) LeagueLabel() string {
	if e.Country == "" {
		return e.League
	}
	return e.Country + " - " + e.League
}

// FixtureState is a live or finished snapshot of one fixture.
type FixtureState struct {
	FixtureID int64
	Status    string // API-Football short status: NS, 1H, HT, 2H, FT, AET, PEN, ...
	Minute    int
	GoalsHome int
	GoalsAway int
	Home      string
	Away      string
}

var finishedStatuses = map[string]bool{
	"FT": true, "AET": true, "PEN": true,
	"AWD": true, "WO": true,
}

// Finished reports whether the fixture has reached a final result.
func (s FixtureState) Finished() bool {
	return finishedStatuses[s.Status]
}

// InPlay reports whether the fixture is currently being played.
func (s FixtureState) InPlay() bool {
	switch s.Status {
	case "1H", "HT", "2H", "ET", "BT", "P", "LIVE":
		return true
	}
	return false
}

// FixtureMeta identifies the teams and competition of a fixture, used to
// look up recent results for the stats engine.
type FixtureMeta struct {
	FixtureID  int64
	LeagueID   int64
	Season     int
	HomeTeamID int64
	AwayTeamID int64
}

// FinishedMatch is one past result of a team, as returned by the provider.
type FinishedMatch struct {
	HomeTeamID int64
	AwayTeamID int64
	GoalsHome  int
	GoalsAway  int
}

// TeamRates are rolling rates over a team's last N finished matches.
// Zero matches means the prior defaults apply (see stats package).
type TeamRates struct {
	Matches    int     `json:"matches"`
	FormRate   float64 `json:"form_rate"`    // points per match / 3 over last 5
	GoalsFor   float64 `json:"goals_for"`    // average scored
	GoalsAgst  float64 `json:"goals_against"`
	TotalGoals float64 `json:"total_goals"` // average combined
	Over15     float64 `json:"over15"`
	Over25     float64 `json:"over25"`
	Under35    float64 `json:"under35"`
	BTTS       float64 `json:"btts"`
	CleanSheet float64 `json:"clean_sheet"`
}

// FixtureFeatures pairs the two teams' rates for one fixture.
type FixtureFeatures struct {
	Home TeamRates
	Away TeamRates
}
