// Package stats derives per-team rolling rates from recent finished
// matches. Rates feed the candidate builder's probability adjustments.
package stats

import (
	"context"
	"fmt"
	"sync"

	"github.com/aiprotips/tipsbot/internal/pkg/models"
)

// Source is the slice of the odds provider the engine needs.
type Source interface {
	FixtureMeta(ctx context.Context, fixtureID int64) (models.FixtureMeta, error)
	TeamLastResults(ctx context.Context, teamID int64, last int) ([]models.FinishedMatch, error)
}

// Cache persists team rates between runs. May be nil.
type Cache interface {
	GetTeamRates(ctx context.Context, teamID int64) (models.TeamRates, bool, error)
	SetTeamRates(ctx context.Context, teamID int64, rates models.TeamRates) error
}

type Engine struct {
	src   Source
	cache Cache
	lastN int

	mu  sync.Mutex
	mem map[int64]models.TeamRates
}

func New(src Source, cache Cache, lastN int) *Engine {
	if lastN <= 0 {
		lastN = 5
	}
	return &Engine{
		src:   src,
		cache: cache,
		lastN: lastN,
		mem:   make(map[int64]models.TeamRates),
	}
}

// FeaturesForFixture returns both teams' rates for a fixture. An error
// means the fixture has no usable statistics and must be skipped.
func (e *Engine) FeaturesForFixture(ctx context.Context, fixtureID int64) (models.FixtureFeatures, error) {
	meta, err := e.src.FixtureMeta(ctx, fixtureID)
	if err != nil {
		return models.FixtureFeatures{}, fmt.Errorf("fixture %d meta: %w", fixtureID, err)
	}
	if meta.HomeTeamID == 0 || meta.AwayTeamID == 0 {
		return models.FixtureFeatures{}, fmt.Errorf("fixture %d has no team ids", fixtureID)
	}

	home, err := e.teamRates(ctx, meta.HomeTeamID)
	if err != nil {
		return models.FixtureFeatures{}, err
	}
	away, err := e.teamRates(ctx, meta.AwayTeamID)
	if err != nil {
		return models.FixtureFeatures{}, err
	}
	return models.FixtureFeatures{Home: home, Away: away}, nil
}

func (e *Engine) teamRates(ctx context.Context, teamID int64) (models.TeamRates, error) {
	e.mu.Lock()
	rates, ok := e.mem[teamID]
	e.mu.Unlock()
	if ok {
		return rates, nil
	}

	if e.cache != nil {
		// a cache failure only costs a refetch
		if rates, ok, err := e.cache.GetTeamRates(ctx, teamID); err == nil && ok {
			e.remember(teamID, rates)
			return rates, nil
		}
	}

	last, err := e.src.TeamLastResults(ctx, teamID, e.lastN)
	if err != nil {
		return models.TeamRates{}, fmt.Errorf("last results for team %d: %w", teamID, err)
	}
	rates = ratesFromLast(teamID, last)

	if e.cache != nil {
		_ = e.cache.SetTeamRates(ctx, teamID, rates)
	}
	e.remember(teamID, rates)
	return rates, nil
}

func (e *Engine) remember(teamID int64, rates models.TeamRates) {
	e.mu.Lock()
	e.mem[teamID] = rates
	e.mu.Unlock()
}

// priorRates stand in when a team has no usable history.
func priorRates() models.TeamRates {
	return models.TeamRates{
		Matches:    0,
		FormRate:   0.50,
		GoalsFor:   1.2,
		GoalsAgst:  1.1,
		TotalGoals: 2.3,
		Over15:     0.65,
		Over25:     0.50,
		Under35:    0.70,
		BTTS:       0.50,
		CleanSheet: 0.30,
	}
}

func ratesFromLast(teamID int64, matches []models.FinishedMatch) models.TeamRates {
	if len(matches) == 0 {
		return priorRates()
	}

	var gf, ga, tot float64
	var over15, over25, under35, btts, cs int
	var pts int
	formGames := 0

	for i, m := range matches {
		goalsFor, goalsAgst := m.GoalsHome, m.GoalsAway
		if m.AwayTeamID == teamID {
			goalsFor, goalsAgst = m.GoalsAway, m.GoalsHome
		}
		total := goalsFor + goalsAgst

		gf += float64(goalsFor)
		ga += float64(goalsAgst)
		tot += float64(total)
		if total >= 2 {
			over15++
		}
		if total >= 3 {
			over25++
		}
		if total <= 3 {
			under35++
		}
		if goalsFor >= 1 && goalsAgst >= 1 {
			btts++
		}
		if goalsAgst == 0 {
			cs++
		}

		// form over the most recent five
		if i < 5 {
			formGames++
			switch {
			case goalsFor > goalsAgst:
				pts += 3
			case goalsFor == goalsAgst:
				pts++
			}
		}
	}

	n := float64(len(matches))
	return models.TeamRates{
		Matches:    len(matches),
		FormRate:   Clamp(float64(pts)/(3*float64(formGames)), 0, 1),
		GoalsFor:   Clamp(gf/n, 0, 3.5),
		GoalsAgst:  Clamp(ga/n, 0, 3.5),
		TotalGoals: Clamp(tot/n, 0, 4.5),
		Over15:     Clamp(float64(over15)/n, 0, 1),
		Over25:     Clamp(float64(over25)/n, 0, 1),
		Under35:    Clamp(float64(under35)/n, 0, 1),
		BTTS:       Clamp(float64(btts)/n, 0, 1),
		CleanSheet: Clamp(float64(cs)/n, 0, 1),
	}
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
