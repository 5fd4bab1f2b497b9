package planner

import "github.com/aiprotips/tipsbot/internal/pkg/models"

// Package scoring weights: cash probability, payout vs target, and
// category diversity per ticket, plus a bonus on the summed probability.
const (
	weightProb      = 0.70
	weightPayout    = 0.20
	weightDiversity = 0.10
	weightSumBonus  = 0.15
)

// packageShapes are the alternative whole-day plans the optimizer tries.
// Each shape consumes a disjoint subset of fixtures; the best-scoring
// one becomes the day plan.
var packageShapes = [][]models.Format{
	{models.FormatQuint, models.FormatSingle},
	{models.FormatTriple, models.FormatDouble, models.FormatSingle},
	{models.FormatTriple, models.FormatDouble},
	{models.FormatDouble, models.FormatDouble, models.FormatSingle},
	{models.FormatSingle, models.FormatSingle, models.FormatDouble},
	{models.FormatLong},
	{models.FormatSingle},
	{models.FormatDouble},
}

// buildShape assembles one package shape; components that cannot be
// filled are dropped, already-consumed fixtures are never reused.
func buildShape(cands []models.Candidate, shape []models.Format, formats map[models.Format]FormatSpec, maxPerLeague int) []Ticket {
	used := make(map[int64]bool)
	var tickets []Ticket
	for _, f := range shape {
		spec, ok := formats[f]
		if !ok {
			continue
		}
		legs := selectFormat(cands, spec, used, maxPerLeague)
		if legs == nil {
			continue
		}
		for _, l := range legs {
			used[l.FixtureID] = true
		}
		tickets = append(tickets, Ticket{Spec: spec, Legs: legs})
	}
	return tickets
}

func scorePackage(tickets []Ticket) float64 {
	if len(tickets) == 0 {
		return 0
	}
	score := 0.0
	sumProb := 0.0
	for _, t := range tickets {
		p := t.Probability()
		sumProb += p

		payout := t.Total() / t.Spec.TargetTotal
		if payout > 1 {
			payout = 1
		}
		score += weightProb*p + weightPayout*payout + weightDiversity*t.Diversity()
	}
	return score + weightSumBonus*sumProb
}

// ChooseBestPack builds every package shape over the candidate pool and
// returns the highest-scoring one. Empty input yields an empty plan.
func ChooseBestPack(cands []models.Candidate, formats map[models.Format]FormatSpec, maxPerLeague int) []Ticket {
	if len(cands) == 0 {
		return nil
	}
	var best []Ticket
	bestScore := 0.0
	for _, shape := range packageShapes {
		tickets := buildShape(cands, shape, formats, maxPerLeague)
		if len(tickets) == 0 {
			continue
		}
		if score := scorePackage(tickets); score > bestScore {
			best = tickets
			bestScore = score
		}
	}
	return best
}
