package planner

import (
	"sort"

	"github.com/aiprotips/tipsbot/internal/pkg/models"
)

// Ticket is one assembled (not yet persisted) slip.
type Ticket struct {
	Spec FormatSpec
	Legs []models.Candidate
}

func (t Ticket) Total() float64 {
	total := 1.0
	for _, l := range t.Legs {
		total *= l.Price
	}
	return total
}

// Probability estimates the chance the ticket cashes.
func (t Ticket) Probability() float64 {
	p := 1.0
	for _, l := range t.Legs {
		p *= l.PAdjusted
	}
	return p
}

func (t Ticket) AvgProb() float64 {
	if len(t.Legs) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range t.Legs {
		sum += l.PAdjusted
	}
	return sum / float64(len(t.Legs))
}

// Diversity is distinct categories over leg count, clamped to 1.
func (t Ticket) Diversity() float64 {
	if len(t.Legs) == 0 {
		return 0
	}
	cats := make(map[models.Category]bool)
	for _, l := range t.Legs {
		cats[l.Category()] = true
	}
	d := float64(len(cats)) / float64(len(t.Legs))
	if d > 1 {
		d = 1
	}
	return d
}

// selection carries the running state of one format's greedy pass.
type selection struct {
	legs      []models.Candidate
	fixtures  map[int64]bool
	perCat    map[models.Category]int
	perLeague map[string]int
}

func newSelection() *selection {
	return &selection{
		fixtures:  make(map[int64]bool),
		perCat:    make(map[models.Category]int),
		perLeague: make(map[string]int),
	}
}

func (s *selection) fits(c models.Candidate, spec FormatSpec, maxPerLeague int) bool {
	if s.fixtures[c.FixtureID] {
		return false
	}
	if s.perCat[c.Category()] >= spec.MaxPerCategory {
		return false
	}
	if maxPerLeague > 0 && s.perLeague[c.League] >= maxPerLeague {
		return false
	}
	return true
}

func (s *selection) add(c models.Candidate) {
	s.legs = append(s.legs, c)
	s.fixtures[c.FixtureID] = true
	s.perCat[c.Category()]++
	s.perLeague[c.League]++
}

func (s *selection) replace(i int, c models.Candidate) {
	old := s.legs[i]
	delete(s.fixtures, old.FixtureID)
	s.perCat[old.Category()]--
	s.perLeague[old.League]--
	s.legs[i] = c
	s.fixtures[c.FixtureID] = true
	s.perCat[c.Category()]++
	s.perLeague[c.League]++
}

func (s *selection) categories() int {
	n := 0
	for _, cnt := range s.perCat {
		if cnt > 0 {
			n++
		}
	}
	return n
}

func (s *selection) avgProb() float64 {
	if len(s.legs) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range s.legs {
		sum += l.PAdjusted
	}
	return sum / float64(len(s.legs))
}

// eligible filters and orders the pool for one format pass: price within
// [lo, hi], fixture unused, per-leg confidence met; ordered by edge,
// then adjusted probability, then safe-market priority.
func eligible(pool []models.Candidate, spec FormatSpec, hi float64, used map[int64]bool) []models.Candidate {
	var out []models.Candidate
	for _, c := range pool {
		if used[c.FixtureID] {
			continue
		}
		if c.Price < spec.PriceLo || c.Price > hi {
			continue
		}
		if c.PAdjusted < spec.MinLegProb {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Edge != out[j].Edge {
			return out[i].Edge > out[j].Edge
		}
		if out[i].PAdjusted != out[j].PAdjusted {
			return out[i].PAdjusted > out[j].PAdjusted
		}
		return out[i].Market.SafeRank() < out[j].Market.SafeRank()
	})
	return out
}

// selectBase runs the greedy pass with substitution repair for one
// format at a fixed leg count and price ceiling. Returns nil when the
// format cannot be filled within its constraints.
func selectBase(pool []models.Candidate, spec FormatSpec, legs int, hi float64, used map[int64]bool, maxPerLeague int) []models.Candidate {
	ranked := eligible(pool, spec, hi, used)
	if len(ranked) < legs {
		return nil
	}

	sel := newSelection()
	for _, c := range ranked {
		if len(sel.legs) >= legs {
			break
		}
		if sel.fits(c, spec, maxPerLeague) {
			sel.add(c)
		}
	}
	if len(sel.legs) < legs {
		return nil
	}

	repairDiversity(sel, ranked, spec, maxPerLeague)
	repairConfidence(sel, ranked, spec, maxPerLeague)

	if sel.categories() < min(spec.MinCategories, legs) {
		return nil
	}
	if sel.avgProb() < spec.MinAvgProb {
		return nil
	}
	return sel.legs
}

// repairDiversity swaps legs out of over-represented categories until
// the selection reaches the format's category minimum or no swap helps.
func repairDiversity(sel *selection, ranked []models.Candidate, spec FormatSpec, maxPerLeague int) {
	need := min(spec.MinCategories, len(sel.legs))
	for sel.categories() < need {
		if !swapForNewCategory(sel, ranked, spec, maxPerLeague) {
			return
		}
	}
}

func swapForNewCategory(sel *selection, ranked []models.Candidate, spec FormatSpec, maxPerLeague int) bool {
	for _, c := range ranked {
		if sel.fixtures[c.FixtureID] || sel.perCat[c.Category()] > 0 {
			continue
		}
		// swap out a leg from the most crowded category
		victim := -1
		worst := 0
		for i, l := range sel.legs {
			if cnt := sel.perCat[l.Category()]; cnt > worst {
				worst = cnt
				victim = i
			}
		}
		if victim < 0 || worst < 2 {
			return false
		}
		if maxPerLeague > 0 && sel.legs[victim].League != c.League && sel.perLeague[c.League] >= maxPerLeague {
			continue
		}
		sel.replace(victim, c)
		return true
	}
	return false
}

// repairConfidence replaces the weakest leg with a stronger alternative
// while the average confidence misses the floor.
func repairConfidence(sel *selection, ranked []models.Candidate, spec FormatSpec, maxPerLeague int) {
	for sel.avgProb() < spec.MinAvgProb {
		weakest := 0
		for i, l := range sel.legs {
			if l.PAdjusted < sel.legs[weakest].PAdjusted {
				weakest = i
			}
		}
		improved := false
		for _, c := range ranked {
			if sel.fixtures[c.FixtureID] || c.PAdjusted <= sel.legs[weakest].PAdjusted {
				continue
			}
			cat := c.Category()
			if cat != sel.legs[weakest].Category() && sel.perCat[cat] >= spec.MaxPerCategory {
				continue
			}
			if maxPerLeague > 0 && c.League != sel.legs[weakest].League && sel.perLeague[c.League] >= maxPerLeague {
				continue
			}
			sel.replace(weakest, c)
			improved = true
			break
		}
		if !improved {
			return
		}
	}
}

// selectFormat runs the full procedure for one format: base pass, then
// the min-total escalation with the raised price ceiling. Formats with
// a leg-count range (the long combo) try counts from the minimum up,
// settling on the smallest count that clears the minimum total. Returns
// nil when the format is abandoned for the day.
func selectFormat(pool []models.Candidate, spec FormatSpec, used map[int64]bool, maxPerLeague int) []models.Candidate {
	counts := []int{spec.Legs}
	if spec.LegsMin > 0 && spec.LegsMin < spec.Legs {
		counts = counts[:0]
		for n := spec.LegsMin; n <= spec.Legs; n++ {
			counts = append(counts, n)
		}
	}

	for _, legs := range counts {
		sel := selectBase(pool, spec, legs, spec.PriceHi, used, maxPerLeague)
		if sel != nil && meetsTotal(sel, spec) {
			return sel
		}
		if spec.MinTotal <= 0 {
			if sel != nil {
				return sel
			}
			continue
		}

		// escalation: raise the per-leg ceiling and retry
		esc := selectBase(pool, spec, legs, spec.EscalationHi, used, maxPerLeague)
		if esc == nil {
			continue
		}
		esc = raiseTotal(esc, pool, spec, used, maxPerLeague)
		if meetsTotal(esc, spec) {
			return esc
		}
	}
	return nil
}

func meetsTotal(legs []models.Candidate, spec FormatSpec) bool {
	if spec.MinTotal <= 0 {
		return true
	}
	total := 1.0
	for _, l := range legs {
		total *= l.Price
	}
	return total >= spec.MinTotal
}

// raiseTotal substitutes the cheapest legs with pricier alternatives
// (within the escalation ceiling) until the minimum total is met or no
// substitution is left.
func raiseTotal(legs []models.Candidate, pool []models.Candidate, spec FormatSpec, used map[int64]bool, maxPerLeague int) []models.Candidate {
	sel := newSelection()
	for _, l := range legs {
		sel.add(l)
	}

	ranked := eligible(pool, spec, spec.EscalationHi, used)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Price > ranked[j].Price })

	for i := 0; !meetsTotal(sel.legs, spec) && i < len(ranked); i++ {
		c := ranked[i]
		if sel.fixtures[c.FixtureID] {
			continue
		}
		cheapest := 0
		for j, l := range sel.legs {
			if l.Price < sel.legs[cheapest].Price {
				cheapest = j
			}
		}
		if c.Price <= sel.legs[cheapest].Price {
			break
		}
		cat := c.Category()
		if cat != sel.legs[cheapest].Category() && sel.perCat[cat] >= spec.MaxPerCategory {
			continue
		}
		if maxPerLeague > 0 && c.League != sel.legs[cheapest].League && sel.perLeague[c.League] >= maxPerLeague {
			continue
		}
		sel.replace(cheapest, c)
	}

	if sel.categories() < min(spec.MinCategories, len(sel.legs)) || sel.avgProb() < spec.MinAvgProb {
		return legs
	}
	return sel.legs
}
