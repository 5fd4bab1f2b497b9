package models

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Format identifies the slip shape the planner assembled.
type Format string

const (
	FormatSingle Format = "single"
	FormatDouble Format = "double"
	FormatTriple Format = "triple"
	FormatQuint  Format = "quint"
	FormatLong   Format = "long"
)

// Result is the settlement state of one leg.
type Result string

const (
	ResultPending Result = "PENDING"
	ResultWon     Result = "WON"
	ResultLost    Result = "LOST"
	ResultVoid    Result = "VOID"
)

// Terminal reports whether the result can no longer change.
func (r Result) Terminal() bool {
	return r == ResultWon || r == ResultLost || r == ResultVoid
}

// SlipStatus is the aggregate state of a slip.
type SlipStatus string

const (
	SlipOpen      SlipStatus = "OPEN"
	SlipWon       SlipStatus = "WON"
	SlipLost      SlipStatus = "LOST"
	SlipCancelled SlipStatus = "CANCELLED"
)

// Terminal reports whether the slip can no longer change state.
func (s SlipStatus) Terminal() bool {
	return s == SlipWon || s == SlipLost || s == SlipCancelled
}

// Leg is one selection inside a slip.
type Leg struct {
	ID          int64
	SlipID      int64
	FixtureID   int64
	League      string
	Home        string
	Away        string
	Kickoff     time.Time
	Market      Market
	Price       float64
	Probability float64
	Result      Result
	GoalsHome   int
	GoalsAway   int
}

// Slip is a published (or to-be-published) set of legs over distinct fixtures.
type Slip struct {
	ID        int64
	Code      string
	Format    Format
	EventDate string // YYYY-MM-DD in the publication timezone
	Legs      []Leg
	Total     float64
	Status    SlipStatus
	CreatedAt time.Time
}

// NewSlip validates and assembles a slip from legs. Legs must reference
// pairwise distinct fixtures and carry prices > 1.0; the total is the
// product of leg prices.
func NewSlip(format Format, eventDate string, legs []Leg) (*Slip, error) {
	if len(legs) == 0 {
		return nil, fmt.Errorf("slip needs at least one leg")
	}
	seen := make(map[int64]bool, len(legs))
	for _, l := range legs {
		if l.Price <= 1.0 {
			return nil, fmt.Errorf("leg %s @%d has degenerate price %.2f", l.Market, l.FixtureID, l.Price)
		}
		if seen[l.FixtureID] {
			return nil, fmt.Errorf("duplicate fixture %d in slip", l.FixtureID)
		}
		seen[l.FixtureID] = true
	}
	for i := range legs {
		if legs[i].Result == "" {
			legs[i].Result = ResultPending
		}
	}
	return &Slip{
		Code:      NewSlipCode(),
		Format:    format,
		EventDate: eventDate,
		Legs:      legs,
		Total:     round2(productPrice(legs)),
		Status:    SlipOpen,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EffectiveTotal is the payout multiplier with VOID legs priced at 1.0.
func (s *Slip) EffectiveTotal() float64 {
	total := 1.0
	for _, l := range s.Legs {
		if l.Result == ResultVoid {
			continue
		}
		total *= l.Price
	}
	return round2(total)
}

// FirstKickoff returns the earliest leg kickoff.
func (s *Slip) FirstKickoff() time.Time {
	var first time.Time
	for _, l := range s.Legs {
		if first.IsZero() || l.Kickoff.Before(first) {
			first = l.Kickoff
		}
	}
	return first
}

// SettleStatus aggregates leg results into a slip status: any lost leg
// loses the slip immediately, all legs settled without a loss wins it,
// anything else stays open.
func SettleStatus(legs []Leg) SlipStatus {
	pending := 0
	for _, l := range legs {
		switch l.Result {
		case ResultLost:
			return SlipLost
		case ResultPending:
			pending++
		}
	}
	if pending == 0 {
		return SlipWon
	}
	return SlipOpen
}

func productPrice(legs []Leg) float64 {
	total := 1.0
	for _, l := range legs {
		total *= l.Price
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// NewSlipCode draws a fresh public slip code. Codes are short, so the
// store regenerates on the rare collision with an existing slip.
func NewSlipCode() string {
	b := make([]byte, 5)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}
