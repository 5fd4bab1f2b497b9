package models

import "time"

// Candidate is one publishable (fixture, market) pick with its pricing
// and model probabilities. Produced by the candidate builder, consumed
// by the planner.
type Candidate struct {
	FixtureID int64
	League    string
	Home      string
	Away      string
	Kickoff   time.Time
	Market    Market
	Price     float64
	PImplied  float64 // 1/price, clamped to [0.01, 0.99]
	PAdjusted float64 // implied + bounded stats adjustment, clamped
	Edge      float64 // PAdjusted - PImplied
}

// Category returns the diversification bucket of the candidate's market.
func (c Candidate) Category() Category {
	return c.Market.Category()
}
