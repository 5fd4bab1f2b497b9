package planner

import "github.com/aiprotips/tipsbot/internal/pkg/models"

// FormatSpec is the full constraint profile of one slip format.
type FormatSpec struct {
	Format  models.Format
	Legs    int
	LegsMin int // long combo tries counts from this up to Legs; 0 = fixed

	PriceLo      float64
	PriceHi      float64
	EscalationHi float64 // raised per-leg ceiling for the min-total second pass

	MinTotal    float64 // 0 = no minimum
	TargetTotal float64 // reference payout for package scoring

	MinLegProb float64 // per-leg adjusted-probability floor
	MinAvgProb float64 // average adjusted-probability floor

	MinCategories  int
	MaxPerCategory int
}

// DefaultFormats returns the built-in format table. Thresholds are
// starting points; operators tune them in config before tuning code.
func DefaultFormats() map[models.Format]FormatSpec {
	return map[models.Format]FormatSpec{
		models.FormatSingle: {
			Format: models.FormatSingle, Legs: 1,
			PriceLo: 1.45, PriceHi: 1.65, EscalationHi: 1.80,
			TargetTotal: 1.55,
			MinLegProb:  0.62, MinAvgProb: 0.62,
			MinCategories: 1, MaxPerCategory: 1,
		},
		models.FormatDouble: {
			Format: models.FormatDouble, Legs: 2,
			PriceLo: 1.28, PriceHi: 1.42, EscalationHi: 1.50,
			TargetTotal: 1.90,
			MinLegProb:  0.66, MinAvgProb: 0.68,
			MinCategories: 1, MaxPerCategory: 2,
		},
		models.FormatTriple: {
			Format: models.FormatTriple, Legs: 3,
			PriceLo: 1.22, PriceHi: 1.35, EscalationHi: 1.50,
			TargetTotal: 2.20,
			MinLegProb:  0.70, MinAvgProb: 0.72,
			MinCategories: 2, MaxPerCategory: 2,
		},
		models.FormatQuint: {
			Format: models.FormatQuint, Legs: 5,
			PriceLo: 1.18, PriceHi: 1.30, EscalationHi: 1.50,
			MinTotal: 4.0, TargetTotal: 4.5,
			MinLegProb: 0.72, MinAvgProb: 0.75,
			MinCategories: 3, MaxPerCategory: 2,
		},
		models.FormatLong: {
			Format: models.FormatLong, Legs: 12, LegsMin: 8,
			PriceLo: 1.10, PriceHi: 1.22, EscalationHi: 1.36,
			MinTotal: 6.0, TargetTotal: 7.0,
			MinLegProb: 0.78, MinAvgProb: 0.80,
			MinCategories: 3, MaxPerCategory: 4,
		},
	}
}
