package models

import (
	"math"
	"strings"
	"testing"
	"time"
)

func leg(fixture int64, market Market, price float64, result Result) Leg {
	return Leg{
		FixtureID: fixture,
		Market:    market,
		Price:     price,
		Result:    result,
		Kickoff:   time.Date(2026, 3, 7, 15, 0, 0, 0, time.UTC),
	}
}

func TestNewSlip_TotalIsProductOfLegPrices(t *testing.T) {
	s, err := NewSlip(FormatTriple, "2026-03-07", []Leg{
		leg(1, MarketOver15, 1.30, ""),
		leg(2, MarketHomeOrDraw, 1.25, ""),
		leg(3, MarketBTTSYes, 1.33, ""),
	})
	if err != nil {
		t.Fatalf("NewSlip: %v", err)
	}
	want := math.Round(1.30*1.25*1.33*100) / 100
	if s.Total != want {
		t.Errorf("total = %.2f, want %.2f", s.Total, want)
	}
	if s.Status != SlipOpen {
		t.Errorf("new slip status = %s, want OPEN", s.Status)
	}
	if len(s.Code) != 5 {
		t.Errorf("code %q should be 5 chars", s.Code)
	}
}

func TestNewSlip_RejectsDuplicateFixture(t *testing.T) {
	_, err := NewSlip(FormatDouble, "2026-03-07", []Leg{
		leg(7, MarketOver15, 1.30, ""),
		leg(7, MarketBTTSYes, 1.40, ""),
	})
	if err == nil {
		t.Fatal("expected error for two legs on the same fixture")
	}
}

func TestNewSlip_RejectsDegeneratePrice(t *testing.T) {
	for _, price := range []float64{1.0, 0.95, 0} {
		_, err := NewSlip(FormatSingle, "2026-03-07", []Leg{leg(1, MarketHomeWin, price, "")})
		if err == nil {
			t.Errorf("price %.2f should be rejected", price)
		}
	}
}

func TestNewSlipCode_ShapeAndAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := NewSlipCode()
		if len(code) != 5 {
			t.Fatalf("code %q should be 5 chars", code)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
	}
}

func TestSettleStatus(t *testing.T) {
	tests := []struct {
		name string
		legs []Leg
		want SlipStatus
	}{
		{
			"one lost kills the slip even with pending legs",
			[]Leg{leg(1, MarketOver15, 1.3, ResultLost), leg(2, MarketHomeWin, 1.5, ResultPending)},
			SlipLost,
		},
		{
			"all won wins",
			[]Leg{leg(1, MarketOver15, 1.3, ResultWon), leg(2, MarketHomeWin, 1.5, ResultWon)},
			SlipWon,
		},
		{
			"won plus void wins",
			[]Leg{leg(1, MarketOver15, 1.3, ResultWon), leg(2, MarketHomeWin, 1.5, ResultVoid)},
			SlipWon,
		},
		{
			"pending stays open",
			[]Leg{leg(1, MarketOver15, 1.3, ResultWon), leg(2, MarketHomeWin, 1.5, ResultPending)},
			SlipOpen,
		},
	}
	for _, tt := range tests {
		if got := SettleStatus(tt.legs); got != tt.want {
			t.Errorf("%s: SettleStatus = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestEffectiveTotal_VoidLegCountsAsOne(t *testing.T) {
	s, err := NewSlip(FormatDouble, "2026-03-07", []Leg{
		leg(1, MarketHomeWin, 1.50, ResultWon),
		leg(2, MarketAwayWin, 1.60, ResultVoid),
	})
	if err != nil {
		t.Fatalf("NewSlip: %v", err)
	}
	if got := s.EffectiveTotal(); got != 1.50 {
		t.Errorf("effective total = %.2f, want 1.50", got)
	}
}
