package live

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aiprotips/tipsbot/internal/pkg/models"
)

type fakeStore struct {
	slips   []*models.Slip
	persist bool // when false, leg updates are lost (simulates re-delivery)
}

func (f *fakeStore) OpenSlips(context.Context) ([]*models.Slip, error) {
	var out []*models.Slip
	for _, s := range f.slips {
		if s.Status != models.SlipOpen {
			continue
		}
		cp := *s
		cp.Legs = append([]models.Leg(nil), s.Legs...)
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeStore) UpdateLegResult(_ context.Context, legID int64, result models.Result, gh, ga int) error {
	if !f.persist {
		return nil
	}
	for _, s := range f.slips {
		for i := range s.Legs {
			if s.Legs[i].ID == legID && s.Legs[i].Result == models.ResultPending {
				s.Legs[i].Result = result
				s.Legs[i].GoalsHome = gh
				s.Legs[i].GoalsAway = ga
			}
		}
	}
	return nil
}

func (f *fakeStore) RecalcSlipStatus(_ context.Context, slipID int64) (models.SlipStatus, error) {
	for _, s := range f.slips {
		if s.ID != slipID {
			continue
		}
		if s.Status.Terminal() {
			return s.Status, nil
		}
		if st := models.SettleStatus(s.Legs); st != models.SlipOpen {
			s.Status = st
		}
		return s.Status, nil
	}
	return models.SlipOpen, nil
}

type fakeProvider struct {
	states map[int64]models.FixtureState
	calls  int
}

func (f *fakeProvider) FixtureState(_ context.Context, id int64) (models.FixtureState, error) {
	f.calls++
	return f.states[id], nil
}

type fakeSink struct {
	published []string
	operator  []string
	failNext  int // number of Publish calls to reject before succeeding
}

func (f *fakeSink) Publish(_ context.Context, text string) error {
	if f.failNext > 0 {
		f.failNext--
		return errors.New("telegram unavailable")
	}
	f.published = append(f.published, text)
	return nil
}

func (f *fakeSink) NotifyOperator(_ context.Context, text string) error {
	f.operator = append(f.operator, text)
	return nil
}

func openSlip(id int64, legs ...models.Leg) *models.Slip {
	return &models.Slip{
		ID: id, Code: "TEST1", Format: models.FormatDouble,
		EventDate: "2026-03-07", Legs: legs, Status: models.SlipOpen,
	}
}

func testLeg(id, fixture int64, market models.Market) models.Leg {
	return models.Leg{
		ID: id, SlipID: 1, FixtureID: fixture,
		Home: "Como", Away: "Torino",
		Market: market, Price: 1.30, Result: models.ResultPending,
	}
}

func newTestEngine(store BetStore, provider StateProvider, sink Sink) *Engine {
	e := NewEngine(store, provider, sink, time.UTC, time.Minute, 0, 8, nil)
	e.now = func() time.Time { return time.Date(2026, 3, 7, 15, 0, 0, 0, time.UTC) }
	return e
}

func TestTick_ProgressEmittedExactlyOnceOnRedelivery(t *testing.T) {
	store := &fakeStore{
		slips:   []*models.Slip{openSlip(1, testLeg(11, 100, models.MarketOver05), testLeg(12, 200, models.MarketOver15))},
		persist: false, // leg update never sticks, same WON state re-delivered
	}
	provider := &fakeProvider{states: map[int64]models.FixtureState{
		100: {FixtureID: 100, Status: "1H", Minute: 23, GoalsHome: 1},
		200: {FixtureID: 200, Status: "1H", Minute: 10},
	}}
	sink := &fakeSink{}
	e := newTestEngine(store, provider, sink)

	for i := 0; i < 2; i++ {
		if err := e.Tick(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if len(sink.published) != 1 {
		t.Fatalf("progress published %d times, want exactly 1:\n%s", len(sink.published), strings.Join(sink.published, "\n---\n"))
	}
}

func TestTick_AnyLossKillsSlipWithPendingLegs(t *testing.T) {
	store := &fakeStore{
		slips:   []*models.Slip{openSlip(1, testLeg(11, 100, models.MarketOver25), testLeg(12, 200, models.MarketOver15))},
		persist: true,
	}
	provider := &fakeProvider{states: map[int64]models.FixtureState{
		100: {FixtureID: 100, Status: "FT", GoalsHome: 1, GoalsAway: 0}, // Over 2.5 lost
		200: {FixtureID: 200, Status: "1H", Minute: 30},                // still pending
	}}
	sink := &fakeSink{}
	e := newTestEngine(store, provider, sink)

	if err := e.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if store.slips[0].Status != models.SlipLost {
		t.Errorf("slip status = %s, want LOST despite a pending leg", store.slips[0].Status)
	}
	if len(sink.published) != 1 || !strings.Contains(sink.published[0], "one leg") {
		t.Errorf("expected one near-miss message, got %v", sink.published)
	}
}

func TestTick_FinalMessageOnlyOnce(t *testing.T) {
	store := &fakeStore{
		slips:   []*models.Slip{openSlip(1, testLeg(11, 100, models.MarketOver15))},
		persist: true,
	}
	provider := &fakeProvider{states: map[int64]models.FixtureState{
		100: {FixtureID: 100, Status: "FT", GoalsHome: 2, GoalsAway: 1},
	}}
	sink := &fakeSink{}
	e := newTestEngine(store, provider, sink)

	for i := 0; i < 3; i++ {
		if err := e.Tick(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	finals := 0
	for _, msg := range sink.published {
		if strings.Contains(msg, "WINNER") {
			finals++
		}
	}
	if finals != 1 {
		t.Errorf("celebration sent %d times, want 1", finals)
	}
}

func TestTick_FinalRetriedAfterPublishFailure(t *testing.T) {
	// The first tick settles the slip; the store flips it terminal so it
	// never reappears in the open set. With the sink down for the whole
	// tick, the celebration must still go out on a later tick, and only
	// once.
	store := &fakeStore{
		slips:   []*models.Slip{openSlip(1, testLeg(11, 100, models.MarketOver15))},
		persist: true,
	}
	provider := &fakeProvider{states: map[int64]models.FixtureState{
		100: {FixtureID: 100, Status: "FT", GoalsHome: 2, GoalsAway: 1},
	}}
	sink := &fakeSink{failNext: 2} // rejects the energy note and the celebration
	e := newTestEngine(store, provider, sink)

	for i := 0; i < 3; i++ {
		if err := e.Tick(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if store.slips[0].Status != models.SlipWon {
		t.Fatalf("slip status = %s, want WON", store.slips[0].Status)
	}
	finals := 0
	for _, msg := range sink.published {
		if strings.Contains(msg, "WINNER") {
			finals++
		}
	}
	if finals != 1 {
		t.Errorf("celebration sent %d times after a failed publish, want 1", finals)
	}
}

func TestTick_QuietWindowSuppressesEverything(t *testing.T) {
	store := &fakeStore{
		slips:   []*models.Slip{openSlip(1, testLeg(11, 100, models.MarketOver05))},
		persist: true,
	}
	provider := &fakeProvider{states: map[int64]models.FixtureState{
		100: {FixtureID: 100, Status: "1H", GoalsHome: 1},
	}}
	sink := &fakeSink{}
	e := newTestEngine(store, provider, sink)
	e.now = func() time.Time { return time.Date(2026, 3, 7, 3, 0, 0, 0, time.UTC) }

	if err := e.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if provider.calls != 0 || len(sink.published) != 0 {
		t.Errorf("quiet window must suppress polling and output (calls=%d, published=%d)", provider.calls, len(sink.published))
	}
}

func TestInQuietWindow(t *testing.T) {
	tests := []struct {
		hour, from, to int
		want           bool
	}{
		{3, 0, 8, true},
		{0, 0, 8, true},
		{8, 0, 8, false},
		{15, 0, 8, false},
		{23, 22, 6, true},
		{5, 22, 6, true},
		{12, 22, 6, false},
		{10, 8, 8, false},
	}
	for _, tt := range tests {
		if got := inQuietWindow(tt.hour, tt.from, tt.to); got != tt.want {
			t.Errorf("inQuietWindow(%d, %d, %d) = %v, want %v", tt.hour, tt.from, tt.to, got, tt.want)
		}
	}
}
