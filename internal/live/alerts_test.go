package live

import (
	"context"
	"testing"
	"time"

	"github.com/aiprotips/tipsbot/internal/pkg/models"
)

type fakeOdds struct {
	entries []models.OddsEntry
	live    []models.FixtureState
	red     map[int64]bool
}

func (f *fakeOdds) EntriesByDate(context.Context, string) ([]models.OddsEntry, error) {
	return f.entries, nil
}

func (f *fakeOdds) LiveFixtures(context.Context) ([]models.FixtureState, error) {
	return f.live, nil
}

func (f *fakeOdds) HasRedCard(_ context.Context, id int64) (bool, error) {
	return f.red[id], nil
}

func strongFavoriteEntry() models.OddsEntry {
	return models.OddsEntry{
		FixtureID: 500, Home: "Inter", Away: "Cremonese",
		Markets: map[models.Market]float64{
			models.MarketHomeWin: 1.20,
			models.MarketAwayWin: 12.0,
		},
	}
}

func newTestWatcher(src OddsSource, sink Sink) (*Watcher, *time.Time) {
	w := NewWatcher(src, sink, time.UTC, time.Minute, 1.26, 20, time.Minute, 0, 8, nil)
	clock := time.Date(2026, 3, 7, 16, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }
	return w, &clock
}

func TestWatcher_AlertAfterRecheckExactlyOnce(t *testing.T) {
	src := &fakeOdds{
		entries: []models.OddsEntry{strongFavoriteEntry()},
		live:    []models.FixtureState{{FixtureID: 500, Status: "1H", Minute: 14, GoalsHome: 0, GoalsAway: 1}},
	}
	sink := &fakeSink{}
	w, clock := newTestWatcher(src, sink)

	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	if len(sink.operator) != 0 {
		t.Fatalf("alerted before the recheck cooldown: %v", sink.operator)
	}

	*clock = clock.Add(90 * time.Second)
	src.live[0].Minute = 16
	for i := 0; i < 3; i++ {
		if err := w.Tick(context.Background()); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}
	if len(sink.operator) != 1 {
		t.Fatalf("operator alerts = %d, want exactly 1", len(sink.operator))
	}
}

func TestWatcher_RecoveryCancelsSighting(t *testing.T) {
	src := &fakeOdds{
		entries: []models.OddsEntry{strongFavoriteEntry()},
		live:    []models.FixtureState{{FixtureID: 500, Status: "1H", Minute: 10, GoalsHome: 0, GoalsAway: 1}},
	}
	sink := &fakeSink{}
	w, clock := newTestWatcher(src, sink)

	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	// favorite equalizes before the double-check
	src.live[0].GoalsHome = 1
	*clock = clock.Add(2 * time.Minute)
	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	// behind again, but past the detection window
	src.live[0].GoalsAway = 2
	src.live[0].Minute = 35
	*clock = clock.Add(5 * time.Minute)
	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(sink.operator) != 0 {
		t.Errorf("unexpected alert after recovery: %v", sink.operator)
	}
}

func TestWatcher_RedCardSuppressesAlert(t *testing.T) {
	src := &fakeOdds{
		entries: []models.OddsEntry{strongFavoriteEntry()},
		live:    []models.FixtureState{{FixtureID: 500, Status: "1H", Minute: 12, GoalsHome: 0, GoalsAway: 1}},
		red:     map[int64]bool{500: true},
	}
	sink := &fakeSink{}
	w, clock := newTestWatcher(src, sink)

	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	*clock = clock.Add(2 * time.Minute)
	for i := 0; i < 2; i++ {
		if err := w.Tick(context.Background()); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}
	if len(sink.operator) != 0 {
		t.Errorf("red-card game must not alert: %v", sink.operator)
	}
}

func TestWatcher_WatchlistOnlyStrongFavorites(t *testing.T) {
	src := &fakeOdds{entries: []models.OddsEntry{
		strongFavoriteEntry(),
		{FixtureID: 501, Home: "Lecce", Away: "Verona", Markets: map[models.Market]float64{
			models.MarketHomeWin: 2.40,
			models.MarketAwayWin: 3.10,
		}},
		{FixtureID: 502, Home: "Genoa", Away: "Napoli", Markets: map[models.Market]float64{
			models.MarketHomeWin: 6.50,
			models.MarketAwayWin: 1.22,
		}},
	}}
	w, _ := newTestWatcher(src, &fakeSink{})

	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	list := w.Watchlist()
	if len(list) != 2 {
		t.Fatalf("watchlist size = %d, want 2", len(list))
	}
	if list[0].Favorite != "Inter" || list[1].Favorite != "Napoli" {
		t.Errorf("unexpected favorites: %+v", list)
	}
}

func TestPickFavorite(t *testing.T) {
	tests := []struct {
		name     string
		markets  map[models.Market]float64
		wantOK   bool
		wantName string
	}{
		{"home favorite", map[models.Market]float64{models.MarketHomeWin: 1.15, models.MarketAwayWin: 9.0}, true, "Inter"},
		{"away favorite", map[models.Market]float64{models.MarketHomeWin: 8.0, models.MarketAwayWin: 1.25}, true, "Cremonese"},
		{"no strong side", map[models.Market]float64{models.MarketHomeWin: 1.60, models.MarketAwayWin: 2.20}, false, ""},
		{"degenerate price", map[models.Market]float64{models.MarketHomeWin: 1.0}, false, ""},
		{"no outright quotes", map[models.Market]float64{models.MarketOver25: 1.80}, false, ""},
	}
	for _, tt := range tests {
		e := models.OddsEntry{FixtureID: 1, Home: "Inter", Away: "Cremonese", Markets: tt.markets}
		f, ok := pickFavorite(e, 1.26)
		if ok != tt.wantOK {
			t.Errorf("%s: ok = %v, want %v", tt.name, ok, tt.wantOK)
			continue
		}
		if ok && f.name != tt.wantName {
			t.Errorf("%s: favorite = %s, want %s", tt.name, f.name, tt.wantName)
		}
	}
}
