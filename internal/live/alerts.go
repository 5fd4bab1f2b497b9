package live

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aiprotips/tipsbot/internal/pkg/models"
	"github.com/aiprotips/tipsbot/internal/templates"
)

// OddsSource is the provider slice the watcher needs: the day's
// pre-match prices plus live state and red-card lookups.
type OddsSource interface {
	EntriesByDate(ctx context.Context, date string) ([]models.OddsEntry, error)
	LiveFixtures(ctx context.Context) ([]models.FixtureState, error)
	HasRedCard(ctx context.Context, fixtureID int64) (bool, error)
}

type favorite struct {
	fixtureID int64
	home      string
	away      string
	name      string
	homeSide  bool
	price     float64
}

// WatchEntry is one row of the operator watchlist.
type WatchEntry struct {
	FixtureID int64
	Home      string
	Away      string
	Favorite  string
	Price     float64
}

// Watcher flags strong pre-match favorites that fall behind early. A
// sighting is double-checked after a cooldown before it reaches the
// operator, and each fixture alerts at most once per day. Red-card
// games are ignored: a sent-off favorite trailing is not a signal.
type Watcher struct {
	src  OddsSource
	sink Sink
	loc  *time.Location
	log  *slog.Logger

	interval    time.Duration
	favoriteMax float64
	maxMinute   int
	recheck     time.Duration
	quietFrom   int
	quietTo     int

	mu        sync.Mutex
	day       string
	favorites map[int64]favorite
	pending   map[int64]time.Time // fixture id -> first sighting
	alerted   map[int64]struct{}

	now func() time.Time
}

func NewWatcher(src OddsSource, sink Sink, loc *time.Location, interval time.Duration, favoriteMax float64, maxMinute int, recheck time.Duration, quietFrom, quietTo int, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	if interval == 0 {
		interval = 60 * time.Second
	}
	return &Watcher{
		src:         src,
		sink:        sink,
		loc:         loc,
		log:         log,
		interval:    interval,
		favoriteMax: favoriteMax,
		maxMinute:   maxMinute,
		recheck:     recheck,
		quietFrom:   quietFrom,
		quietTo:     quietTo,
		favorites:   make(map[int64]favorite),
		pending:     make(map[int64]time.Time),
		alerted:     make(map[int64]struct{}),
		now:         time.Now,
	}
}

// Start runs the watch loop until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	w.log.Info("favorite watcher started", "interval", w.interval, "favorite_max", w.favoriteMax)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("favorite watcher stopped")
			return
		case <-ticker.C:
			if err := w.Tick(ctx); err != nil {
				w.log.Error("watch tick failed", "error", err)
			}
		}
	}
}

// Tick runs one pass over the live fixtures.
func (w *Watcher) Tick(ctx context.Context) error {
	now := w.now().In(w.loc)
	if inQuietWindow(now.Hour(), w.quietFrom, w.quietTo) {
		return nil
	}
	if err := w.ensureDay(ctx, now); err != nil {
		return err
	}

	states, err := w.src.LiveFixtures(ctx)
	if err != nil {
		return fmt.Errorf("live fixtures: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, st := range states {
		if !st.InPlay() {
			continue
		}
		w.checkFixture(ctx, st, now)
	}
	return nil
}

func (w *Watcher) checkFixture(ctx context.Context, st models.FixtureState, now time.Time) {
	fav, ok := w.favorites[st.FixtureID]
	if !ok {
		return
	}
	if _, done := w.alerted[st.FixtureID]; done {
		return
	}

	behind := st.GoalsHome < st.GoalsAway
	if !fav.homeSide {
		behind = st.GoalsAway < st.GoalsHome
	}
	if !behind {
		// recovered before confirmation, drop the sighting
		delete(w.pending, st.FixtureID)
		return
	}

	first, sighted := w.pending[st.FixtureID]
	if !sighted {
		if st.Minute > 0 && st.Minute <= w.maxMinute {
			w.pending[st.FixtureID] = now
		}
		return
	}
	if now.Sub(first) < w.recheck {
		return
	}
	delete(w.pending, st.FixtureID)

	red, err := w.src.HasRedCard(ctx, st.FixtureID)
	if err != nil {
		w.log.Warn("red card lookup failed", "fixture_id", st.FixtureID, "error", err)
		return
	}
	if red {
		w.alerted[st.FixtureID] = struct{}{}
		return
	}

	text := templates.FavoriteBehind(fav.home, fav.away, st.Minute, fav.name, fav.price)
	if err := w.sink.NotifyOperator(ctx, text); err != nil {
		w.log.Error("favorite alert failed", "fixture_id", st.FixtureID, "error", err)
		return
	}
	w.alerted[st.FixtureID] = struct{}{}
	w.log.Info("favorite behind alerted",
		"fixture_id", st.FixtureID, "favorite", fav.name, "minute", st.Minute)
}

// ensureDay reloads the day's favorites once per local date.
func (w *Watcher) ensureDay(ctx context.Context, now time.Time) error {
	day := now.Format("2006-01-02")

	w.mu.Lock()
	current := w.day
	w.mu.Unlock()
	if current == day {
		return nil
	}

	entries, err := w.src.EntriesByDate(ctx, day)
	if err != nil {
		return fmt.Errorf("load favorites for %s: %w", day, err)
	}

	favorites := make(map[int64]favorite)
	for _, e := range entries {
		if f, ok := pickFavorite(e, w.favoriteMax); ok {
			favorites[e.FixtureID] = f
		}
	}

	w.mu.Lock()
	w.day = day
	w.favorites = favorites
	w.pending = make(map[int64]time.Time)
	w.alerted = make(map[int64]struct{})
	w.mu.Unlock()

	w.log.Info("favorites loaded", "date", day, "count", len(favorites))
	return nil
}

// pickFavorite reads the cheaper outright side and keeps it only when
// the price marks a strong favorite.
func pickFavorite(e models.OddsEntry, maxPrice float64) (favorite, bool) {
	p1, ok1 := e.Markets[models.MarketHomeWin]
	p2, ok2 := e.Markets[models.MarketAwayWin]
	if !ok1 && !ok2 {
		return favorite{}, false
	}

	f := favorite{fixtureID: e.FixtureID, home: e.Home, away: e.Away}
	switch {
	case ok1 && (!ok2 || p1 <= p2):
		f.homeSide, f.name, f.price = true, e.Home, p1
	default:
		f.homeSide, f.name, f.price = false, e.Away, p2
	}
	if f.price <= 1.0 || f.price > maxPrice {
		return favorite{}, false
	}
	return f, true
}

// Watchlist returns today's watched favorites, ordered by fixture id.
func (w *Watcher) Watchlist() []WatchEntry {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]WatchEntry, 0, len(w.favorites))
	for _, f := range w.favorites {
		out = append(out, WatchEntry{
			FixtureID: f.fixtureID,
			Home:      f.home,
			Away:      f.away,
			Favorite:  f.name,
			Price:     f.price,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FixtureID < out[j].FixtureID })
	return out
}
