package live

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aiprotips/tipsbot/internal/pkg/metrics"
	"github.com/aiprotips/tipsbot/internal/pkg/models"
	"github.com/aiprotips/tipsbot/internal/templates"
)

// BetStore is the slice of persistence the engine needs. Leg updates
// must be durable before slip aggregation is recomputed.
type BetStore interface {
	OpenSlips(ctx context.Context) ([]*models.Slip, error)
	UpdateLegResult(ctx context.Context, legID int64, result models.Result, gh, ga int) error
	RecalcSlipStatus(ctx context.Context, slipID int64) (models.SlipStatus, error)
}

// StateProvider returns the current state of one fixture.
type StateProvider interface {
	FixtureState(ctx context.Context, fixtureID int64) (models.FixtureState, error)
}

// Sink delivers messages to the public channel and to the operator.
type Sink interface {
	Publish(ctx context.Context, text string) error
	NotifyOperator(ctx context.Context, text string) error
}

// Engine polls open slips against live fixture state, settles legs,
// closes slips, and announces progress and results exactly once. The
// seen-sets are process-local and reset at local midnight.
type Engine struct {
	store    BetStore
	provider StateProvider
	sink     Sink
	loc      *time.Location
	interval time.Duration
	log      *slog.Logger

	quietFrom int // local hour, inclusive
	quietTo   int // local hour, exclusive

	day        string
	energySent map[int64]struct{} // leg ids already announced
	finalSent  map[int64]struct{} // slip ids already closed out
	finalRetry map[int64]string   // rendered finals whose publish failed; slip is already terminal in the store

	now func() time.Time
}

func NewEngine(store BetStore, provider StateProvider, sink Sink, loc *time.Location, interval time.Duration, quietFrom, quietTo int, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	if interval == 0 {
		interval = 60 * time.Second
	}
	return &Engine{
		store:      store,
		provider:   provider,
		sink:       sink,
		loc:        loc,
		interval:   interval,
		log:        log,
		quietFrom:  quietFrom,
		quietTo:    quietTo,
		energySent: make(map[int64]struct{}),
		finalSent:  make(map[int64]struct{}),
		finalRetry: make(map[int64]string),
		now:        time.Now,
	}
}

// Start runs the polling loop until the context is cancelled.
func (e *Engine) Start(ctx context.Context) {
	e.log.Info("live engine started", "interval", e.interval)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("live engine stopped")
			return
		case <-ticker.C:
			if err := e.Tick(ctx); err != nil {
				e.log.Error("live tick failed", "error", err)
			}
		}
	}
}

// Tick runs one settlement pass over all open slips.
func (e *Engine) Tick(ctx context.Context) error {
	now := e.now().In(e.loc)
	e.resetIfNewDay(now)
	if inQuietWindow(now.Hour(), e.quietFrom, e.quietTo) {
		return nil
	}

	// finals whose slip already left the open set must not be lost
	for slipID, text := range e.finalRetry {
		e.deliverFinal(ctx, slipID, text)
	}

	slips, err := e.store.OpenSlips(ctx)
	if err != nil {
		return fmt.Errorf("load open slips: %w", err)
	}
	metrics.OpenSlips.Set(float64(len(slips)))

	states := make(map[int64]models.FixtureState)
	for _, slip := range slips {
		if _, done := e.finalSent[slip.ID]; done {
			continue
		}
		e.settleSlip(ctx, slip, states)
	}
	return nil
}

func (e *Engine) settleSlip(ctx context.Context, slip *models.Slip, states map[int64]models.FixtureState) {
	changed := false
	anyLost := slip.Status == models.SlipLost

	for i := range slip.Legs {
		leg := &slip.Legs[i]
		if leg.Result != models.ResultPending {
			continue
		}

		state, ok := states[leg.FixtureID]
		if !ok {
			var err error
			state, err = e.provider.FixtureState(ctx, leg.FixtureID)
			if err != nil {
				// transient: leg stays PENDING, no speculative settlement
				e.log.Warn("fixture state unavailable", "fixture_id", leg.FixtureID, "error", err)
				continue
			}
			states[leg.FixtureID] = state
		}

		result := Resolve(leg.Market, state.GoalsHome, state.GoalsAway, state.Finished())
		if result == models.ResultPending {
			continue
		}

		// persist the leg before any aggregation or messaging
		if err := e.store.UpdateLegResult(ctx, leg.ID, result, state.GoalsHome, state.GoalsAway); err != nil {
			e.log.Error("failed to persist leg result", "leg_id", leg.ID, "error", err)
			continue
		}
		leg.Result = result
		leg.GoalsHome = state.GoalsHome
		leg.GoalsAway = state.GoalsAway
		changed = true
		metrics.LegsSettled.WithLabelValues(string(result)).Inc()

		if result == models.ResultLost {
			anyLost = true
		}
		if result == models.ResultWon && !anyLost {
			e.announceProgress(ctx, slip, *leg, state.Minute)
		}
	}

	if !changed {
		return
	}

	status, err := e.store.RecalcSlipStatus(ctx, slip.ID)
	if err != nil {
		e.log.Error("failed to recalc slip status", "slip_id", slip.ID, "error", err)
		return
	}
	slip.Status = status
	if status.Terminal() {
		e.announceFinal(ctx, slip, states)
	}
}

func (e *Engine) announceProgress(ctx context.Context, slip *models.Slip, leg models.Leg, minute int) {
	if _, seen := e.energySent[leg.ID]; seen {
		return
	}
	text, ok := templates.Progress(leg, minute, slip.Code)
	if !ok {
		return
	}
	if err := e.sink.Publish(ctx, text); err != nil {
		// leave the leg unmarked so the next tick retries
		e.log.Error("progress publish failed", "leg_id", leg.ID, "error", err)
		return
	}
	e.energySent[leg.ID] = struct{}{}
}

func (e *Engine) announceFinal(ctx context.Context, slip *models.Slip, states map[int64]models.FixtureState) {
	if _, seen := e.finalSent[slip.ID]; seen {
		return
	}

	var text string
	switch slip.Status {
	case models.SlipWon:
		if len(slip.Legs) == 1 {
			leg := slip.Legs[0]
			text = templates.CelebrationSingle(leg, scoreLine(states, leg.FixtureID), slip.EffectiveTotal())
		} else {
			scores := make(map[int64]string, len(slip.Legs))
			for _, l := range slip.Legs {
				scores[l.FixtureID] = scoreLine(states, l.FixtureID)
			}
			text = templates.CelebrationMulti(slip, scores)
		}
	case models.SlipLost:
		lost := lostLegs(slip)
		if len(lost) == 1 {
			text = templates.NearMiss(slip, lost[0])
		} else {
			text = templates.Lost(slip)
		}
	default:
		return
	}

	e.deliverFinal(ctx, slip.ID, text)
}

// deliverFinal publishes a final announcement. The slip is terminal in
// the store by now, so a failed send is kept for retry on later ticks.
func (e *Engine) deliverFinal(ctx context.Context, slipID int64, text string) {
	if _, seen := e.finalSent[slipID]; seen {
		delete(e.finalRetry, slipID)
		return
	}
	if err := e.sink.Publish(ctx, text); err != nil {
		e.log.Error("final publish failed", "slip_id", slipID, "error", err)
		e.finalRetry[slipID] = text
		return
	}
	e.finalSent[slipID] = struct{}{}
	delete(e.finalRetry, slipID)
}

func (e *Engine) resetIfNewDay(now time.Time) {
	day := now.Format("2006-01-02")
	if day != e.day {
		e.day = day
		e.energySent = make(map[int64]struct{})
		e.finalSent = make(map[int64]struct{})
		e.finalRetry = make(map[int64]string)
	}
}

func lostLegs(slip *models.Slip) []models.Leg {
	var out []models.Leg
	for _, l := range slip.Legs {
		if l.Result == models.ResultLost {
			out = append(out, l)
		}
	}
	return out
}

func scoreLine(states map[int64]models.FixtureState, fixtureID int64) string {
	if st, ok := states[fixtureID]; ok {
		return fmt.Sprintf("%d-%d", st.GoalsHome, st.GoalsAway)
	}
	return ""
}

// inQuietWindow reports whether the local hour falls inside the daily
// no-output window [from, to).
func inQuietWindow(hour, from, to int) bool {
	if from == to {
		return false
	}
	if from < to {
		return hour >= from && hour < to
	}
	return hour >= from || hour < to
}
