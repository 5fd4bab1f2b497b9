package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aiprotips/tipsbot/internal/pkg/models"
	"github.com/aiprotips/tipsbot/internal/planner"
	"github.com/aiprotips/tipsbot/internal/templates"
)

// DayPlanner builds the plan for one trading date.
type DayPlanner interface {
	PlanDay(ctx context.Context, date string) (*planner.DayPlan, error)
}

// PlanStore persists planned slips and their scheduled messages.
type PlanStore interface {
	CreateSlip(ctx context.Context, slip *models.Slip) error
	Enqueue(ctx context.Context, item *models.QueueItem) error
	CancelSlipsByDate(ctx context.Context, date string) ([]int64, error)
	CancelMessagesForSlips(ctx context.Context, slipIDs []int64) (int64, error)
}

// MorningJob plans the day once each morning: it persists the chosen
// slips, queues their channel messages at the computed send times, and
// reports the plan to the operator.
type MorningJob struct {
	planner DayPlanner
	store   PlanStore
	sink    Sink
	loc     *time.Location
	log     *slog.Logger

	hour        int // local planning hour
	windowStart int // earliest local publish hour
	lead        time.Duration

	now func() time.Time
}

func NewMorningJob(p DayPlanner, store PlanStore, sink Sink, loc *time.Location, hour, windowStart int, lead time.Duration, log *slog.Logger) *MorningJob {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	if lead == 0 {
		lead = 3 * time.Hour
	}
	return &MorningJob{
		planner:     p,
		store:       store,
		sink:        sink,
		loc:         loc,
		log:         log,
		hour:        hour,
		windowStart: windowStart,
		lead:        lead,
		now:         time.Now,
	}
}

// Start plans every day at the configured local hour until the context
// is cancelled.
func (j *MorningJob) Start(ctx context.Context) {
	j.log.Info("morning job started", "hour", j.hour)
	for {
		next := j.nextRun(j.now().In(j.loc))
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			j.log.Info("morning job stopped")
			return
		case <-timer.C:
			date := j.now().In(j.loc).Format("2006-01-02")
			if _, err := j.PlanOnce(ctx, date); err != nil {
				j.log.Error("morning planning failed", "date", date, "error", err)
				note := fmt.Sprintf("⚠️ Planning for %s failed: %v", date, err)
				if opErr := j.sink.NotifyOperator(ctx, note); opErr != nil {
					j.log.Error("failed to notify operator", "error", opErr)
				}
			}
		}
	}
}

func (j *MorningJob) nextRun(now time.Time) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(), j.hour, 0, 0, 0, j.loc)
	if !run.After(now) {
		run = run.AddDate(0, 0, 1)
	}
	return run
}

// PlanOnce plans one date, persists the result, and schedules the
// channel messages. An empty day is reported, not retried.
func (j *MorningJob) PlanOnce(ctx context.Context, date string) (*planner.DayPlan, error) {
	plan, err := j.planner.PlanDay(ctx, date)
	if err != nil {
		return nil, err
	}

	for _, slip := range plan.Slips {
		if err := j.store.CreateSlip(ctx, slip); err != nil {
			return nil, fmt.Errorf("persist slip %s: %w", slip.Code, err)
		}

		sendAt := SendAt(slip.FirstKickoff(), j.loc, j.windowStart, j.lead)
		item, err := models.NewQueueItem(models.MessageSlip, templates.SlipMessage(slip, j.loc), slip.ID, sendAt)
		if err != nil {
			return nil, fmt.Errorf("build message for slip %s: %w", slip.Code, err)
		}
		if err := j.store.Enqueue(ctx, &item); err != nil {
			return nil, fmt.Errorf("enqueue slip %s: %w", slip.Code, err)
		}
		j.log.Info("slip scheduled",
			"code", slip.Code, "format", slip.Format, "legs", len(slip.Legs),
			"total", slip.Total, "send_at", sendAt)
	}

	report := templates.MorningReport(date, plan.Slips, j.loc)
	if err := j.sink.NotifyOperator(ctx, report); err != nil {
		j.log.Error("failed to send morning report", "error", err)
	}
	return plan, nil
}

// Regenerate cancels the date's open slips and queued messages, then
// plans the date again.
func (j *MorningJob) Regenerate(ctx context.Context, date string) (*planner.DayPlan, error) {
	ids, err := j.store.CancelSlipsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("cancel slips for %s: %w", date, err)
	}
	if _, err := j.store.CancelMessagesForSlips(ctx, ids); err != nil {
		return nil, fmt.Errorf("cancel messages for %s: %w", date, err)
	}
	j.log.Info("day cleared for regeneration", "date", date, "cancelled_slips", len(ids))
	return j.PlanOnce(ctx, date)
}
