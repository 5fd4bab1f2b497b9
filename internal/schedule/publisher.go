package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aiprotips/tipsbot/internal/pkg/metrics"
	"github.com/aiprotips/tipsbot/internal/pkg/models"
)

// Queue is the durable message queue the publisher drains.
type Queue interface {
	DueNow(ctx context.Context, now time.Time) ([]*models.QueueItem, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, maxAttempts int) (bool, error)
}

// Sink delivers messages to the public channel and to the operator.
type Sink interface {
	Publish(ctx context.Context, text string) error
	NotifyOperator(ctx context.Context, text string) error
}

// Publisher drains due queue items into the channel. A failed send
// leaves the item QUEUED for the next flush; once the attempt budget is
// spent the item is cancelled and the operator is told.
type Publisher struct {
	queue       Queue
	sink        Sink
	interval    time.Duration
	maxAttempts int
	log         *slog.Logger

	now func() time.Time
}

func NewPublisher(queue Queue, sink Sink, interval time.Duration, maxAttempts int, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	if interval == 0 {
		interval = 30 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Publisher{
		queue:       queue,
		sink:        sink,
		interval:    interval,
		maxAttempts: maxAttempts,
		log:         log,
		now:         time.Now,
	}
}

// Start runs the flush loop until the context is cancelled.
func (p *Publisher) Start(ctx context.Context) {
	p.log.Info("publisher started", "interval", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("publisher stopped")
			return
		case <-ticker.C:
			if err := p.Flush(ctx); err != nil {
				p.log.Error("flush failed", "error", err)
			}
		}
	}
}

// Flush delivers every due message once.
func (p *Publisher) Flush(ctx context.Context) error {
	items, err := p.queue.DueNow(ctx, p.now())
	if err != nil {
		return fmt.Errorf("load due messages: %w", err)
	}

	for _, item := range items {
		if err := p.sink.Publish(ctx, item.Body); err != nil {
			metrics.PublishFailures.Inc()
			p.log.Error("message delivery failed",
				"message_id", item.ID, "attempt", item.Attempts+1, "error", err)

			gaveUp, markErr := p.queue.MarkFailed(ctx, item.ID, p.maxAttempts)
			if markErr != nil {
				p.log.Error("failed to record delivery failure", "message_id", item.ID, "error", markErr)
				continue
			}
			if gaveUp {
				note := fmt.Sprintf("⚠️ Message #%d dropped after %d failed attempts.", item.ShortID, p.maxAttempts)
				if opErr := p.sink.NotifyOperator(ctx, note); opErr != nil {
					p.log.Error("failed to notify operator", "message_id", item.ID, "error", opErr)
				}
			}
			continue
		}

		if err := p.queue.MarkSent(ctx, item.ID); err != nil {
			// already delivered; a duplicate on the next flush beats a lost mark
			p.log.Error("failed to mark message sent", "message_id", item.ID, "error", err)
			continue
		}
		metrics.MessagesPublished.Inc()
		p.log.Info("message published", "message_id", item.ID, "kind", item.Kind)
	}
	return nil
}
