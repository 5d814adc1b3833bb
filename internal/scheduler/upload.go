package scheduler

import (
	"context"
	"time"

	"github.com/nerrad567/weather-node/internal/connectivity"
	"github.com/nerrad567/weather-node/internal/telemetry"
)

// drain is one pass over the offline queue. Entries are sent head first,
// one per due step, and the delivered prefix is dropped when the pass ends.
type drain struct {
	entries []telemetry.Reading
	sent    int
	nextAt  time.Time
}

// upload runs when the upload timer fires.
func (s *Scheduler) upload(ctx context.Context, now time.Time, current telemetry.Reading) {
	switch {
	case s.supervisor.State() != connectivity.Connected:
		s.enqueue(ctx, current)
	case s.drain != nil:
		// The in-flight batch is older than current.
		s.enqueue(ctx, current)
	case s.queue.Len(ctx) > 0:
		// current joins the tail so the batch stays in capture order and
		// is durable before the first send.
		s.enqueue(ctx, current)
		s.startDrain(ctx, now)
	default:
		s.sendOrQueue(ctx, current)
	}
}

// startDrain begins a drain if the queue has entries.
func (s *Scheduler) startDrain(ctx context.Context, now time.Time) {
	entries := s.queue.DrainAll(ctx)
	if len(entries) == 0 {
		return
	}
	s.drain = &drain{entries: entries, nextAt: now}
	s.logger.Info("draining offline queue", "entries", len(entries))
}

// stepDrain sends at most one entry, paced by the upload pacing interval.
func (s *Scheduler) stepDrain(ctx context.Context, now time.Time) {
	d := s.drain
	if d == nil || now.Before(d.nextAt) {
		return
	}

	if s.supervisor.State() != connectivity.Connected {
		s.logger.Warn("link lost during drain", "sent", d.sent, "remaining", len(d.entries)-d.sent)
		s.settle(ctx)
		return
	}

	if !s.sink.Send(ctx, d.entries[d.sent]) {
		s.logger.Warn("drain stopped at first failed upload",
			"sent", d.sent,
			"remaining", len(d.entries)-d.sent,
		)
		s.settle(ctx)
		return
	}
	d.sent++

	if d.sent < len(d.entries) {
		d.nextAt = now.Add(s.pacing)
		return
	}
	s.logger.Info("offline queue drained", "sent", d.sent)
	s.settle(ctx)
}

// settle drops the delivered prefix from the queue and ends the drain.
// Entries appended while the drain was running stay behind it.
func (s *Scheduler) settle(ctx context.Context) {
	d := s.drain
	s.drain = nil
	if d.sent == 0 {
		return
	}
	if err := s.queue.DropHead(ctx, d.sent); err != nil {
		s.logger.Error("failed to drop delivered entries", "count", d.sent, "error", err)
	}
}

func (s *Scheduler) sendOrQueue(ctx context.Context, r telemetry.Reading) {
	if s.sink.Send(ctx, r) {
		return
	}
	s.enqueue(ctx, r)
}

func (s *Scheduler) enqueue(ctx context.Context, r telemetry.Reading) {
	if err := s.queue.Append(ctx, r); err != nil {
		s.logger.Error("offline queue append failed, reading lost",
			"timestamp", r.Timestamp,
			"error", err,
		)
		return
	}
	s.logger.Debug("reading queued", "timestamp", r.Timestamp)
}
