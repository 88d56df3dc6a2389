package workers

import (
	"context"

	"gorillionaire/services"

	"go.uber.org/zap"
)

// NotifyWorker decouples ledger commits from notification side-effects: the
// ledger enqueues without blocking, the worker drains to the configured sink.
// When the buffer is full the notification is dropped and logged — a missed
// Discord ping must never stall or fail a point award.
type NotifyWorker struct {
	log   *zap.Logger
	sink  services.Notifier
	queue chan services.Notification
}

func NewNotifyWorker(log *zap.Logger, sink services.Notifier, buffer int) *NotifyWorker {
	if buffer <= 0 {
		buffer = 256
	}
	if sink == nil {
		sink = services.NopNotifier{}
	}
	return &NotifyWorker{
		log:   log,
		sink:  sink,
		queue: make(chan services.Notification, buffer),
	}
}

// Notify enqueues without blocking. Implements services.Notifier.
func (w *NotifyWorker) Notify(n services.Notification) {
	select {
	case w.queue <- n:
	default:
		w.log.Warn("notification queue full, dropping event",
			zap.String("event", n.Event),
			zap.String("address", n.Address),
		)
	}
}

// Start drains the queue until ctx is cancelled.
func (w *NotifyWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *NotifyWorker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-w.queue:
			w.sink.Notify(n)
		}
	}
}
