package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorillionaire/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type collectingSink struct {
	mu     sync.Mutex
	events []services.Notification
}

func (c *collectingSink) Notify(n services.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, n)
}

func (c *collectingSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestNotifyWorkerDeliversToSink(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &collectingSink{}
	worker := NewNotifyWorker(zaptest.NewLogger(t), sink, 8)
	worker.Start(ctx)

	worker.Notify(services.Notification{Event: services.EventXPGained, Address: "0xa", Points: 10})
	worker.Notify(services.Notification{Event: services.EventStreakUpdate, Address: "0xa", Streak: 3})

	require.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, 10*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, services.EventXPGained, sink.events[0].Event)
	assert.Equal(t, services.EventStreakUpdate, sink.events[1].Event)
}

// A full queue drops instead of blocking the caller.
func TestNotifyWorkerDropsWhenFull(t *testing.T) {
	sink := &collectingSink{}
	worker := NewNotifyWorker(zaptest.NewLogger(t), sink, 1)
	// Not started: the queue cannot drain.

	done := make(chan struct{})
	go func() {
		worker.Notify(services.Notification{Event: services.EventXPGained, Address: "0xa"})
		worker.Notify(services.Notification{Event: services.EventXPGained, Address: "0xb"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
	assert.Len(t, worker.queue, 1)
}
