package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/conectapg/occurrence-service/internal/events"
)

func TestEventWorker_DeliversQueuedEvents(t *testing.T) {
	dispatcher := events.NewAsyncDispatcher(8)

	var (
		mu   sync.Mutex
		seen []string
	)
	dispatcher.Subscribe(events.EventOccurrenceCreated, func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.ID)
		return nil
	})

	w := NewEventWorker(dispatcher, zaptest.NewLogger(t), time.Second)
	w.Start()

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.Event{ID: "e1", Type: events.EventOccurrenceCreated}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{ID: "e2", Type: events.EventOccurrenceCreated}))

	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"e1", "e2"}, seen)
}

func TestEventWorker_StopIsIdempotent(t *testing.T) {
	w := NewEventWorker(events.NewAsyncDispatcher(1), zaptest.NewLogger(t), 0)
	w.Start()
	w.Stop()
	w.Stop()
}
