package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/conectapg/occurrence-service/internal/events"
)

// EventWorker drains the dispatcher queue and runs subscribed handlers.
type EventWorker struct {
	dispatcher     *events.AsyncDispatcher
	logger         *zap.Logger
	handlerTimeout time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewEventWorker constructs a worker. handlerTimeout bounds each delivery.
func NewEventWorker(dispatcher *events.AsyncDispatcher, logger *zap.Logger, handlerTimeout time.Duration) *EventWorker {
	if handlerTimeout <= 0 {
		handlerTimeout = 5 * time.Second
	}
	return &EventWorker{
		dispatcher:     dispatcher,
		logger:         logger,
		handlerTimeout: handlerTimeout,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Start launches the delivery loop in its own goroutine.
func (w *EventWorker) Start() {
	go w.run()
}

// Stop delivers whatever is already queued and waits for the loop to exit.
func (w *EventWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

func (w *EventWorker) run() {
	defer close(w.done)
	queue := w.dispatcher.Queue()
	for {
		select {
		case event := <-queue:
			w.deliver(event)
		case <-w.stop:
			for {
				select {
				case event := <-queue:
					w.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (w *EventWorker) deliver(event events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), w.handlerTimeout)
	defer cancel()

	if err := w.dispatcher.Deliver(ctx, event); err != nil {
		w.logger.Warn("event handler failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}
