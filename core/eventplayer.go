package orchestration

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/deltamod3/aida-voice-agent/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// inboxCapacity bounds the events waiting for the loop. Audio deltas arrive
// every few tens of milliseconds while the agent talks.
const inboxCapacity = 256

// eventPlayer is the orchestrator inbox. It plays queued events one at a
// time on a single goroutine, so a connect sequence always settles before
// the next event is looked at.
type eventPlayer struct {
	queue   chan eventQueueItem
	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once

	started atomic.Bool
}

func newEventPlayer() *eventPlayer {
	return &eventPlayer{
		queue:   make(chan eventQueueItem, inboxCapacity),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (b *eventPlayer) CanIngest() bool {
	if b == nil {
		return false
	}

	select {
	case <-b.closeCh:
		return false
	default:
		return true
	}
}

func (loop *eventPlayer) StartLoop(baseCtx context.Context, handle func(context.Context, events.Event)) (started bool) {
	if loop == nil || handle == nil || !loop.CanIngest() {
		return false
	}

	loop.startOnce.Do(func() {
		if !loop.CanIngest() {
			return
		}

		started = true
		loop.started.Store(true)
		go func() {
			defer close(loop.done)

			for {
				select {
				case <-loop.closeCh:
					return
				case queuedEvent := <-loop.queue:
					if !loop.CanIngest() {
						return
					}
					loop.processQueuedEvent(baseCtx, queuedEvent, handle)
				}
			}
		}()
	})

	return started
}

func (loop *eventPlayer) Stop() {
	if loop == nil {
		return
	}

	loop.endOnce.Do(func() { close(loop.closeCh) })
}

func (loop *eventPlayer) AwaitDone() {
	if loop == nil {
		return
	}

	if loop.started.Load() {
		<-loop.done
	}
}

type eventQueueItem struct {
	event    events.Event
	queuedAt time.Time
}

func (loop *eventPlayer) Ingest(event events.Event) bool {
	if loop == nil || event == nil || !loop.CanIngest() {
		return false
	}

	queueItem := eventQueueItem{event: event, queuedAt: time.Now()}
	select {
	case <-loop.closeCh:
		return false
	case loop.queue <- queueItem:
		return true
	}
}

func (loop *eventPlayer) processQueuedEvent(
	baseContext context.Context,
	queuedEvent eventQueueItem,
	handle func(context.Context, events.Event),
) {
	eventCtx, eventCancel := context.WithCancel(baseContext)
	defer eventCancel()

	go func() {
		select {
		case <-loop.closeCh:
			eventCancel()
		case <-eventCtx.Done():
		}
	}()

	ctx, span := tracer.Start(eventCtx, "process event")
	defer span.End()

	event := queuedEvent.event
	queuedTime := time.Since(queuedEvent.queuedAt).Seconds()
	span.AddEvent("taken out of queue", trace.WithAttributes(attribute.Float64("event.queued_time", queuedTime)))
	span.SetAttributes(
		attribute.String("event.kind", string(event.Kind())),
		attribute.String("event.namespace", event.Kind().Namespace()),
		attribute.Float64("event.queued_time", queuedTime),
	)

	defer func() {
		if recovered := recover(); recovered != nil {
			err := fmt.Errorf("handling %s panicked: %v", event.Kind(), recovered)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error("recovered from panic in orchestrator loop", "kind", event.Kind(), "error", err)
		}
	}()

	handle(ctx, event)
}

func (loop *eventPlayer) queuedEventCount() int {
	if loop == nil {
		return 0
	}

	return len(loop.queue)
}
