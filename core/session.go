package orchestration

import (
	"context"
	"errors"

	"github.com/deltamod3/aida-voice-agent/core/events"
	"github.com/deltamod3/aida-voice-agent/core/realtime"
	"github.com/deltamod3/aida-voice-agent/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var errNoSession = errors.New("no realtime session configured")

type sessionStep struct {
	name string
	run  func(context.Context) error
}

// connect opens the recorder, the player and the session in that order and
// starts streaming the microphone. A connect while not muted is ignored.
func (o *Orchestrator) connect(ctx context.Context, source events.Source) {
	if o.State() != Muted || !o.connectInFlight.CompareAndSwap(false, true) {
		logger.Debug("connect ignored", "state", o.State(), "source", source)
		return
	}
	defer o.connectInFlight.Store(false)

	ctx, span := tracer.Start(ctx, "connect session")
	defer span.End()
	span.SetAttributes(attribute.String("session.connect_source", string(source)))

	o.setState(Connecting)

	for _, step := range o.connectSteps() {
		if err := panicSafeNamedStep(step.name, step.run)(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.SessionConnectFailuresTotal.WithLabelValues(step.name).Inc()
			logger.Error("failed to connect session", "step", step.name, "error", err)

			if releaseErr := o.releaseResources(ctx); releaseErr != nil {
				logger.Warn("failed to release resources after connect failure", "error", releaseErr)
			}
			o.setState(Muted)
			return
		}
	}

	o.setState(Unmuted)
}

func (o *Orchestrator) connectSteps() []sessionStep {
	return []sessionStep{
		{name: "recorder.begin", run: o.audioInput.Begin},
		{name: "player.connect", run: o.audioOutput.Connect},
		{name: "session.connect", run: func(ctx context.Context) error {
			if o.session == nil {
				return errNoSession
			}
			if err := o.session.UpdateSession(ctx, realtime.SessionConfig{Instructions: o.instructions}); err != nil {
				return err
			}
			return o.session.Connect(ctx)
		}},
		{name: "session.greet", run: func(ctx context.Context) error {
			if o.greeting == "" {
				return nil
			}
			return o.session.SendUserMessageContent(ctx, []realtime.ContentPart{realtime.InputText(o.greeting)})
		}},
		{name: "session.turn_detection", run: func(ctx context.Context) error {
			return o.session.UpdateSession(ctx, realtime.SessionConfig{
				TurnDetection: &realtime.TurnDetection{Type: realtime.TurnDetectionServerVAD},
			})
		}},
		{name: "recorder.record", run: func(context.Context) error {
			if o.audioInput.Recording() {
				if err := o.audioInput.Pause(); err != nil {
					return err
				}
			}
			if o.audioInput.Recording() {
				return nil
			}
			// the recording outlives this event, so it runs on the base context
			return o.audioInput.Record(o.baseContext, o.forwardInputAudio)
		}},
	}
}

// disconnect releases every resource and goes back to muted. It is safe in
// any state.
func (o *Orchestrator) disconnect(ctx context.Context, reason string) {
	ctx, span := tracer.Start(ctx, "disconnect session")
	defer span.End()
	span.SetAttributes(attribute.String("session.disconnect_reason", reason))

	if err := o.releaseResources(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("session teardown incomplete", "reason", reason, "error", err)
	}

	o.setState(Muted)
}

// releaseResources attempts every teardown step and joins the failures.
func (o *Orchestrator) releaseResources(ctx context.Context) error {
	steps := []sessionStep{
		{name: "recorder.end", run: func(context.Context) error { return o.audioInput.End() }},
		{name: "player.stop", run: func(context.Context) error { return o.audioOutput.Stop() }},
	}
	if o.session != nil {
		steps = append(steps,
			sessionStep{name: "session.disconnect", run: func(context.Context) error { return o.session.Disconnect() }},
			sessionStep{name: "session.reset", run: func(context.Context) error { return o.session.Reset() }},
		)
	}

	var errs []error
	for _, step := range steps {
		if err := panicSafeNamedStep(step.name, step.run)(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	clear(o.announcedItems)
	return errors.Join(errs...)
}

func (o *Orchestrator) forwardInputAudio(mono []int16) {
	if o.session == nil {
		return
	}

	if err := o.session.AppendInputAudio(mono); err != nil && !errors.Is(err, realtime.ErrNotConnected) {
		logger.Debug("failed to forward microphone audio", "error", err)
	}
}

func (o *Orchestrator) setState(to SessionState) {
	from := SessionState(o.state.Swap(int32(to)))
	if from == to {
		return
	}

	metrics.SessionState.Set(float64(to))
	metrics.SessionTransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
	logger.Info("session state changed", "from", from.String(), "to", to.String())

	o.emit(stateChanged{from: from, to: to})
	o.emitUpdate()
}
