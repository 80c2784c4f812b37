package orchestration

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/deltamod3/aida-voice-agent/core/audio"
	"github.com/deltamod3/aida-voice-agent/core/commands"
	"github.com/deltamod3/aida-voice-agent/core/events"
	"github.com/deltamod3/aida-voice-agent/core/realtime"
	"github.com/deltamod3/aida-voice-agent/core/transcript"
)

const (
	DefaultAgentSpeaker = "Aida"
	DefaultGreeting     = "Hello!"
)

// Orchestrator folds the transcript feed into utterances, reacts to spoken
// commands and drives the remote conversation. All state changes happen on a
// single loop fed by one inbox.
type Orchestrator struct {
	transcript *transcript.Log
	detector   *commands.Detector

	// audioInput is the recorder facade, audioOutput the player facade
	audioInput  audioInput
	audioOutput audioOutput
	session     Session

	instructions string
	greeting     string
	agentSpeaker string
	sampleRate   int

	state           atomic.Int32
	lastCommand     atomic.Int32
	connectInFlight atomic.Bool

	// announcedItems holds the agent items already added to the transcript,
	// only touched on the loop
	announcedItems map[string]struct{}

	inbox              *eventPlayer
	emit               eventEmitter
	orchestrateOptions OrchestrateOptions
	baseContext        context.Context

	orchestrateOnce sync.Once
	closeOnce       sync.Once
	cancelHook      chan struct{}
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		transcript:     transcript.NewLog(),
		detector:       commands.New(),
		greeting:       DefaultGreeting,
		agentSpeaker:   DefaultAgentSpeaker,
		sampleRate:     audio.DefaultSampleRate,
		announcedItems: map[string]struct{}{},
		inbox:          newEventPlayer(),
		emit:           noopEventEmitter,
		baseContext:    context.Background(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Orchestrate starts the orchestrator loop. Events handed in before the loop
// starts are kept and played in order.
//
// ctx is the base context of every step and cancelling it closes the
// orchestrator. Orchestrate only has an effect the first time it is called.
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) {
	if !o.inbox.CanIngest() {
		logger.Warn("orchestrator already closed, skipping Orchestrate")
		return
	}

	started := false
	o.orchestrateOnce.Do(func() {
		o.orchestrateOptions = OrchestrateOptions{}
		for _, opt := range opts {
			opt(&o.orchestrateOptions)
		}
		o.emit = newCallbackEventEmitter(o.orchestrateOptions)
		o.baseContext = ctx

		if o.session != nil {
			o.session.SetEventHandler(o.handleSessionEvent)
		}

		if started = o.inbox.StartLoop(ctx, o.handle); started {
			o.cancelHook = withContextCancelHook(ctx, o.Close)
		}
	})

	if !started {
		logger.Warn("orchestrator already running, skipping Orchestrate")
	}
}

// Close stops the loop, releases every resource that is still open and
// resets the session.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.inbox.Stop()
		o.inbox.AwaitDone()
		if o.cancelHook != nil {
			close(o.cancelHook)
		}

		ctx := context.WithoutCancel(o.baseContext)
		if o.State() != Muted || o.audioInput.IsOpen() || o.audioOutput.IsOpen() {
			o.disconnect(ctx, "orchestrator closed")
			return
		}

		if o.session != nil {
			if err := panicSafeNamedStep("session.reset", func(context.Context) error { return o.session.Reset() })(ctx); err != nil {
				logger.Warn("failed to reset session", "error", err)
			}
		}
	})
}

// Handle queues any orchestrator input.
func (o *Orchestrator) Handle(event events.Event) bool { return o.inbox.Ingest(event) }

// HandleFragment queues a transcript fragment. It is the handler for the
// transcript stream.
func (o *Orchestrator) HandleFragment(fragment transcript.Fragment) {
	o.Handle(events.NewFragmentReceived(fragment))
}

// Connect asks to join the conversation as if the wake command was spoken.
func (o *Orchestrator) Connect() bool {
	return o.Handle(events.NewConnectRequested(events.SourceControl))
}

// Disconnect asks to leave the conversation as if the mute command was
// spoken.
func (o *Orchestrator) Disconnect() bool {
	return o.Handle(events.NewDisconnectRequested(events.SourceControl))
}

func (o *Orchestrator) State() SessionState { return SessionState(o.state.Load()) }

// Utterances returns the finalized utterances followed by the one in
// progress.
func (o *Orchestrator) Utterances() []transcript.Utterance { return o.transcript.Utterances() }

// Snapshot returns what the display would currently show.
func (o *Orchestrator) Snapshot() Update {
	return Update{
		Command:    commands.Command(o.lastCommand.Load()),
		Utterances: o.transcript.Utterances(),
		State:      o.State(),
	}
}

// PendingEvents reports how many inputs wait for the loop.
func (o *Orchestrator) PendingEvents() int { return o.inbox.queuedEventCount() }

func (o *Orchestrator) handleSessionEvent(event realtime.Event) {
	if input, ok := events.FromSession(event); ok {
		o.inbox.Ingest(input)
	}
}

func (o *Orchestrator) handle(ctx context.Context, event events.Event) {
	switch typedEvent := event.(type) {
	case events.FragmentReceived:
		o.handleFragment(ctx, typedEvent.Fragment)
	case events.ConnectRequested:
		o.connect(ctx, typedEvent.Source)
	case events.DisconnectRequested:
		o.disconnect(ctx, "disconnect requested by "+string(typedEvent.Source))
	case events.SessionFailed:
		if o.State() == Muted {
			return
		}
		logger.Error("realtime session failed", "error", typedEvent.Err)
		o.disconnect(ctx, "session failed")
	case events.SessionDisconnected:
		if o.State() == Muted {
			return
		}
		o.disconnect(ctx, "session disconnected")
	case events.ConversationUpdated:
		o.handleConversationUpdated(ctx, typedEvent)
	case events.ConversationInterrupted:
		o.handleInterruption(ctx)
	default:
		logger.Warn("unhandled orchestrator event", "kind", event.Kind())
	}
}
