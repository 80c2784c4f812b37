package orchestration

import (
	"context"

	"github.com/deltamod3/aida-voice-agent/core/audio"
	"github.com/deltamod3/aida-voice-agent/core/commands"
	"github.com/deltamod3/aida-voice-agent/core/realtime"
	"github.com/deltamod3/aida-voice-agent/core/transcript"
)

type OrchestratorOption func(*Orchestrator)

// Recorder captures microphone audio. The device is open between Begin and
// End and Recording must be false before Record is called again.
type Recorder interface {
	Begin(ctx context.Context) error
	Record(ctx context.Context, onFrame func(mono []int16)) error
	Pause() error
	End() error
	Recording() bool
}

func WithRecorder(client Recorder) OrchestratorOption {
	return func(o *Orchestrator) { o.audioInput.Set(client) }
}

// Player plays the agent audio. Interrupt reports the track that was
// playing and how many of its samples were played.
type Player interface {
	Connect(ctx context.Context) error
	Add16BitPCM(samples []int16, trackID string) error
	Interrupt() (audio.TrackOffset, bool)
	Stop() error
}

func WithPlayer(client Player) OrchestratorOption {
	return func(o *Orchestrator) { o.audioOutput.Set(client) }
}

// Session is the remote conversational session.
type Session interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Reset() error
	UpdateSession(ctx context.Context, config realtime.SessionConfig) error
	SendUserMessageContent(ctx context.Context, content []realtime.ContentPart) error
	AppendInputAudio(samples []int16) error
	CancelResponse(ctx context.Context, itemID string, sampleCount int) error
	SetEventHandler(handler func(realtime.Event))
}

func WithSession(client Session) OrchestratorOption {
	return func(o *Orchestrator) {
		if isNilClient(client) {
			o.session = nil
			return
		}
		o.session = client
	}
}

func WithDetector(detector *commands.Detector) OrchestratorOption {
	return func(o *Orchestrator) {
		if detector != nil {
			o.detector = detector
		}
	}
}

// WithInstructions sets the instructions the remote agent is configured with
// on every connect.
func WithInstructions(instructions string) OrchestratorOption {
	return func(o *Orchestrator) { o.instructions = instructions }
}

// WithGreeting sets the user message sent right after connecting. An empty
// greeting skips it.
func WithGreeting(greeting string) OrchestratorOption {
	return func(o *Orchestrator) { o.greeting = greeting }
}

// WithAgentSpeaker sets the speaker label of agent utterances.
func WithAgentSpeaker(speaker string) OrchestratorOption {
	return func(o *Orchestrator) {
		if speaker != "" {
			o.agentSpeaker = speaker
		}
	}
}

func WithSampleRate(sampleRate int) OrchestratorOption {
	return func(o *Orchestrator) {
		if sampleRate > 0 {
			o.sampleRate = sampleRate
		}
	}
}

type OrchestrateOptions struct {
	onUpdate             func(update Update)
	onStateChanged       func(from, to SessionState)
	onUtteranceFinalized func(utterance transcript.Utterance)
	onCommand            func(command commands.Command, utterance transcript.Utterance)
	onAgentAudio         func(itemID string, wav []byte)
}

type OrchestrateOption func(*OrchestrateOptions)

// WithUpdateCallback registers the display callback. It receives the full
// projection every time it or the session state changes.
//
// Callbacks run on the orchestrator loop and must not block.
func WithUpdateCallback(callback func(update Update)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onUpdate = callback
	}
}

func WithStateChangedCallback(callback func(from, to SessionState)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onStateChanged = callback
	}
}

// WithUtteranceFinalizedCallback registers a callback for every utterance
// appended to the transcript log, participant and agent ones alike.
func WithUtteranceFinalizedCallback(callback func(utterance transcript.Utterance)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onUtteranceFinalized = callback
	}
}

// WithCommandCallback registers a callback for spoken commands, called
// before the command is acted on.
func WithCommandCallback(callback func(command commands.Command, utterance transcript.Utterance)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onCommand = callback
	}
}

// WithAgentAudioCallback registers a callback receiving a WAV file for every
// completed agent item that carries audio.
func WithAgentAudioCallback(callback func(itemID string, wav []byte)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onAgentAudio = callback
	}
}
