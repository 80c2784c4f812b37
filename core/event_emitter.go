package orchestration

import (
	"github.com/deltamod3/aida-voice-agent/core/commands"
	"github.com/deltamod3/aida-voice-agent/core/transcript"
)

// emission is an orchestrator output delivered to the registered callbacks.
type emission interface{ emission() }

type stateChanged struct{ from, to SessionState }
type projectionUpdated struct{ update Update }
type utteranceFinalized struct{ utterance transcript.Utterance }
type commandDetected struct {
	command   commands.Command
	utterance transcript.Utterance
}
type agentAudioReady struct {
	itemID string
	wav    []byte
}

func (stateChanged) emission()       {}
func (projectionUpdated) emission()  {}
func (utteranceFinalized) emission() {}
func (commandDetected) emission()    {}
func (agentAudioReady) emission()    {}

type eventEmitter func(emission)

func noopEventEmitter(emission) {}

func newCallbackEventEmitter(opts OrchestrateOptions) eventEmitter {
	return func(event emission) {
		switch typedEvent := event.(type) {
		case stateChanged:
			if opts.onStateChanged != nil {
				opts.onStateChanged(typedEvent.from, typedEvent.to)
			}
		case projectionUpdated:
			if opts.onUpdate != nil {
				opts.onUpdate(typedEvent.update)
			}
		case utteranceFinalized:
			if opts.onUtteranceFinalized != nil {
				opts.onUtteranceFinalized(typedEvent.utterance)
			}
		case commandDetected:
			if opts.onCommand != nil {
				opts.onCommand(typedEvent.command, typedEvent.utterance)
			}
		case agentAudioReady:
			if opts.onAgentAudio != nil {
				opts.onAgentAudio(typedEvent.itemID, typedEvent.wav)
			}
		}
	}
}
