package orchestration

import (
	"github.com/deltamod3/aida-voice-agent/core/commands"
	"github.com/deltamod3/aida-voice-agent/core/transcript"
)

// SessionState is the connection state of the remote conversation.
type SessionState int32

const (
	Muted SessionState = iota
	Connecting
	Unmuted
)

func (s SessionState) String() string {
	switch s {
	case Muted:
		return "muted"
	case Connecting:
		return "connecting"
	case Unmuted:
		return "unmuted"
	default:
		return "unknown"
	}
}

func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Update is what the display receives every time the transcript projection
// or the session state changes.
type Update struct {
	Command    commands.Command       `json:"command"`
	Utterances []transcript.Utterance `json:"utterances"`
	State      SessionState           `json:"state"`
}
