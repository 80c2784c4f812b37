package transcript

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
)

var (
	ErrMissingTranscript = errors.New("message has no transcript")
	ErrIgnoredMessage    = errors.New("message carries no transcript update")
)

// Decoder turns a raw socket payload into a fragment.
type Decoder func(payload []byte) (Fragment, error)

// Message is the payload pushed by the meeting bot on the transcript socket.
type Message struct {
	BotID      string             `json:"bot_id" jsonschema:"description=Identifier of the meeting bot"`
	Transcript *TranscriptMessage `json:"transcript" jsonschema:"required"`
}

type TranscriptMessage struct {
	Speaker              *string       `json:"speaker"`
	SpeakerID            *string       `json:"speaker_id"`
	Language             *string       `json:"language"`
	OriginalTranscriptID int64         `json:"original_transcript_id"`
	Words                []WordMessage `json:"words"`
	IsFinal              bool          `json:"is_final"`
}

type WordMessage struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// DecodeMessage decodes the native bot payload.
func DecodeMessage(payload []byte) (Fragment, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Fragment{}, fmt.Errorf("failed to unmarshal transcript message: %w", err)
	}

	if msg.Transcript == nil {
		return Fragment{}, ErrMissingTranscript
	}

	return msg.Fragment()
}

// Fragment converts the wire message into its domain form.
func (m Message) Fragment() (Fragment, error) {
	if m.Transcript == nil {
		return Fragment{}, ErrMissingTranscript
	}

	fragment := Fragment{
		BotID:                m.BotID,
		Speaker:              m.Transcript.Speaker,
		SpeakerID:            m.Transcript.SpeakerID,
		Language:             m.Transcript.Language,
		OriginalTranscriptID: m.Transcript.OriginalTranscriptID,
		IsFinal:              m.Transcript.IsFinal,
	}
	if err := copier.Copy(&fragment.Words, &m.Transcript.Words); err != nil {
		return Fragment{}, fmt.Errorf("failed to convert transcript words: %w", err)
	}

	return fragment, nil
}
