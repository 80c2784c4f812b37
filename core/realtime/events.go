package realtime

import (
	"fmt"

	"github.com/google/uuid"
)

type EventType string

const (
	EventError                   EventType = "error"
	EventDisconnected            EventType = "disconnected"
	EventConversationInterrupted EventType = "conversation.interrupted"
	EventConversationUpdated     EventType = "conversation.updated"
)

// Event is what the client reports to its handler. Item and Delta are only
// set for conversation updates.
type Event struct {
	Type  EventType
	Err   error
	Item  *Item
	Delta *Delta
}

type Delta struct {
	Audio      []int16
	Transcript string
	Text       string
}

// ServerError is an error event sent by the remote session.
type ServerError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ServerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("realtime %s (%s): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("realtime %s: %s", e.Type, e.Message)
}

// Outbound events.

type clientEvent struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
}

func newClientEvent(eventType string) clientEvent {
	return clientEvent{EventID: "evt_" + uuid.NewString(), Type: eventType}
}

type sessionUpdateEvent struct {
	clientEvent
	Session SessionConfig `json:"session"`
}

type userMessage struct {
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

type itemCreateEvent struct {
	clientEvent
	Item userMessage `json:"item"`
}

type audioAppendEvent struct {
	clientEvent
	Audio string `json:"audio"`
}

type itemTruncateEvent struct {
	clientEvent
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMs   int    `json:"audio_end_ms"`
}

// Inbound events, flattened into one envelope.

type serverEvent struct {
	Type         string       `json:"type"`
	EventID      string       `json:"event_id"`
	ItemID       string       `json:"item_id"`
	ContentIndex int          `json:"content_index"`
	Delta        string       `json:"delta"`
	Transcript   string       `json:"transcript"`
	Item         *serverItem  `json:"item"`
	Error        *ServerError `json:"error"`
}

type serverItem struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Role    string          `json:"role"`
	Status  string          `json:"status"`
	Content []serverContent `json:"content"`
}

type serverContent struct {
	Type       string `json:"type"`
	Text       string `json:"text"`
	Transcript string `json:"transcript"`
}

const (
	serverEventError                = "error"
	serverEventItemCreated          = "conversation.item.created"
	serverEventOutputItemAdded      = "response.output_item.added"
	serverEventOutputItemDone       = "response.output_item.done"
	serverEventAudioDelta           = "response.audio.delta"
	serverEventAudioTranscriptDelta = "response.audio_transcript.delta"
	serverEventTextDelta            = "response.text.delta"
	serverEventInputTranscription   = "conversation.item.input_audio_transcription.completed"
	serverEventSpeechStarted        = "input_audio_buffer.speech_started"
)
