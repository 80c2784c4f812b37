package events

import "github.com/deltamod3/aida-voice-agent/core/realtime"

const (
	KindConversationUpdated     Kind = "conversation.updated"
	KindConversationInterrupted Kind = "conversation.interrupted"
)

type ConversationUpdated struct {
	Base
	Item  realtime.Item
	Delta *realtime.Delta
}

func NewConversationUpdated(item realtime.Item, delta *realtime.Delta) ConversationUpdated {
	return ConversationUpdated{Base: NewBase(KindConversationUpdated), Item: item, Delta: delta}
}

type ConversationInterrupted struct {
	Base
}

func NewConversationInterrupted() ConversationInterrupted {
	return ConversationInterrupted{Base: NewBase(KindConversationInterrupted)}
}

// FromSession maps a realtime session event to its orchestrator input. It
// returns false for events the orchestrator does not consume.
func FromSession(event realtime.Event) (Event, bool) {
	switch event.Type {
	case realtime.EventError:
		return NewSessionFailed(event.Err), true
	case realtime.EventDisconnected:
		return NewSessionDisconnected(), true
	case realtime.EventConversationInterrupted:
		return NewConversationInterrupted(), true
	case realtime.EventConversationUpdated:
		if event.Item == nil {
			return nil, false
		}
		return NewConversationUpdated(*event.Item, event.Delta), true
	}
	return nil, false
}
