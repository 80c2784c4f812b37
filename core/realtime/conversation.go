package realtime

import (
	"encoding/base64"
	"fmt"

	"github.com/deltamod3/aida-voice-agent/core/audio"
)

const (
	ItemStatusCompleted = "completed"

	ItemTypeMessage = "message"
	RoleAssistant   = "assistant"
	RoleUser        = "user"
)

// Item is a conversation item as accumulated from server events.
type Item struct {
	ID        string
	Type      string
	Role      string
	Status    string
	Formatted Formatted

	// audioContentIndex is the index of the audio content part, -1 until
	// the item carries audio
	audioContentIndex int
}

type Formatted struct {
	Audio      []int16
	Text       string
	Transcript string
}

// HasAudio reports whether the item carries an audio content part.
func (i Item) HasAudio() bool {
	return i.audioContentIndex >= 0
}

// conversation tracks the items of one session by id. It is only accessed
// with the client lock held.
type conversation struct {
	items map[string]*Item
	order []string
}

func newConversation() *conversation {
	return &conversation{items: map[string]*Item{}}
}

func (c *conversation) item(id string) (*Item, bool) {
	item, ok := c.items[id]
	return item, ok
}

func (c *conversation) upsert(msg *serverItem) *Item {
	item, ok := c.items[msg.ID]
	if !ok {
		item = &Item{ID: msg.ID, Type: msg.Type, Role: msg.Role, audioContentIndex: -1}
		c.items[msg.ID] = item
		c.order = append(c.order, msg.ID)
	}

	if msg.Status != "" {
		item.Status = msg.Status
	}
	for i, content := range msg.Content {
		switch content.Type {
		case "input_text", "text":
			if content.Text != "" {
				item.Formatted.Text = content.Text
			}
		case "audio", "input_audio":
			if item.audioContentIndex < 0 {
				item.audioContentIndex = i
			}
			if content.Transcript != "" {
				item.Formatted.Transcript = content.Transcript
			}
		}
	}

	return item
}

// process applies a server event to the store and returns the resulting
// conversation update, or nil if the event does not change an item.
func (c *conversation) process(event serverEvent) (*Event, error) {
	switch event.Type {
	case serverEventItemCreated, serverEventOutputItemAdded, serverEventOutputItemDone:
		if event.Item == nil {
			return nil, fmt.Errorf("%s without item", event.Type)
		}
		return c.updated(c.upsert(event.Item), nil), nil

	case serverEventAudioDelta:
		item, ok := c.item(event.ItemID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownItem, event.ItemID)
		}
		raw, err := base64.StdEncoding.DecodeString(event.Delta)
		if err != nil {
			return nil, fmt.Errorf("failed to decode audio delta: %w", err)
		}
		samples := audio.PCM16FromBytes(raw)
		if item.audioContentIndex < 0 {
			item.audioContentIndex = event.ContentIndex
		}
		item.Formatted.Audio = append(item.Formatted.Audio, samples...)
		return c.updated(item, &Delta{Audio: samples}), nil

	case serverEventAudioTranscriptDelta:
		item, ok := c.item(event.ItemID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownItem, event.ItemID)
		}
		item.Formatted.Transcript += event.Delta
		return c.updated(item, &Delta{Transcript: event.Delta}), nil

	case serverEventTextDelta:
		item, ok := c.item(event.ItemID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownItem, event.ItemID)
		}
		item.Formatted.Text += event.Delta
		return c.updated(item, &Delta{Text: event.Delta}), nil

	case serverEventInputTranscription:
		item, ok := c.item(event.ItemID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownItem, event.ItemID)
		}
		item.Formatted.Transcript = event.Transcript
		return c.updated(item, &Delta{Transcript: event.Transcript}), nil
	}

	return nil, nil
}

// updated snapshots the item so handlers never share the stored pointer.
// The audio slice is only ever appended to, so sharing its prefix is safe.
func (c *conversation) updated(item *Item, delta *Delta) *Event {
	snapshot := *item
	return &Event{Type: EventConversationUpdated, Item: &snapshot, Delta: delta}
}
