package events

import (
	"errors"
	"testing"

	"github.com/deltamod3/aida-voice-agent/core/realtime"
	"github.com/deltamod3/aida-voice-agent/core/transcript"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "fragment received", event: NewFragmentReceived(transcript.Fragment{}), expected: KindFragmentReceived},
		{name: "connect requested", event: NewConnectRequested(SourceVoice), expected: KindConnectRequested},
		{name: "disconnect requested", event: NewDisconnectRequested(SourceControl), expected: KindDisconnectRequested},
		{name: "session failed", event: NewSessionFailed(errors.New("boom")), expected: KindSessionFailed},
		{name: "session disconnected", event: NewSessionDisconnected(), expected: KindSessionDisconnected},
		{name: "conversation updated", event: NewConversationUpdated(realtime.Item{}, nil), expected: KindConversationUpdated},
		{name: "conversation interrupted", event: NewConversationInterrupted(), expected: KindConversationInterrupted},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if testCase.event.Timestamp().IsZero() {
				t.Fatalf("expected timestamp to be set")
			}
		})
	}
}

func TestFromSession(t *testing.T) {
	testCases := []struct {
		name     string
		event    realtime.Event
		expected Kind
		ok       bool
	}{
		{name: "error", event: realtime.Event{Type: realtime.EventError, Err: errors.New("boom")}, expected: KindSessionFailed, ok: true},
		{name: "disconnected", event: realtime.Event{Type: realtime.EventDisconnected}, expected: KindSessionDisconnected, ok: true},
		{name: "interrupted", event: realtime.Event{Type: realtime.EventConversationInterrupted}, expected: KindConversationInterrupted, ok: true},
		{name: "updated", event: realtime.Event{Type: realtime.EventConversationUpdated, Item: &realtime.Item{ID: "item_1"}}, expected: KindConversationUpdated, ok: true},
		{name: "updated without item", event: realtime.Event{Type: realtime.EventConversationUpdated}, ok: false},
		{name: "unknown", event: realtime.Event{Type: "rate_limits.updated"}, ok: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			event, ok := FromSession(testCase.event)
			if ok != testCase.ok {
				t.Fatalf("expected ok=%t, got %t", testCase.ok, ok)
			}
			if ok && event.Kind() != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, event.Kind())
			}
		})
	}
}

func TestSessionFailedKeepsError(t *testing.T) {
	cause := errors.New("boom")
	event, _ := FromSession(realtime.Event{Type: realtime.EventError, Err: cause})

	failed, ok := event.(SessionFailed)
	if !ok || !errors.Is(failed.Err, cause) {
		t.Fatalf("expected SessionFailed carrying the cause, got %#v", event)
	}
}

func TestKindNamespace(t *testing.T) {
	testCases := map[Kind]string{
		KindFragmentReceived:        "transcript",
		KindConnectRequested:        "session",
		KindConversationInterrupted: "conversation",
		Kind("bare"):                "bare",
	}

	for kind, expected := range testCases {
		if got := kind.Namespace(); got != expected {
			t.Fatalf("expected namespace %q for %q, got %q", expected, kind, got)
		}
	}
}
