package transcript

import (
	"errors"
	"testing"
)

func TestDecodeDeepgramResults(t *testing.T) {
	payload := []byte(`{
		"type": "Results",
		"is_final": true,
		"channel": {"alternatives": [{
			"transcript": "hey aida",
			"words": [
				{"word": "hey", "punctuated_word": "Hey", "start": 0.1, "end": 0.2, "speaker": 1},
				{"word": "aida", "start": 0.3, "end": 0.5, "speaker": 1}
			]
		}]}
	}`)

	f, err := DecodeDeepgram(payload)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !f.IsFinal {
		t.Fatalf("expected final fragment")
	}
	if f.Text() != "Hey aida" {
		t.Fatalf("expected text %q, got %q", "Hey aida", f.Text())
	}
	if f.Speaker == nil || *f.Speaker != "Speaker 1" {
		t.Fatalf("expected diarized speaker, got %v", f.Speaker)
	}
}

func TestDecodeDeepgramIgnoresOtherMessages(t *testing.T) {
	_, err := DecodeDeepgram([]byte(`{"type":"SpeechStarted"}`))
	if !errors.Is(err, ErrIgnoredMessage) {
		t.Fatalf("expected ErrIgnoredMessage, got %v", err)
	}
}

func TestDecodeDeepgramWithoutAlternatives(t *testing.T) {
	f, err := DecodeDeepgram([]byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[]}}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(f.Words) != 0 || f.Speaker != nil {
		t.Fatalf("expected empty fragment, got %+v", f)
	}
}
