package transcript

import (
	"errors"
	"testing"
)

func TestDecodeMessage(t *testing.T) {
	payload := []byte(`{
		"bot_id": "bot-1",
		"transcript": {
			"speaker": "Bob",
			"speaker_id": "17",
			"language": "en",
			"original_transcript_id": 42,
			"words": [
				{"text": "hey", "start_time": 0.1, "end_time": 0.3},
				{"text": "aida", "start_time": 0.4, "end_time": 0.7}
			],
			"is_final": true
		}
	}`)

	f, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if f.BotID != "bot-1" || f.OriginalTranscriptID != 42 || !f.IsFinal {
		t.Fatalf("unexpected fragment header %+v", f)
	}
	if f.Speaker == nil || *f.Speaker != "Bob" {
		t.Fatalf("expected speaker Bob, got %v", f.Speaker)
	}
	if f.SpeakerID == nil || *f.SpeakerID != "17" {
		t.Fatalf("expected speaker id 17, got %v", f.SpeakerID)
	}
	if len(f.Words) != 2 || f.Words[1].Text != "aida" || f.Words[1].StartTime != 0.4 || f.Words[1].EndTime != 0.7 {
		t.Fatalf("unexpected words %+v", f.Words)
	}
	if f.Text() != "hey aida" {
		t.Fatalf("expected text %q, got %q", "hey aida", f.Text())
	}
}

func TestDecodeMessageNullSpeaker(t *testing.T) {
	f, err := DecodeMessage([]byte(`{"bot_id":"b","transcript":{"speaker":null,"words":[],"is_final":false}}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.Speaker != nil {
		t.Fatalf("expected nil speaker, got %q", *f.Speaker)
	}
}

func TestDecodeMessageRejectsMalformed(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
		target  error
	}{
		{name: "not json", payload: `hello`},
		{name: "missing transcript", payload: `{"bot_id":"b"}`, target: ErrMissingTranscript},
		{name: "wrong type", payload: `{"transcript":{"words":"nope"}}`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := DecodeMessage([]byte(testCase.payload))
			if err == nil {
				t.Fatalf("expected error")
			}
			if testCase.target != nil && !errors.Is(err, testCase.target) {
				t.Fatalf("expected %v, got %v", testCase.target, err)
			}
		})
	}
}

func TestMessageSchemaDescribesTranscript(t *testing.T) {
	schema := MessageSchema()
	if schema == nil || schema.Properties == nil {
		t.Fatalf("expected schema with properties")
	}
	if _, ok := schema.Properties.Get("transcript"); !ok {
		t.Fatalf("expected transcript property in schema")
	}
	if _, ok := schema.Properties.Get("bot_id"); !ok {
		t.Fatalf("expected bot_id property in schema")
	}
}
