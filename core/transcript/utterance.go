package transcript

import "strings"

// Word is a single recognized word with its timing, in seconds.
type Word struct {
	Text      string
	StartTime float64
	EndTime   float64
}

// Fragment is one recognition update for the utterance currently being
// spoken. Non-final fragments replace each other, the final one closes the
// utterance.
type Fragment struct {
	BotID                string
	Speaker              *string
	SpeakerID            *string
	Language             *string
	OriginalTranscriptID int64
	Words                []Word
	IsFinal              bool
}

// Text joins the fragment words with single spaces.
func (f Fragment) Text() string {
	words := make([]string, 0, len(f.Words))
	for _, word := range f.Words {
		words = append(words, word.Text)
	}
	return strings.Join(words, " ")
}

// Utterance is a speaker-attributed piece of transcript text.
type Utterance struct {
	Speaker *string `json:"speaker"`
	Text    string  `json:"text"`
}

// SpeakerName returns the speaker label, or an empty string for unknown
// speakers.
func (u Utterance) SpeakerName() string {
	if u.Speaker == nil {
		return ""
	}
	return *u.Speaker
}
