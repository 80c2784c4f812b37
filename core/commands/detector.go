// Package commands recognizes spoken wake and mute phrases in finalized
// transcript text.
package commands

import (
	"strings"
	"unicode"
)

type Command int

const (
	None Command = iota
	Connect
	Disconnect
)

func (c Command) String() string {
	switch c {
	case Connect:
		return "connect"
	case Disconnect:
		return "disconnect"
	default:
		return "none"
	}
}

func (c Command) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

var (
	DefaultWakePhrases = []string{"hey aida", "aida listen", "start listening"}
	DefaultMutePhrases = []string{"aida mute", "stop listening"}
)

type Detector struct {
	wakePhrases []string
	mutePhrases []string
}

type Option func(*Detector)

// WithWakePhrases replaces the phrases that request a connection. Empty
// phrases are ignored.
func WithWakePhrases(phrases ...string) Option {
	return func(d *Detector) { d.wakePhrases = normalizePhrases(phrases) }
}

// WithMutePhrases replaces the phrases that request a disconnection. Empty
// phrases are ignored.
func WithMutePhrases(phrases ...string) Option {
	return func(d *Detector) { d.mutePhrases = normalizePhrases(phrases) }
}

func New(opts ...Option) *Detector {
	d := &Detector{
		wakePhrases: normalizePhrases(DefaultWakePhrases),
		mutePhrases: normalizePhrases(DefaultMutePhrases),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect reports the command contained in text. Wake phrases take priority
// over mute phrases.
func (d *Detector) Detect(text string) (Command, bool) {
	normalized := Normalize(text)
	if normalized == "" {
		return None, false
	}

	if containsAny(normalized, d.wakePhrases) {
		return Connect, true
	}
	if containsAny(normalized, d.mutePhrases) {
		return Disconnect, true
	}
	return None, false
}

// Normalize lower-cases text and drops every rune that is not a letter, a
// digit or whitespace.
func Normalize(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, text)
}

func normalizePhrases(phrases []string) []string {
	normalized := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		if phrase = strings.TrimSpace(Normalize(phrase)); phrase != "" {
			normalized = append(normalized, phrase)
		}
	}
	return normalized
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
