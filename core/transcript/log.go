package transcript

import (
	"slices"
	"sync"
)

// Log folds fragments into utterances. Finalized utterances are only ever
// appended, the in-progress one is replaced wholesale.
type Log struct {
	finalized  []Utterance
	inProgress *Utterance

	mu sync.RWMutex
}

func NewLog() *Log {
	return &Log{}
}

// Apply folds a fragment into the log. It returns the newly finalized
// utterance when the fragment is final, nil otherwise.
func (l *Log) Apply(f Fragment) *Utterance {
	utterance := Utterance{Speaker: f.Speaker, Text: f.Text()}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !f.IsFinal {
		l.inProgress = &utterance
		return nil
	}

	l.finalized = append(l.finalized, utterance)
	l.inProgress = nil
	return &utterance
}

// Append adds an utterance that is already final, leaving the in-progress
// slot untouched.
func (l *Log) Append(u Utterance) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.finalized = append(l.finalized, u)
}

// Utterances returns the current projection of the log.
func (l *Log) Utterances() []Utterance {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return Project(l.finalized, l.inProgress)
}

// FinalizedCount reports how many utterances have been finalized.
func (l *Log) FinalizedCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.finalized)
}

// Project lists the finalized utterances followed by the in-progress one, if
// any. The returned slice never aliases finalized.
func Project(finalized []Utterance, inProgress *Utterance) []Utterance {
	projection := slices.Clone(finalized)
	if projection == nil {
		projection = []Utterance{}
	}
	if inProgress != nil {
		projection = append(projection, *inProgress)
	}
	return projection
}
