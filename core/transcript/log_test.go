package transcript

import (
	"strings"
	"testing"

	"github.com/deltamod3/aida-voice-agent/internal/utils"
)

func fragment(speaker string, text string, isFinal bool) Fragment {
	words := []Word{}
	start := 0.0
	for _, token := range strings.Fields(text) {
		words = append(words, Word{Text: token, StartTime: start, EndTime: start + 0.3})
		start += 0.3
	}
	return Fragment{Speaker: utils.Ptr(speaker), Words: words, IsFinal: isFinal}
}

func TestFragmentTextJoinsWords(t *testing.T) {
	f := Fragment{Words: []Word{{Text: "hey"}, {Text: "aida,"}, {Text: "join"}}}
	if got := f.Text(); got != "hey aida, join" {
		t.Fatalf("expected %q, got %q", "hey aida, join", got)
	}

	if got := (Fragment{}).Text(); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestApplyNonFinalReplacesInProgress(t *testing.T) {
	log := NewLog()

	if finalized := log.Apply(fragment("Bob", "hey", false)); finalized != nil {
		t.Fatalf("expected no finalized utterance, got %+v", finalized)
	}
	if finalized := log.Apply(fragment("Alice", "hello there", false)); finalized != nil {
		t.Fatalf("expected no finalized utterance, got %+v", finalized)
	}

	utterances := log.Utterances()
	if len(utterances) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(utterances))
	}
	if utterances[0].SpeakerName() != "Alice" || utterances[0].Text != "hello there" {
		t.Fatalf("expected in-progress utterance to be replaced, got %+v", utterances[0])
	}
	if log.FinalizedCount() != 0 {
		t.Fatalf("expected no finalized utterances, got %d", log.FinalizedCount())
	}
}

func TestApplyFinalGrowsLogByExactlyOne(t *testing.T) {
	log := NewLog()

	for i := 1; i <= 3; i++ {
		log.Apply(fragment("Bob", "partial", false))
		finalized := log.Apply(fragment("Bob", "done", true))
		if finalized == nil {
			t.Fatalf("expected finalized utterance on final fragment %d", i)
		}
		if log.FinalizedCount() != i {
			t.Fatalf("expected %d finalized utterances, got %d", i, log.FinalizedCount())
		}
		if got := len(log.Utterances()); got != i {
			t.Fatalf("expected in-progress slot to be cleared, projection has %d entries", got)
		}
	}
}

func TestBobJoinScenario(t *testing.T) {
	log := NewLog()

	log.Apply(fragment("Bob", "hey", false))
	finalized := log.Apply(fragment("Bob", "hey aida please join", true))

	if finalized == nil || finalized.Text != "hey aida please join" {
		t.Fatalf("expected finalized utterance %q, got %+v", "hey aida please join", finalized)
	}

	utterances := log.Utterances()
	if len(utterances) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(utterances))
	}
	if utterances[0].SpeakerName() != "Bob" || utterances[0].Text != "hey aida please join" {
		t.Fatalf("unexpected utterance %+v", utterances[0])
	}
}

func TestAppendKeepsInProgress(t *testing.T) {
	log := NewLog()
	log.Apply(fragment("Bob", "still talking", false))

	log.Append(Utterance{Speaker: utils.Ptr("Aida"), Text: "Hi Bob"})

	utterances := log.Utterances()
	if len(utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(utterances))
	}
	if utterances[0].Text != "Hi Bob" || utterances[1].Text != "still talking" {
		t.Fatalf("expected finalized before in-progress, got %+v", utterances)
	}
}

func TestProjectIsStableAndDoesNotAlias(t *testing.T) {
	finalized := []Utterance{{Text: "one"}, {Text: "two"}}
	inProgress := &Utterance{Text: "three"}

	first := Project(finalized, inProgress)
	second := Project(finalized, inProgress)
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 utterances, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("expected identical projections, differ at %d: %+v vs %+v", i, first[i], second[i])
		}
	}

	first[0].Text = "changed"
	if finalized[0].Text != "one" {
		t.Fatalf("expected projection not to alias finalized log")
	}

	if got := Project(nil, nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil projection, got %#v", got)
	}
}
