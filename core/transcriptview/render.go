package transcriptview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	orchestration "github.com/deltamod3/aida-voice-agent/core"
	"github.com/deltamod3/aida-voice-agent/core/commands"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const (
	Placeholder = "Aida Voice Agent is listening..."
	Badge       = "Meeting transcription"

	unknownSpeaker = "Unknown"

	textIndent = 2
)

var (
	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#5A56E0")).
			Padding(0, 1)
	placeholderStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	speakerStyle     = lipgloss.NewStyle().Bold(true)
	statusStyle      = lipgloss.NewStyle().Faint(true)
)

// Render draws the transcript with the latest utterance first. The speaker
// label is only printed when it differs from the row above.
func Render(update orchestration.Update, width int) string {
	var b strings.Builder

	if len(update.Utterances) == 0 {
		b.WriteString(placeholderStyle.Render(Placeholder))
	} else {
		b.WriteString(badgeStyle.Render(Badge))
		b.WriteString("\n")

		textWidth := max(width-textIndent, 1)
		previousSpeaker := ""
		for i := len(update.Utterances) - 1; i >= 0; i-- {
			utterance := update.Utterances[i]
			speaker := utterance.SpeakerName()
			if speaker == "" {
				speaker = unknownSpeaker
			}
			if i == len(update.Utterances)-1 || speaker != previousSpeaker {
				b.WriteString("\n")
				b.WriteString(speakerStyle.Render(speaker))
				b.WriteString("\n")
			}
			previousSpeaker = speaker

			b.WriteString(indent.String(wordwrap.String(utterance.Text, textWidth), textIndent))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(statusStyle.Render(renderStatus(update)))
	return b.String()
}

func renderStatus(update orchestration.Update) string {
	status := "session: " + update.State.String()
	if update.Command != commands.None {
		status += " | last command: " + update.Command.String()
	}
	return status
}
