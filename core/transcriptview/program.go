// Package transcriptview shows the live meeting transcript in the terminal.
package transcriptview

import (
	"context"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/deltamod3/aida-voice-agent/core"
)

type updateMsg orchestration.Update

type model struct {
	viewport viewport.Model
	update   orchestration.Update
	ready    bool
}

func newModel(initial orchestration.Update) model {
	return model{update: initial}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height
		}
		m.viewport.SetContent(Render(m.update, msg.Width))

	case updateMsg:
		m.update = orchestration.Update(msg)
		if m.ready {
			m.viewport.SetContent(Render(m.update, m.viewport.Width))
			m.viewport.GotoTop()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return Render(m.update, 80)
	}
	return m.viewport.View()
}

// Program runs the transcript display until the user quits.
type Program struct {
	program *tea.Program
}

func NewProgram(initial orchestration.Update, opts ...tea.ProgramOption) *Program {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	return &Program{program: tea.NewProgram(newModel(initial), opts...)}
}

// Run blocks until the user quits or ctx is cancelled.
func (p *Program) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, p.program.Quit)
	defer stop()

	_, err := p.program.Run()
	return err
}

// Send shows update. It matches the update callback of the orchestrator.
func (p *Program) Send(update orchestration.Update) {
	p.program.Send(updateMsg(update))
}
