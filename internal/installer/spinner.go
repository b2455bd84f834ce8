package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	waitSpinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	waitElapsedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// waitDoneMsg carries the result of the background work.
type waitDoneMsg struct{ err error }

type waitModel struct {
	spinner spinner.Model
	message string
	started time.Time
	done    bool
	// interrupted is set when the user pressed ctrl+c.
	interrupted bool
}

func newWaitModel(message string) waitModel {
	return waitModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(waitSpinnerStyle)),
		message: message,
		started: time.Now(),
	}
}

func (m waitModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.interrupted = true
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	case waitDoneMsg:
		m.done = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m waitModel) View() string {
	if m.done {
		return ""
	}
	elapsed := time.Since(m.started).Truncate(time.Second)
	return fmt.Sprintf(" %s %s %s\n", m.spinner.View(), m.message, waitElapsedStyle.Render(elapsed.String()))
}

// WithSpinner runs fn while a spinner animates on out, and returns fn's
// error. Pressing ctrl+c stops the spinner and returns context.Canceled
// without waiting for fn.
func WithSpinner(out io.Writer, message string, fn func() error) error {
	p := tea.NewProgram(newWaitModel(message), tea.WithOutput(out), tea.WithInput(nil))

	errCh := make(chan error, 1)
	go func() {
		err := fn()
		errCh <- err
		p.Send(waitDoneMsg{err: err})
	}()

	final, err := p.Run()
	if errors.Is(err, tea.ErrInterrupted) {
		return context.Canceled
	}
	if err != nil {
		return err
	}
	if m, ok := final.(waitModel); ok && m.interrupted {
		return context.Canceled
	}
	return <-errCh
}
