// Package terminal renders conversion progress for interactive terminals.
package terminal

import (
	"fmt"
	"io"
	"strings"

	"video-to-audio/domain/media"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

const barWidth = 40

// StateMsg carries a conversion state snapshot into the model
type StateMsg media.ConversionState

// doneMsg ends the program with the work's result
type doneMsg struct {
	err error
}

// Model is the bubbletea model for a single conversion
type Model struct {
	title string
	bar   progress.Model
	state media.ConversionState
	done  bool
	err   error
}

// NewModel creates a progress model titled with the input name
func NewModel(title string) Model {
	return Model{
		title: title,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		m.state = media.ConversionState(msg)
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(float64(m.state.Progress) / 100))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("✗ " + media.MessageOf(m.err, media.MessageConversionFailed)))
	case m.done:
		b.WriteString(doneStyle.Render("✓ Done"))
	case m.state.IsLoading:
		b.WriteString(statusStyle.Render("Loading codec engine..."))
	default:
		b.WriteString(statusStyle.Render(fmt.Sprintf("Converting... %d%%", m.state.Progress)))
	}
	b.WriteString("\n")
	return b.String()
}

// Run shows a progress bar while work runs. work receives a listener to
// publish state changes and its error is returned once the view closes.
func Run(out io.Writer, title string, work func(listen func(media.ConversionState)) error) error {
	p := tea.NewProgram(NewModel(title), tea.WithOutput(out), tea.WithInput(nil))

	result := make(chan error, 1)
	go func() {
		err := work(func(st media.ConversionState) {
			p.Send(StateMsg(st))
		})
		result <- err
		p.Send(doneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("progress view failed: %w", err)
	}
	return <-result
}

// LineReporter writes plain progress lines, for non-interactive output
type LineReporter struct {
	out  io.Writer
	last int
}

// NewLineReporter creates a reporter writing to out
func NewLineReporter(out io.Writer) *LineReporter {
	return &LineReporter{out: out, last: -1}
}

// Report prints a line whenever progress crosses a new tens boundary
func (r *LineReporter) Report(st media.ConversionState) {
	if st.IsLoading {
		if r.last < 0 {
			fmt.Fprintln(r.out, "Loading codec engine...")
			r.last = 0
		}
		return
	}
	if st.Progress/10 > r.last/10 || (r.last < 0 && st.IsConverting) {
		fmt.Fprintf(r.out, "  %3d%%\n", st.Progress)
		r.last = st.Progress
	}
}
