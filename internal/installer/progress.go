package installer

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const padding = 2

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render

type progressMsg struct {
	percent    float64
	downloaded int64
	total      int64
	speed      string
}

type progressErrMsg struct{ err error }

type downloadCompleteMsg struct{}

// ProgressWriter counts bytes and reports them to a ProgressFunc.
type ProgressWriter struct {
	total      int64
	downloaded int64
	startTime  time.Time
	onProgress ProgressFunc
}

func NewProgressWriter(total int64, onProgress ProgressFunc) *ProgressWriter {
	return &ProgressWriter{
		total:      total,
		startTime:  time.Now(),
		onProgress: onProgress,
	}
}

func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.downloaded += int64(n)
	if pw.onProgress != nil {
		pw.onProgress(pw.downloaded, pw.total)
	}
	return n, nil
}

// Speed returns the average transfer rate in bytes per second.
func (pw *ProgressWriter) Speed() float64 {
	return averageSpeed(pw.downloaded, pw.startTime)
}

func averageSpeed(downloaded int64, since time.Time) float64 {
	elapsed := time.Since(since).Seconds()
	if elapsed > 0 {
		return float64(downloaded) / elapsed
	}
	return 0
}

// FormatSpeed renders a byte rate such as "2.1 MB/s".
func FormatSpeed(bytesPerSecond float64) string {
	return humanize.Bytes(uint64(bytesPerSecond)) + "/s"
}

// FormatSize renders a byte count such as "190 MB".
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "?"
	}
	return humanize.Bytes(uint64(bytes))
}

// ProgressModel represents the Bubble Tea model for download progress
type ProgressModel struct {
	label      string
	progress   progress.Model
	totalBytes int64
	downloaded int64
	speed      string
	err        error
	done       bool
}

func NewProgressModel(label string, totalBytes int64) ProgressModel {
	prog := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return ProgressModel{
		label:      label,
		progress:   prog,
		totalBytes: totalBytes,
		speed:      "0 B/s",
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return nil
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	case progressMsg:
		if m.done {
			return m, tea.Quit
		}
		m.downloaded = msg.downloaded
		m.totalBytes = msg.total
		m.speed = msg.speed
		if msg.percent < 0 {
			return m, nil
		}
		return m, m.progress.SetPercent(msg.percent)

	case downloadCompleteMsg:
		m.done = true
		return m, tea.Quit

	case progressErrMsg:
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	default:
		return m, nil
	}
}

func (m ProgressModel) View() string {
	if m.err != nil {
		return "Error downloading: " + m.err.Error() + "\n"
	}

	if m.done {
		return ""
	}

	pad := strings.Repeat(" ", padding)

	var info string
	if m.totalBytes > 0 {
		info = fmt.Sprintf("%s / %s (%.0f%%) - %s",
			FormatSize(m.downloaded), FormatSize(m.totalBytes), m.progress.Percent()*100, m.speed)
	} else {
		info = fmt.Sprintf("%s - %s", FormatSize(m.downloaded), m.speed)
	}

	header := ""
	if m.label != "" {
		header = pad + m.label + "\n"
	}
	return "\n" + header +
		pad + m.progress.View() + "\n" +
		pad + helpStyle(info) + "\n"
}

// ProgressBar drives a ProgressModel from download callbacks.
type ProgressBar struct {
	program   *tea.Program
	startTime time.Time
	done      chan struct{}

	mu       sync.Mutex
	lastSent time.Time
	stopped  bool
}

// StartProgressBar starts rendering a progress bar to out. Call Finish
// when the transfer ends.
func StartProgressBar(label string, out io.Writer) *ProgressBar {
	p := tea.NewProgram(NewProgressModel(label, -1), tea.WithOutput(out), tea.WithInput(nil))
	bar := &ProgressBar{program: p, startTime: time.Now(), done: make(chan struct{})}
	go func() {
		defer close(bar.done)
		_, _ = p.Run()
	}()
	return bar
}

// Update is a ProgressFunc. Updates are rate limited to keep the terminal
// responsive.
func (b *ProgressBar) Update(downloaded, total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	now := time.Now()
	if now.Sub(b.lastSent) < 50*time.Millisecond && downloaded != total {
		return
	}
	b.lastSent = now

	percent := -1.0
	if total > 0 {
		percent = float64(downloaded) / float64(total)
	}
	b.program.Send(progressMsg{
		percent:    percent,
		downloaded: downloaded,
		total:      total,
		speed:      FormatSpeed(averageSpeed(downloaded, b.startTime)),
	})
}

// Finish stops the bar, showing err if the transfer failed.
func (b *ProgressBar) Finish(err error) {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	b.mu.Unlock()

	if err != nil {
		b.program.Send(progressErrMsg{err: err})
	} else {
		b.program.Send(downloadCompleteMsg{})
	}
	<-b.done
}
