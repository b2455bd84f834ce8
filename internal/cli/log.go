package cli

import (
	"io"
	"os"
	"sync"
	"time"

	"autojv/internal/installer"
	"autojv/internal/logging"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
)

// newLogger creates the CLI logger with timestamps formatted as
// "15:04:05.00".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return logging.New(w, level)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// progress tracks the start time of an operation and logs completion with
// elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

// downloadBars shows one progress bar per download. A bar starts on the
// first progress callback and ends when the expected size is reached or
// finish is called.
type downloadBars struct {
	out io.Writer

	mu  sync.Mutex
	bar *installer.ProgressBar
}

func (d *downloadBars) update(downloaded, total int64) {
	d.mu.Lock()
	if d.bar == nil {
		d.bar = installer.StartProgressBar("Downloading JDK", d.out)
	}
	bar := d.bar
	d.mu.Unlock()

	bar.Update(downloaded, total)
	if total > 0 && downloaded >= total {
		d.finish(nil)
	}
}

func (d *downloadBars) finish(err error) {
	d.mu.Lock()
	bar := d.bar
	d.bar = nil
	d.mu.Unlock()
	if bar != nil {
		bar.Finish(err)
	}
}
