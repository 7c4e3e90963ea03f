package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Spinner frame interval on a terminal.
const defaultInterval = 120 * time.Millisecond

// Width used when the terminal size is unknown.
const defaultWidth = 80

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	dim   = color.New(color.Faint).SprintFunc()
)

type state int

const (
	running state = iota
	succeeded
	failed
)

type line struct {
	text  string
	state state
}

// Options for [NewWithOptions].
type Options struct {
	Live     bool          // Redraw lines in place. Requires a terminal.
	Width    int           // Maximum line width in cells. Zero uses 80.
	Interval time.Duration // Spinner interval. Zero uses 120ms.
}

// Thread-safe multi-line status display.
type Display struct {
	out  io.Writer
	opts Options

	mu     sync.Mutex
	order  []string
	lines  map[string]*line
	frame  int
	drawn  int
	closed bool

	stop chan struct{}
	done chan struct{}
}

// Creates a display on out, redrawing in place when out is a terminal.
func New(out io.Writer) *Display {
	opts := Options{}
	if fd, ok := terminalFd(out); ok {
		opts.Live = true
		if cols, _, err := term.GetSize(fd); err == nil && cols > 0 {
			opts.Width = cols
		}
	}
	return NewWithOptions(out, opts)
}

// Creates a display with explicit options.
func NewWithOptions(out io.Writer, opts Options) *Display {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}

	d := &Display{
		out:   out,
		opts:  opts,
		lines: make(map[string]*line),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	if opts.Live {
		go d.spin()
	} else {
		close(d.done)
	}
	return d
}

// Sets the text of the line for job id, adding the line if it is new.
//
// Updates to a finished job are ignored.
func (d *Display) Upsert(id, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	l := d.lineLocked(id)
	if l.state != running {
		return
	}
	l.text = text
	d.renderLocked()
}

// Marks job id as finished with the given final text.
func (d *Display) Finish(id string, ok bool, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	l := d.lineLocked(id)
	if l.state != running {
		return
	}
	l.text = text
	l.state = failed
	if ok {
		l.state = succeeded
	}

	if d.opts.Live {
		d.renderLocked()
		return
	}
	fmt.Fprintln(d.out, d.formatLocked(id, l))
}

// Stops the spinner and draws the final state. Safe to call more than once.
func (d *Display) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.stop)
	d.mu.Unlock()

	<-d.done

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Live {
		d.drawLocked()
		d.drawn = 0
	}
}

// Returns the text of job id and whether it has finished.
func (d *Display) Line(id string) (text string, finished bool, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	l, ok := d.lines[id]
	if !ok {
		return "", false, false
	}
	return l.text, l.state != running, true
}

func (d *Display) lineLocked(id string) *line {
	l, ok := d.lines[id]
	if !ok {
		l = &line{}
		d.lines[id] = l
		d.order = append(d.order, id)
	}
	return l
}

// Advances the spinner until Close.
func (d *Display) spin() {
	defer close(d.done)

	ticker := time.NewTicker(d.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.mu.Lock()
			d.frame = (d.frame + 1) % len(frames)
			d.renderLocked()
			d.mu.Unlock()
		}
	}
}

func (d *Display) renderLocked() {
	if !d.opts.Live || d.closed {
		return
	}
	d.drawLocked()
}

// Replaces the previously drawn block with the current lines.
func (d *Display) drawLocked() {
	var b strings.Builder
	if d.drawn > 0 {
		fmt.Fprintf(&b, "\x1b[%dF\x1b[J", d.drawn)
	}
	for _, id := range d.order {
		b.WriteString(d.formatLocked(id, d.lines[id]))
		b.WriteString("\x1b[K\n")
	}
	d.drawn = len(d.order)
	io.WriteString(d.out, b.String())
}

func (d *Display) formatLocked(id string, l *line) string {
	var mark string
	switch l.state {
	case succeeded:
		mark = green("✔")
	case failed:
		mark = red("✘")
	default:
		mark = frames[d.frame]
	}

	prefix := id
	avail := d.opts.Width - runewidth.StringWidth(prefix) - 4
	text := strings.TrimSpace(l.text)
	if avail <= 0 || text == "" {
		return fmt.Sprintf("%s %s", mark, prefix)
	}
	text = runewidth.Truncate(text, avail, "…")
	if l.state == running {
		text = dim(text)
	}
	return fmt.Sprintf("%s %s  %s", mark, prefix, text)
}

func terminalFd(w io.Writer) (int, bool) {
	type fdProvider interface {
		Fd() uintptr
	}
	v, ok := w.(fdProvider)
	if !ok {
		return 0, false
	}
	fd := int(v.Fd())
	return fd, term.IsTerminal(fd)
}
