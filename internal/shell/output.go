package shell

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Output writes user-facing shell output. It is safe for concurrent use:
// watch notifications arrive on watcher goroutines while commands run.
type Output struct {
	mu       sync.Mutex
	writer   io.Writer
	useColor bool

	// refresh redraws the prompt after an asynchronous notification
	refresh func()
}

// NewOutput creates an Output writing to w. A nil w means stdout.
func NewOutput(w io.Writer, useColor bool) *Output {
	if w == nil {
		w = os.Stdout
	}
	return &Output{writer: w, useColor: useColor}
}

// Writer returns the underlying writer.
func (o *Output) Writer() io.Writer { return o.writer }

// SetRefresh installs the prompt redraw hook used by Notify.
func (o *Output) SetRefresh(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.refresh = fn
}

// Output writes a command result without a trailing newline.
func (o *Output) Output(format string, args ...interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.writer, format, args...)
}

// OutputLine writes a command result followed by a newline.
func (o *Output) OutputLine(format string, args ...interface{}) {
	o.Output(format+"\n", args...)
}

// Info writes a timestamped status message.
func (o *Output) Info(format string, args ...interface{}) {
	o.stamped(text.Reset, format, args...)
}

// Error writes a timestamped error message.
func (o *Output) Error(format string, args ...interface{}) {
	o.stamped(text.FgRed, format, args...)
}

// Success writes a timestamped success message.
func (o *Output) Success(format string, args ...interface{}) {
	o.stamped(text.FgGreen, format, args...)
}

// Notify writes an asynchronous event line and redraws the prompt.
func (o *Output) Notify(format string, args ...interface{}) {
	o.mu.Lock()
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(o.writer, "\r%s\n", o.colorize(text.FgHiBlue, msg))
	refresh := o.refresh
	o.mu.Unlock()

	if refresh != nil {
		refresh()
	}
}

func (o *Output) stamped(color text.Color, format string, args ...interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(o.writer, "[%s] %s\n", time.Now().Format("2006-01-02 15:04:05"), o.colorize(color, msg))
}

func (o *Output) colorize(color text.Color, s string) string {
	if !o.useColor || color == text.Reset {
		return s
	}
	return color.Sprint(s)
}

// Table renders rows under headers using the rounded style.
func (o *Output) Table(headers []string, rows [][]interface{}) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = o.colorize(text.FgHiCyan, h)
	}
	t.AppendHeader(header)
	for _, row := range rows {
		t.AppendRow(row)
	}

	o.OutputLine("%s", t.Render())
}

// Empty reports an empty result.
func (o *Output) Empty(message string) {
	o.OutputLine("%s", o.colorize(text.FgYellow, message))
}
