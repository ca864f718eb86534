package log

import (
	"io"
	"os"
	"sync"
)

// Output defines the interface for log sinks.
type Output interface {
	Write(entry *Entry, formattedEntry []byte) error
	Close() error
}

// ConsoleOutput writes formatted entries to stderr (stdout for Debug/Info).
type ConsoleOutput struct {
	mu sync.Mutex
}

// NewConsoleOutput returns a console Output.
func NewConsoleOutput() *ConsoleOutput { return &ConsoleOutput{} }

// Write implements Output.
func (o *ConsoleOutput) Write(entry *Entry, formatted []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	w := os.Stderr
	if entry.Level < WarnLevel {
		w = os.Stdout
	}
	_, err := w.Write(formatted)
	return err
}

// Close implements Output.
func (o *ConsoleOutput) Close() error { return nil }

// WriterOutput adapts any io.Writer into an Output. Useful in tests and for
// file sinks owned by the caller.
type WriterOutput struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterOutput returns an Output writing to w.
func NewWriterOutput(w io.Writer) *WriterOutput { return &WriterOutput{w: w} }

// Write implements Output.
func (o *WriterOutput) Write(_ *Entry, formatted []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := o.w.Write(formatted)
	return err
}

// Close implements Output.
func (o *WriterOutput) Close() error {
	if c, ok := o.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
