// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package activity implements the append-only activity log. Entries are
// numbered, timestamped and fanned out to registered sinks in append order.
package activity

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf-tools/pkg/types"
)

// Sink receives every entry after it has been appended.
type Sink interface {
	Write(entry types.LogEntry) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(types.LogEntry) error

func (f SinkFunc) Write(e types.LogEntry) error { return f(e) }

// Log is safe for concurrent use. Entries are never modified or removed.
type Log struct {
	// deliver serialises fan-out so sinks see entries in sequence order.
	deliver sync.Mutex

	mu      sync.RWMutex
	entries []types.LogEntry
	sinks   []Sink

	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Log.
type Option func(*Log)

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// WithLogger sets the logger used to report sink failures.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// New creates an empty log.
func New(opts ...Option) *Log {
	l := &Log{now: time.Now, logger: zap.NewNop()}
	for _, o := range opts {
		o(l)
	}
	return l
}

// AddSink registers s for entries appended from now on.
func (l *Log) AddSink(s Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, s)
}

// Append records a message and returns the stored entry.
func (l *Log) Append(sev types.Severity, requestID, msg string) types.LogEntry {
	l.deliver.Lock()
	defer l.deliver.Unlock()

	l.mu.Lock()
	entry := types.LogEntry{
		Seq:       int64(len(l.entries)) + 1,
		Time:      l.now(),
		Severity:  sev,
		Message:   msg,
		RequestID: requestID,
	}
	l.entries = append(l.entries, entry)
	sinks := l.sinks
	l.mu.Unlock()

	for _, s := range sinks {
		if err := s.Write(entry); err != nil {
			l.logger.Warn("activity sink failed", zap.Int64("seq", entry.Seq), zap.Error(err))
		}
	}
	return entry
}

func (l *Log) Info(requestID, format string, args ...any) types.LogEntry {
	return l.Append(types.SeverityInfo, requestID, fmt.Sprintf(format, args...))
}

func (l *Log) Success(requestID, format string, args ...any) types.LogEntry {
	return l.Append(types.SeveritySuccess, requestID, fmt.Sprintf(format, args...))
}

func (l *Log) Error(requestID, format string, args ...any) types.LogEntry {
	return l.Append(types.SeverityError, requestID, fmt.Sprintf(format, args...))
}

// Entries returns a copy of the full log.
func (l *Log) Entries() []types.LogEntry {
	return l.Since(0)
}

// Since returns a copy of the entries with a sequence number above seq.
func (l *Log) Since(seq int64) []types.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if seq < 0 {
		seq = 0
	}
	if seq >= int64(len(l.entries)) {
		return []types.LogEntry{}
	}
	out := make([]types.LogEntry, int64(len(l.entries))-seq)
	copy(out, l.entries[seq:])
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// WriterSink prints entries to w, one per line.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink printing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Write(e types.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, e.String())
	return err
}
