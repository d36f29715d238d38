// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// Severity classifies an activity log entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// LogEntry is one immutable line of the activity log.
type LogEntry struct {
	// Seq is the 1-based position in the log of the current process.
	Seq       int64     `json:"seq" yaml:"seq"`
	Time      time.Time `json:"time" yaml:"time"`
	Severity  Severity  `json:"severity" yaml:"severity"`
	Message   string    `json:"message" yaml:"message"`
	RequestID string    `json:"request_id,omitempty" yaml:"request_id,omitempty"`
}

// String renders the entry as "[15:04:05] message", prefixing errors.
func (e LogEntry) String() string {
	ts := e.Time.Format("15:04:05")
	switch e.Severity {
	case SeverityError:
		return fmt.Sprintf("[%s] error: %s", ts, e.Message)
	case SeveritySuccess:
		return fmt.Sprintf("[%s] done: %s", ts, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", ts, e.Message)
	}
}

// JobState is the lifecycle state of a submitted request.
type JobState string

const (
	StateQueued    JobState = "queued"
	StateRunning   JobState = "running"
	StateSucceeded JobState = "succeeded"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// Terminal reports whether no further transition can happen.
func (s JobState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// Completion is delivered once per request when it leaves the runner.
type Completion struct {
	Request    Request   `json:"request" yaml:"request"`
	State      JobState  `json:"state" yaml:"state"`
	Result     Result    `json:"result" yaml:"result"`
	Err        error     `json:"-" yaml:"-"`
	StartedAt  time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// ErrorKind returns the failure kind, or "" when the request did not fail.
func (c Completion) ErrorKind() ErrorKind {
	if c.Err == nil {
		return ""
	}
	return KindOf(c.Err)
}

// ProcessingStats aggregates completed requests.
type ProcessingStats struct {
	Requests           int   `json:"requests" yaml:"requests"`
	Succeeded          int   `json:"succeeded" yaml:"succeeded"`
	Failed             int   `json:"failed" yaml:"failed"`
	DocumentsProcessed int   `json:"documents_processed" yaml:"documents_processed"`
	BytesProcessed     int64 `json:"bytes_processed" yaml:"bytes_processed"`
	CompressionSaved   int64 `json:"compression_saved" yaml:"compression_saved"`
}

// FormatSize renders a byte count as "1.5 MB".
func FormatSize(n int64) string {
	if n == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(n)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", size, units[i])
}
