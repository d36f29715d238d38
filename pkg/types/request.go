// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"context"
	"fmt"
	"path/filepath"
	"time"
)

// OperationKind names one of the PDF transformations.
type OperationKind string

const (
	OpMerge     OperationKind = "merge"
	OpSplit     OperationKind = "split"
	OpCompress  OperationKind = "compress"
	OpWatermark OperationKind = "watermark"
	OpProtect   OperationKind = "protect"
	OpUnlock    OperationKind = "unlock"
)

// Operations lists every kind in display order.
var Operations = []OperationKind{OpMerge, OpSplit, OpCompress, OpWatermark, OpProtect, OpUnlock}

// ParseOperation converts a user-supplied name into an OperationKind.
func ParseOperation(name string) (OperationKind, error) {
	for _, k := range Operations {
		if string(k) == name {
			return k, nil
		}
	}
	return "", NewError(KindSelection, "", fmt.Sprintf("unknown operation %q", name), nil)
}

// Params carries the user inputs an operation may need besides the selection.
type Params struct {
	// Output is the destination file for merge, or the destination directory
	// for every other operation.
	Output string `json:"output" yaml:"output"`

	// Password is used by protect and unlock.
	Password string `json:"-" yaml:"-"`

	// Watermark is the stamp text used by watermark.
	Watermark string `json:"watermark,omitempty" yaml:"watermark,omitempty"`
}

// Request is an immutable description of one PDF transformation. The
// dispatcher builds it from a selection snapshot; nothing modifies it after
// submission.
type Request struct {
	ID          string        `json:"id" yaml:"id"`
	Kind        OperationKind `json:"kind" yaml:"kind"`
	Inputs      []Document    `json:"inputs" yaml:"inputs"`
	Params      Params        `json:"params" yaml:"params"`
	SubmittedAt time.Time     `json:"submitted_at" yaml:"submitted_at"`
}

// InputPaths returns the input paths in selection order.
func (r Request) InputPaths() []string {
	paths := make([]string, len(r.Inputs))
	for i, d := range r.Inputs {
		paths[i] = d.Path
	}
	return paths
}

// PlannedOutputs returns the paths the request will write on success. Split
// names are derived from the cached page count of each input.
func (r Request) PlannedOutputs() []string {
	if r.Kind == OpMerge {
		return []string{r.Params.Output}
	}
	var out []string
	for _, d := range r.Inputs {
		if r.Kind == OpSplit {
			for page := 1; page <= d.PageCount; page++ {
				out = append(out, SplitPagePath(r.Params.Output, d.Path, page))
			}
			continue
		}
		out = append(out, OutputPath(r.Kind, r.Params.Output, d.Path))
	}
	return out
}

// outputPrefix holds the file-name prefix for per-document operations.
var outputPrefix = map[OperationKind]string{
	OpCompress:  "compressed_",
	OpWatermark: "watermarked_",
	OpProtect:   "secured_",
	OpUnlock:    "unlocked_",
}

// OutputPath returns the destination for a per-document operation, e.g.
// dir/compressed_report.pdf for OpCompress.
func OutputPath(kind OperationKind, dir, input string) string {
	return filepath.Join(dir, outputPrefix[kind]+StemOf(input)+".pdf")
}

// SplitPagePath returns dir/{name}_Page_{NNN}.pdf for a 1-based page.
func SplitPagePath(dir, input string, page int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_Page_%03d.pdf", StemOf(input), page))
}

// Result summarises a successful request.
type Result struct {
	RequestID string        `json:"request_id" yaml:"request_id"`
	Kind      OperationKind `json:"kind" yaml:"kind"`
	Outputs   []string      `json:"outputs" yaml:"outputs"`
	Pages     int           `json:"pages" yaml:"pages"`
	BytesIn   int64         `json:"bytes_in" yaml:"bytes_in"`
	BytesOut  int64         `json:"bytes_out" yaml:"bytes_out"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Saved returns the number of bytes saved, or 0 when the output grew.
func (r Result) Saved() int64 {
	if r.BytesOut >= r.BytesIn {
		return 0
	}
	return r.BytesIn - r.BytesOut
}

// ProgressFunc receives progress messages from a running handler.
type ProgressFunc func(msg string)

// Handler performs one operation for a request.
type Handler func(ctx context.Context, req Request, progress ProgressFunc) (Result, error)
