// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("bad xref")
	err := fmt.Errorf("reading: %w", NewError(KindWrongPassword, "/tmp/a.pdf", "password rejected", cause))

	assert.Equal(t, KindWrongPassword, KindOf(err))
	assert.True(t, IsKind(err, KindWrongPassword))
	assert.True(t, IsKind(err, KindInputEncrypted))
	assert.False(t, IsKind(err, KindSelection))
	assert.True(t, errors.Is(err, &Error{Kind: KindWrongPassword}))
	assert.False(t, errors.Is(err, &Error{Kind: KindInputEncrypted}))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "reading: wrong_password: password rejected (/tmp/a.pdf): bad xref", err.Error())

	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.False(t, IsKind(NewError(KindInputEncrypted, "", "x", nil), KindWrongPassword))
}

func TestParseOperation(t *testing.T) {
	for _, k := range Operations {
		got, err := ParseOperation(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseOperation("rotate")
	assert.Equal(t, KindSelection, KindOf(err))
}

func TestOutputNames(t *testing.T) {
	dir := "/out"
	assert.Equal(t, filepath.Join(dir, "compressed_report.pdf"), OutputPath(OpCompress, dir, "/in/report.pdf"))
	assert.Equal(t, filepath.Join(dir, "watermarked_report.pdf"), OutputPath(OpWatermark, dir, "/in/report.PDF"))
	assert.Equal(t, filepath.Join(dir, "secured_a.b.pdf"), OutputPath(OpProtect, dir, "a.b.pdf"))
	assert.Equal(t, filepath.Join(dir, "unlocked_x.pdf"), OutputPath(OpUnlock, dir, "x.pdf"))
	assert.Equal(t, filepath.Join(dir, "report_Page_007.pdf"), SplitPagePath(dir, "/in/report.pdf", 7))
	assert.Equal(t, filepath.Join(dir, "report_Page_1234.pdf"), SplitPagePath(dir, "report.pdf", 1234))
}

func TestPlannedOutputs(t *testing.T) {
	docs := []Document{{Path: "/in/a.pdf", PageCount: 2}, {Path: "/in/b.pdf", PageCount: 1}}

	merge := Request{Kind: OpMerge, Inputs: docs, Params: Params{Output: "/out/all.pdf"}}
	assert.Equal(t, []string{"/out/all.pdf"}, merge.PlannedOutputs())

	split := Request{Kind: OpSplit, Inputs: docs, Params: Params{Output: "/out"}}
	assert.Equal(t, []string{
		filepath.Join("/out", "a_Page_001.pdf"),
		filepath.Join("/out", "a_Page_002.pdf"),
		filepath.Join("/out", "b_Page_001.pdf"),
	}, split.PlannedOutputs())

	compress := Request{Kind: OpCompress, Inputs: docs, Params: Params{Output: "/out"}}
	assert.Equal(t, []string{
		filepath.Join("/out", "compressed_a.pdf"),
		filepath.Join("/out", "compressed_b.pdf"),
	}, compress.PlannedOutputs())
	assert.Equal(t, []string{"/in/a.pdf", "/in/b.pdf"}, compress.InputPaths())
}

func TestResultSaved(t *testing.T) {
	assert.Equal(t, int64(40), Result{BytesIn: 100, BytesOut: 60}.Saved())
	assert.Zero(t, Result{BytesIn: 100, BytesOut: 100}.Saved())
	assert.Zero(t, Result{BytesIn: 100, BytesOut: 120}.Saved())
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512.0 B"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.n))
	}
}

func TestLogEntryString(t *testing.T) {
	ts := time.Date(2026, 3, 1, 14, 5, 9, 0, time.Local)
	assert.Equal(t, "[14:05:09] selected a.pdf", LogEntry{Time: ts, Severity: SeverityInfo, Message: "selected a.pdf"}.String())
	assert.Equal(t, "[14:05:09] done: merged", LogEntry{Time: ts, Severity: SeveritySuccess, Message: "merged"}.String())
	assert.Equal(t, "[14:05:09] error: boom", LogEntry{Time: ts, Severity: SeverityError, Message: "boom"}.String())
}

func TestJobStateTerminal(t *testing.T) {
	assert.False(t, StateQueued.Terminal())
	assert.False(t, StateRunning.Terminal())
	assert.True(t, StateSucceeded.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateCancelled.Terminal())
}

func TestCompletionErrorKind(t *testing.T) {
	assert.Equal(t, ErrorKind(""), Completion{}.ErrorKind())
	c := Completion{Err: NewError(KindOutputWriteFailed, "/out", "disk full", nil)}
	assert.Equal(t, KindOutputWriteFailed, c.ErrorKind())
}

func TestDocumentName(t *testing.T) {
	assert.Equal(t, "report", Document{Path: "/tmp/report.pdf"}.Name())
}
