// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-tools/internal/pdftest"
	"github.com/pdiddy/pdf-tools/pkg/types"
)

func testConfig(t *testing.T) types.Config {
	cfg := types.DefaultConfig()
	cfg.StateDir = filepath.Join(t.TempDir(), "state")
	return cfg
}

func open(t *testing.T, cfg types.Config, opts ...Option) *Session {
	t.Helper()
	s, err := Open(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func waitFor(t *testing.T, s *Session, id string) types.Completion {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c, err := s.Wait(ctx, id)
	require.NoError(t, err)
	return c
}

func TestMergeThroughSession(t *testing.T) {
	dir := t.TempDir()
	a := pdftest.WriteN(t, dir, "a.pdf", 2)
	b := pdftest.WriteN(t, dir, "b.pdf", 3)

	var out bytes.Buffer
	s := open(t, testConfig(t), WithOutput(&out))

	added, err := s.Select(a, b)
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, 3, added[1].PageCount)

	req, err := s.Submit(types.OpMerge, types.Params{Output: filepath.Join(dir, "merged.pdf")})
	require.NoError(t, err)
	c := waitFor(t, s, req.ID)
	require.Equal(t, types.StateSucceeded, c.State, "error: %v", c.Err)
	assert.Equal(t, 5, c.Result.Pages)
	assert.FileExists(t, filepath.Join(dir, "merged.pdf"))

	var final int
	for _, e := range s.Log().Entries() {
		if e.RequestID == req.ID && e.Severity != types.SeverityInfo {
			final++
		}
	}
	assert.Equal(t, 1, final)
	assert.Contains(t, out.String(), "done: merged 2 documents")

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Succeeded)
	assert.Equal(t, 2, st.DocumentsProcessed)
}

func TestSelectionErrorLoggedOnce(t *testing.T) {
	dir := t.TempDir()
	a := pdftest.WriteN(t, dir, "a.pdf", 1)
	s := open(t, testConfig(t))
	_, err := s.Select(a)
	require.NoError(t, err)

	before := s.Log().Len()
	_, err = s.Submit(types.OpMerge, types.Params{Output: filepath.Join(dir, "m.pdf")})
	require.Error(t, err)
	assert.Equal(t, types.KindSelection, types.KindOf(err))
	assert.NoFileExists(t, filepath.Join(dir, "m.pdf"))

	entries := s.Log().Since(int64(before))
	require.Len(t, entries, 1)
	assert.Equal(t, types.SeverityError, entries[0].Severity)
	assert.Contains(t, entries[0].Message, "at least 2")
}

func TestSelectRejectsInvalidPaths(t *testing.T) {
	dir := t.TempDir()
	a := pdftest.WriteN(t, dir, "a.pdf", 1)
	s := open(t, testConfig(t))

	added, err := s.Select(a, filepath.Join(dir, "notes.txt"), filepath.Join(dir, "missing.pdf"))
	require.Error(t, err)
	assert.Len(t, added, 1)
	assert.Len(t, s.Documents(), 1)

	var errs int
	for _, e := range s.Log().Entries() {
		if e.Severity == types.SeverityError {
			errs++
			assert.False(t, strings.Contains(e.Message, "\n"))
		}
	}
	assert.Equal(t, 1, errs)
}

func TestClearAndDeselect(t *testing.T) {
	dir := t.TempDir()
	a := pdftest.WriteN(t, dir, "a.pdf", 1)
	b := pdftest.WriteN(t, dir, "b.pdf", 1)
	s := open(t, testConfig(t))

	_, err := s.Select(a, b)
	require.NoError(t, err)
	require.NoError(t, s.Deselect(a))
	assert.Len(t, s.Documents(), 1)
	require.NoError(t, s.Clear())
	assert.Empty(t, s.Documents())
	assert.Error(t, s.Deselect(a))
}

func TestPersistentSession(t *testing.T) {
	dir := t.TempDir()
	a := pdftest.WriteN(t, dir, "a.pdf", 2)
	cfg := testConfig(t)

	first, err := Open(context.Background(), cfg, WithPersistence())
	require.NoError(t, err)
	_, err = first.Select(a)
	require.NoError(t, err)
	req, err := first.Submit(types.OpSplit, types.Params{Output: filepath.Join(dir, "pages")})
	require.NoError(t, err)
	waitFor(t, first, req.ID)
	require.NoError(t, first.Close())

	second := open(t, cfg, WithPersistence())
	docs := second.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, a, docs[0].Path)

	st, err := second.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Requests)
	assert.Equal(t, 1, st.Succeeded)

	require.NotNil(t, second.History())
	recs, err := second.History().Requests(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Len(t, recs[0].Outputs, 2)
}

func TestPersistentSelectionRefreshedOnOpen(t *testing.T) {
	dir := t.TempDir()
	a := pdftest.WriteN(t, dir, "a.pdf", 1)
	b := pdftest.WriteN(t, dir, "b.pdf", 1)
	cfg := testConfig(t)

	first, err := Open(context.Background(), cfg, WithPersistence())
	require.NoError(t, err)
	_, err = first.Select(a, b)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	pdftest.WriteN(t, dir, "a.pdf", 3)
	require.NoError(t, os.Remove(b))

	second := open(t, cfg, WithPersistence())
	docs := second.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, 3, docs[0].PageCount)

	var errs []string
	for _, e := range second.Log().Entries() {
		if e.Severity == types.SeverityError {
			errs = append(errs, e.Message)
		}
	}
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "removed from selection")

	req, err := second.Submit(types.OpSplit, types.Params{Output: filepath.Join(dir, "pages")})
	require.NoError(t, err)
	c := waitFor(t, second, req.ID)
	require.Equal(t, types.StateSucceeded, c.State)
	assert.Equal(t, req.PlannedOutputs(), c.Result.Outputs)
}

func TestUnknownCompressBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Compress.Backend = "zip"
	_, err := Open(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown compress backend")
}
