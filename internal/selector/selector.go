// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package selector holds the ordered list of documents the user has chosen
// as operation inputs. Paths are validated and inspected when added; the
// cached page count is later used to plan split output names.
package selector

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdiddy/pdf-tools/pkg/types"
)

// Inspector opens a candidate file and reports its document reference.
type Inspector interface {
	Inspect(path string) (types.Document, error)
}

// Store persists the selection between processes.
type Store interface {
	Load() ([]types.Document, error)
	Save(docs []types.Document) error
}

// Selector is a mutex-guarded ordered selection.
type Selector struct {
	mu        sync.Mutex
	inspector Inspector
	store     Store
	docs      []types.Document
	dropped   []error
}

// New creates a Selector. When store is non-nil the previous selection is
// loaded from it and every change is saved back. Loaded documents are
// inspected again since the files may have changed since they were saved;
// the ones that no longer inspect cleanly are dropped and reported by
// Dropped.
func New(inspector Inspector, store Store) (*Selector, error) {
	s := &Selector{inspector: inspector, store: store}
	if store == nil {
		return s, nil
	}
	docs, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading selection: %w", err)
	}

	changed := false
	for _, saved := range docs {
		doc, err := inspector.Inspect(saved.Path)
		if err != nil {
			s.dropped = append(s.dropped, err)
			changed = true
			continue
		}
		changed = changed || doc != saved
		s.docs = append(s.docs, doc)
	}
	if changed {
		if err := s.saveLocked(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Dropped returns the inspection errors of persisted documents that New
// removed from the selection, joined, or nil.
func (s *Selector) Dropped() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(s.dropped...)
}

// Add validates and appends paths in the order given. Paths already in the
// selection are skipped. Each rejected path contributes one error to the
// joined result; accepted paths are added regardless.
func (s *Selector) Add(paths ...string) ([]types.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []types.Document
	var errs []error
	for _, p := range paths {
		p = filepath.Clean(strings.TrimSpace(p))
		if !strings.EqualFold(filepath.Ext(p), ".pdf") {
			errs = append(errs, types.NewError(types.KindSelection, p, "not a PDF file", nil))
			continue
		}
		if s.indexLocked(p) >= 0 {
			continue
		}
		doc, err := s.inspector.Inspect(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.docs = append(s.docs, doc)
		added = append(added, doc)
	}

	if len(added) > 0 {
		if err := s.saveLocked(); err != nil {
			errs = append(errs, err)
		}
	}
	return added, errors.Join(errs...)
}

// Remove drops path from the selection.
func (s *Selector) Remove(path string) (types.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(filepath.Clean(path))
	if i < 0 {
		return types.Document{}, types.NewError(types.KindSelection, path, "not in selection", nil)
	}
	return s.removeLocked(i)
}

// RemoveAt drops the document at the 0-based position i.
func (s *Selector) RemoveAt(i int) (types.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.docs) {
		return types.Document{}, types.NewError(types.KindSelection, "",
			fmt.Sprintf("index %d out of range (selection has %d documents)", i, len(s.docs)), nil)
	}
	return s.removeLocked(i)
}

// Clear empties the selection and returns how many documents it held.
func (s *Selector) Clear() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.docs)
	s.docs = nil
	return n, s.saveLocked()
}

// Documents returns a copy of the selection in order.
func (s *Selector) Documents() []types.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Len returns the number of selected documents.
func (s *Selector) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func (s *Selector) removeLocked(i int) (types.Document, error) {
	doc := s.docs[i]
	s.docs = append(s.docs[:i:i], s.docs[i+1:]...)
	return doc, s.saveLocked()
}

// indexLocked finds path, comparing absolute forms so "a.pdf" and "./a.pdf"
// are the same document.
func (s *Selector) indexLocked(path string) int {
	key := absPath(path)
	for i, d := range s.docs {
		if absPath(d.Path) == key {
			return i
		}
	}
	return -1
}

func (s *Selector) saveLocked() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(s.docs); err != nil {
		return fmt.Errorf("saving selection: %w", err)
	}
	return nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
