// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package selector

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-tools/pkg/types"
)

// fakeInspector returns canned documents keyed by path.
type fakeInspector struct {
	docs  map[string]types.Document
	errs  map[string]error
	calls int
}

func (f *fakeInspector) Inspect(path string) (types.Document, error) {
	f.calls++
	if err, ok := f.errs[path]; ok {
		return types.Document{}, err
	}
	if d, ok := f.docs[path]; ok {
		return d, nil
	}
	return types.Document{}, types.NewError(types.KindInputUnreadable, path, "cannot read file", nil)
}

func newInspector(paths ...string) *fakeInspector {
	f := &fakeInspector{docs: map[string]types.Document{}, errs: map[string]error{}}
	for i, p := range paths {
		f.docs[p] = types.Document{Path: p, PageCount: i + 1, Size: 100}
	}
	return f
}

func paths(docs []types.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Path
	}
	return out
}

func TestAdd(t *testing.T) {
	tests := []struct {
		name      string
		add       []string
		wantPaths []string
		wantKinds []types.ErrorKind
	}{
		{
			name:      "keeps order",
			add:       []string{"b.pdf", "a.pdf"},
			wantPaths: []string{"b.pdf", "a.pdf"},
		},
		{
			name:      "skips duplicates",
			add:       []string{"a.pdf", "./a.pdf", "a.pdf"},
			wantPaths: []string{"a.pdf"},
		},
		{
			name:      "rejects non-pdf extension",
			add:       []string{"notes.txt", "a.pdf"},
			wantPaths: []string{"a.pdf"},
			wantKinds: []types.ErrorKind{types.KindSelection},
		},
		{
			name:      "accepts upper case extension",
			add:       []string{"C.PDF"},
			wantPaths: []string{"C.PDF"},
		},
		{
			name:      "rejects unreadable",
			add:       []string{"missing.pdf", "b.pdf"},
			wantPaths: []string{"b.pdf"},
			wantKinds: []types.ErrorKind{types.KindInputUnreadable},
		},
		{
			name:      "rejects malformed",
			add:       []string{"broken.pdf"},
			wantKinds: []types.ErrorKind{types.KindUnsupportedDocument},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insp := newInspector("a.pdf", "b.pdf", "C.PDF")
			insp.errs["broken.pdf"] = types.NewError(types.KindUnsupportedDocument, "broken.pdf", "cannot parse document", nil)
			s, err := New(insp, nil)
			require.NoError(t, err)

			_, err = s.Add(tt.add...)
			if len(tt.wantKinds) == 0 {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				for _, k := range tt.wantKinds {
					assert.True(t, errors.Is(err, &types.Error{Kind: k}), "want %s in %v", k, err)
				}
			}
			if tt.wantPaths == nil {
				assert.Zero(t, s.Len())
			} else {
				assert.Equal(t, tt.wantPaths, paths(s.Documents()))
			}
		})
	}
}

func TestAddAcceptsEncrypted(t *testing.T) {
	insp := newInspector()
	insp.docs["locked.pdf"] = types.Document{Path: "locked.pdf", Encrypted: true}
	s, err := New(insp, nil)
	require.NoError(t, err)

	added, err := s.Add("locked.pdf")
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.True(t, added[0].Encrypted)
}

func TestRemoveAndClear(t *testing.T) {
	s, err := New(newInspector("a.pdf", "b.pdf", "c.pdf"), nil)
	require.NoError(t, err)
	_, err = s.Add("a.pdf", "b.pdf", "c.pdf")
	require.NoError(t, err)

	doc, err := s.Remove("b.pdf")
	require.NoError(t, err)
	assert.Equal(t, "b.pdf", doc.Path)
	assert.Equal(t, []string{"a.pdf", "c.pdf"}, paths(s.Documents()))

	_, err = s.Remove("b.pdf")
	assert.Equal(t, types.KindSelection, types.KindOf(err))

	doc, err = s.RemoveAt(1)
	require.NoError(t, err)
	assert.Equal(t, "c.pdf", doc.Path)

	_, err = s.RemoveAt(5)
	assert.Equal(t, types.KindSelection, types.KindOf(err))

	n, err := s.Clear()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, s.Len())
}

func TestDocumentsReturnsCopy(t *testing.T) {
	s, err := New(newInspector("a.pdf"), nil)
	require.NoError(t, err)
	_, err = s.Add("a.pdf")
	require.NoError(t, err)

	docs := s.Documents()
	docs[0].Path = "mutated.pdf"
	assert.Equal(t, "a.pdf", s.Documents()[0].Path)
}

func TestBoltStorePersistsSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.db")

	store, err := OpenBoltStore(path)
	require.NoError(t, err)
	s, err := New(newInspector("a.pdf", "b.pdf", "c.pdf"), store)
	require.NoError(t, err)
	_, err = s.Add("c.pdf", "a.pdf", "b.pdf")
	require.NoError(t, err)
	_, err = s.Remove("a.pdf")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = OpenBoltStore(path)
	require.NoError(t, err)
	defer store.Close()

	insp := newInspector("a.pdf", "b.pdf", "c.pdf")
	reopened, err := New(insp, store)
	require.NoError(t, err)
	docs := reopened.Documents()
	assert.Equal(t, []string{"c.pdf", "b.pdf"}, paths(docs))
	assert.Equal(t, 3, docs[0].PageCount)
	assert.NoError(t, reopened.Dropped())

	_, err = reopened.Clear()
	require.NoError(t, err)
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadRefreshesPersistedDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	store, err := OpenBoltStore(path)
	require.NoError(t, err)
	defer store.Close()

	s, err := New(newInspector("a.pdf", "b.pdf"), store)
	require.NoError(t, err)
	_, err = s.Add("a.pdf", "b.pdf")
	require.NoError(t, err)

	// a.pdf grew to five pages and b.pdf disappeared since the last run.
	insp := newInspector()
	insp.docs["a.pdf"] = types.Document{Path: "a.pdf", PageCount: 5, Size: 400}
	reopened, err := New(insp, store)
	require.NoError(t, err)

	docs := reopened.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, 5, docs[0].PageCount)
	assert.Equal(t, int64(400), docs[0].Size)
	assert.Equal(t, types.KindInputUnreadable, types.KindOf(reopened.Dropped()))

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, docs, saved)
}
