// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-tools/pkg/types"
)

type recordingSubmitter struct {
	reqs []types.Request
	err  error
}

func (r *recordingSubmitter) Submit(req types.Request) error {
	if r.err != nil {
		return r.err
	}
	r.reqs = append(r.reqs, req)
	return nil
}

// handlers returns a handler table whose handlers fail the test if called.
func handlers(t *testing.T) map[types.OperationKind]types.Handler {
	h := map[types.OperationKind]types.Handler{}
	for _, k := range types.Operations {
		h[k] = func(context.Context, types.Request, types.ProgressFunc) (types.Result, error) {
			t.Errorf("handler for %s must not run during dispatch", k)
			return types.Result{}, nil
		}
	}
	return h
}

func docs(paths ...string) []types.Document {
	out := make([]types.Document, len(paths))
	for i, p := range paths {
		out[i] = types.Document{Path: p, PageCount: 2}
	}
	return out
}

func TestPreconditions(t *testing.T) {
	tests := []struct {
		name    string
		kind    types.OperationKind
		docs    []types.Document
		params  types.Params
		wantErr bool
	}{
		{"merge with one document", types.OpMerge, docs("/in/a.pdf"), types.Params{Output: "/out/m.pdf"}, true},
		{"merge with two documents", types.OpMerge, docs("/in/a.pdf", "/in/b.pdf"), types.Params{Output: "/out/m.pdf"}, false},
		{"split with none", types.OpSplit, nil, types.Params{Output: "/out"}, true},
		{"split with one", types.OpSplit, docs("/in/a.pdf"), types.Params{Output: "/out"}, false},
		{"compress with one", types.OpCompress, docs("/in/a.pdf"), types.Params{Output: "/out"}, false},
		{"watermark without text", types.OpWatermark, docs("/in/a.pdf"), types.Params{Output: "/out", Watermark: "  "}, true},
		{"watermark with text", types.OpWatermark, docs("/in/a.pdf"), types.Params{Output: "/out", Watermark: "draft"}, false},
		{"protect without password", types.OpProtect, docs("/in/a.pdf"), types.Params{Output: "/out"}, true},
		{"protect with password", types.OpProtect, docs("/in/a.pdf"), types.Params{Output: "/out", Password: "pw"}, false},
		{"unlock without password", types.OpUnlock, docs("/in/a.pdf"), types.Params{Output: "/out"}, true},
		{"missing output", types.OpCompress, docs("/in/a.pdf"), types.Params{}, true},
		{"unknown kind", types.OperationKind("rotate"), docs("/in/a.pdf"), types.Params{Output: "/out"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &recordingSubmitter{}
			d := New(handlers(t), sub)
			req, err := d.Dispatch(tt.kind, tt.docs, tt.params)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, types.KindSelection, types.KindOf(err))
				assert.Empty(t, sub.reqs)
				return
			}
			require.NoError(t, err)
			require.Len(t, sub.reqs, 1)
			assert.Equal(t, req, sub.reqs[0])
			assert.NotEmpty(t, req.ID)
			assert.Equal(t, tt.kind, req.Kind)
		})
	}
}

func TestMergeOutputGetsExtension(t *testing.T) {
	d := New(handlers(t), &recordingSubmitter{})
	req, err := d.Prepare(types.OpMerge, docs("/in/a.pdf", "/in/b.pdf"), types.Params{Output: "/out/combined"})
	require.NoError(t, err)
	assert.Equal(t, "/out/combined.pdf", req.Params.Output)
}

func TestOutputCollisions(t *testing.T) {
	tests := []struct {
		name   string
		kind   types.OperationKind
		docs   []types.Document
		output string
	}{
		{"merge onto an input", types.OpMerge, docs("/in/a.pdf", "/in/b.pdf"), "/in/b.pdf"},
		{"compress output already selected", types.OpCompress, docs("/in/a.pdf", "/in/compressed_a.pdf"), "/in"},
		{"split page already selected", types.OpSplit, docs("/in/a.pdf", "/in/a_Page_002.pdf"), "/in"},
		{"same name in two folders", types.OpWatermark, docs("/x/a.pdf", "/y/a.pdf"), "/out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(handlers(t), &recordingSubmitter{})
			_, err := d.Prepare(tt.kind, tt.docs, types.Params{Output: tt.output, Watermark: "x"})
			assert.Equal(t, types.KindSelection, types.KindOf(err))
		})
	}
}

func TestPrepareCopiesDocuments(t *testing.T) {
	d := New(handlers(t), &recordingSubmitter{})
	in := docs("/in/a.pdf", "/in/b.pdf")
	req, err := d.Prepare(types.OpMerge, in, types.Params{Output: "/out/m.pdf"})
	require.NoError(t, err)

	in[0].Path = "/in/changed.pdf"
	assert.Equal(t, "/in/a.pdf", req.Inputs[0].Path)
}

func TestSubmitFailure(t *testing.T) {
	d := New(handlers(t), &recordingSubmitter{err: errors.New("runner closed")})
	_, err := d.Dispatch(types.OpSplit, docs("/in/a.pdf"), types.Params{Output: "/out"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runner closed")
}

func TestRequirementsCoverEveryOperation(t *testing.T) {
	for _, k := range types.Operations {
		_, ok := Requirements[k]
		assert.True(t, ok, "missing requirement for %s", k)
	}
}
