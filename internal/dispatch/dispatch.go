// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dispatch validates operation preconditions and turns a selection
// snapshot into an immutable request for the runner. Validation never
// touches the file system and never invokes a handler.
package dispatch

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/pdf-tools/pkg/types"
)

// Requirement lists the inputs an operation needs.
type Requirement struct {
	MinInputs int
	Password  bool
	Watermark bool
	// OutputIsFile is set for merge; the others write into a directory.
	OutputIsFile bool
}

// Requirements is the precondition table for every operation kind.
var Requirements = map[types.OperationKind]Requirement{
	types.OpMerge:     {MinInputs: 2, OutputIsFile: true},
	types.OpSplit:     {MinInputs: 1},
	types.OpCompress:  {MinInputs: 1},
	types.OpWatermark: {MinInputs: 1, Watermark: true},
	types.OpProtect:   {MinInputs: 1, Password: true},
	types.OpUnlock:    {MinInputs: 1, Password: true},
}

// Submitter accepts a validated request for background execution.
type Submitter interface {
	Submit(req types.Request) error
}

// Dispatcher owns the handler table and forwards validated requests.
type Dispatcher struct {
	handlers  map[types.OperationKind]types.Handler
	submitter Submitter
	now       func() time.Time
	newID     func() string
}

// New creates a Dispatcher. Every kind requested later must have a handler.
func New(handlers map[types.OperationKind]types.Handler, submitter Submitter) *Dispatcher {
	return &Dispatcher{
		handlers:  handlers,
		submitter: submitter,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Handler returns the handler registered for kind.
func (d *Dispatcher) Handler(kind types.OperationKind) (types.Handler, bool) {
	h, ok := d.handlers[kind]
	return h, ok
}

// Prepare validates kind, docs and params and returns the request that
// Dispatch would submit. The document slice is copied.
func (d *Dispatcher) Prepare(kind types.OperationKind, docs []types.Document, params types.Params) (types.Request, error) {
	req, ok := Requirements[kind]
	if !ok {
		return types.Request{}, selectionError("unknown operation %q", kind)
	}
	if _, ok := d.handlers[kind]; !ok {
		return types.Request{}, selectionError("no handler registered for %s", kind)
	}
	if len(docs) < req.MinInputs {
		if req.MinInputs == 1 {
			return types.Request{}, selectionError("%s needs at least one selected document", kind)
		}
		return types.Request{}, selectionError("%s needs at least %d selected documents, have %d", kind, req.MinInputs, len(docs))
	}
	if req.Password && params.Password == "" {
		return types.Request{}, selectionError("%s needs a password", kind)
	}
	if req.Watermark && strings.TrimSpace(params.Watermark) == "" {
		return types.Request{}, selectionError("%s needs watermark text", kind)
	}
	if strings.TrimSpace(params.Output) == "" {
		if req.OutputIsFile {
			return types.Request{}, selectionError("%s needs an output file", kind)
		}
		return types.Request{}, selectionError("%s needs an output directory", kind)
	}
	params.Output = filepath.Clean(params.Output)
	if req.OutputIsFile && !strings.EqualFold(filepath.Ext(params.Output), ".pdf") {
		params.Output += ".pdf"
	}

	inputs := make([]types.Document, len(docs))
	copy(inputs, docs)
	r := types.Request{
		ID:          d.newID(),
		Kind:        kind,
		Inputs:      inputs,
		Params:      params,
		SubmittedAt: d.now(),
	}
	if err := checkCollisions(r); err != nil {
		return types.Request{}, err
	}
	return r, nil
}

// Dispatch validates and submits. On a precondition violation it returns a
// selection error and submits nothing.
func (d *Dispatcher) Dispatch(kind types.OperationKind, docs []types.Document, params types.Params) (types.Request, error) {
	r, err := d.Prepare(kind, docs, params)
	if err != nil {
		return types.Request{}, err
	}
	if err := d.submitter.Submit(r); err != nil {
		return types.Request{}, fmt.Errorf("submitting %s: %w", kind, err)
	}
	return r, nil
}

// checkCollisions rejects requests whose planned outputs would overwrite
// one of their inputs or each other.
func checkCollisions(r types.Request) error {
	inputs := make(map[string]bool, len(r.Inputs))
	for _, doc := range r.Inputs {
		inputs[key(doc.Path)] = true
	}
	seen := map[string]bool{}
	for _, out := range r.PlannedOutputs() {
		k := key(out)
		if inputs[k] {
			return types.NewError(types.KindSelection, out, "output would overwrite an input document", nil)
		}
		if seen[k] {
			return types.NewError(types.KindSelection, out, "two inputs would write the same output", nil)
		}
		seen[k] = true
	}
	return nil
}

func key(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func selectionError(format string, args ...any) error {
	return types.NewError(types.KindSelection, "", fmt.Sprintf(format, args...), nil)
}
