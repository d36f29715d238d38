// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session wires the selector, activity log, dispatcher and runner
// into the state object every surface works through.
package session

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf-tools/internal/activity"
	"github.com/pdiddy/pdf-tools/internal/container"
	"github.com/pdiddy/pdf-tools/internal/dispatch"
	"github.com/pdiddy/pdf-tools/internal/engine"
	"github.com/pdiddy/pdf-tools/internal/history"
	"github.com/pdiddy/pdf-tools/internal/runner"
	"github.com/pdiddy/pdf-tools/internal/selector"
	"github.com/pdiddy/pdf-tools/pkg/types"
)

const selectionFile = "session.db"

// Session owns the state of one pdf-tools process.
type Session struct {
	cfg        types.Config
	logger     *zap.Logger
	engine     *engine.Engine
	selector   *selector.Selector
	log        *activity.Log
	dispatcher *dispatch.Dispatcher
	runner     *runner.Runner
	history    *history.Store
	closers    []io.Closer

	mu    sync.Mutex
	stats types.ProcessingStats
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	output    io.Writer
	selection bool
	history   bool
	handlers  map[types.OperationKind]types.Handler
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithOutput prints every activity log entry to w.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithPersistence keeps the selection in StateDir/session.db and records
// history in StateDir/history.db.
func WithPersistence() Option {
	return func(o *options) {
		o.selection = true
		o.history = true
	}
}

// WithHistory records history in StateDir/history.db but keeps the
// selection in memory.
func WithHistory() Option {
	return func(o *options) { o.history = true }
}

// WithHandlers replaces the engine handlers, for tests.
func WithHandlers(h map[types.OperationKind]types.Handler) Option {
	return func(o *options) { o.handlers = h }
}

// Open builds a session and starts its runner with ctx.
func Open(ctx context.Context, cfg types.Config, opts ...Option) (*Session, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	eng, err := newEngine(cfg, o.logger)
	if err != nil {
		return nil, err
	}
	s := &Session{
		cfg:    cfg,
		logger: o.logger,
		engine: eng,
		log:    activity.New(activity.WithLogger(o.logger)),
	}
	if o.output != nil {
		s.log.AddSink(activity.NewWriterSink(o.output))
	}

	var store selector.Store
	if o.selection {
		bolt, err := selector.OpenBoltStore(filepath.Join(cfg.StateDir, selectionFile))
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, bolt)
		store = bolt
	}
	if o.history {
		h, err := history.Open(cfg.StateDir, o.logger)
		if err != nil {
			s.closeAll()
			return nil, err
		}
		s.history = h
		s.closers = append(s.closers, h)
		s.log.AddSink(h)
	}

	s.selector, err = selector.New(eng, store)
	if err != nil {
		s.closeAll()
		return nil, err
	}
	if err := s.selector.Dropped(); err != nil {
		s.log.Error("", "removed from selection: %s", strings.ReplaceAll(err.Error(), "\n", "; "))
	}

	handlers := o.handlers
	if handlers == nil {
		handlers = eng.Handlers()
	}
	s.runner = runner.New(handlers, s.log, runner.WithLogger(o.logger))
	s.runner.OnComplete(s.record)
	s.dispatcher = dispatch.New(handlers, s.runner)
	s.runner.Start(ctx)
	return s, nil
}

// newEngine picks the compress backend from cfg.
func newEngine(cfg types.Config, logger *zap.Logger) (*engine.Engine, error) {
	opts := []engine.Option{engine.WithLogger(logger)}
	switch cfg.Compress.Backend {
	case "", types.CompressPdfcpu:
	case types.CompressGhostscript:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, fmt.Errorf("ghostscript backend: %w", err)
		}
		gs, err := engine.NewGhostscriptCompressor(rt, cfg.Compress.Image, cfg.Compress.Quality)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithCompressor(gs))
	default:
		return nil, fmt.Errorf("unknown compress backend %q: use pdfcpu or ghostscript", cfg.Compress.Backend)
	}
	return engine.New(cfg, opts...), nil
}

// record runs on the runner goroutine for every completion.
func (s *Session) record(c types.Completion) {
	s.mu.Lock()
	s.stats.Requests++
	switch c.State {
	case types.StateSucceeded:
		s.stats.Succeeded++
		s.stats.DocumentsProcessed += len(c.Request.Inputs)
		s.stats.BytesProcessed += c.Result.BytesIn
		if c.Request.Kind == types.OpCompress {
			s.stats.CompressionSaved += c.Result.Saved()
		}
	case types.StateFailed:
		s.stats.Failed++
	}
	s.mu.Unlock()

	if s.history == nil {
		return
	}
	if err := s.history.RecordCompletion(context.Background(), c); err != nil {
		s.logger.Warn("recording completion failed", zap.String("id", c.Request.ID), zap.Error(err))
	}
}

// Log returns the activity log.
func (s *Session) Log() *activity.Log { return s.log }

// History returns the history store, or nil without persistence.
func (s *Session) History() *history.Store { return s.history }

// Config returns the configuration the session was opened with.
func (s *Session) Config() types.Config { return s.cfg }

// Select adds paths to the selection and logs one entry for the accepted
// paths and one for the rejected ones.
func (s *Session) Select(paths ...string) ([]types.Document, error) {
	added, err := s.selector.Add(paths...)
	if len(added) > 0 {
		names := make([]string, len(added))
		for i, d := range added {
			names[i] = filepath.Base(d.Path)
			if d.Encrypted {
				names[i] += " (encrypted)"
			}
		}
		s.log.Info("", "selected %s (%d in selection)", strings.Join(names, ", "), s.selector.Len())
	}
	if err != nil {
		s.log.Error("", "%s", strings.ReplaceAll(err.Error(), "\n", "; "))
	}
	return added, err
}

// Deselect removes path from the selection.
func (s *Session) Deselect(path string) error {
	doc, err := s.selector.Remove(path)
	if err != nil {
		s.log.Error("", "%v", err)
		return err
	}
	s.log.Info("", "removed %s from selection", filepath.Base(doc.Path))
	return nil
}

// DeselectAt removes the document at position i.
func (s *Session) DeselectAt(i int) (types.Document, error) {
	doc, err := s.selector.RemoveAt(i)
	if err != nil {
		s.log.Error("", "%v", err)
		return types.Document{}, err
	}
	s.log.Info("", "removed %s from selection", filepath.Base(doc.Path))
	return doc, nil
}

// Clear empties the selection.
func (s *Session) Clear() error {
	n, err := s.selector.Clear()
	if err != nil {
		s.log.Error("", "%v", err)
		return err
	}
	s.log.Info("", "cleared selection (%d documents)", n)
	return nil
}

// Documents returns the current selection.
func (s *Session) Documents() []types.Document {
	return s.selector.Documents()
}

// Submit validates kind against the current selection and queues it. A
// rejected request is logged once and nothing is queued.
func (s *Session) Submit(kind types.OperationKind, params types.Params) (types.Request, error) {
	req, err := s.dispatcher.Dispatch(kind, s.selector.Documents(), params)
	if err != nil {
		s.log.Error("", "%v", err)
		return types.Request{}, err
	}
	return req, nil
}

// Wait blocks until request id is terminal.
func (s *Session) Wait(ctx context.Context, id string) (types.Completion, error) {
	return s.runner.Wait(ctx, id)
}

// Cancel cancels a queued request.
func (s *Session) Cancel(id string) error {
	return s.runner.Cancel(id)
}

// Status returns the current state of request id.
func (s *Session) Status(id string) (types.Completion, error) {
	return s.runner.Status(id)
}

// Info reads document metadata.
func (s *Session) Info(path, password string, withText bool) (types.DocumentInfo, error) {
	return s.engine.Info(path, password, withText)
}

// Stats returns the stored statistics when history is persisted, otherwise
// the statistics of this process.
func (s *Session) Stats(ctx context.Context) (types.ProcessingStats, error) {
	if s.history != nil {
		return s.history.Stats(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats, nil
}

// Close stops the runner, cancelling queued requests, and closes the stores.
func (s *Session) Close() error {
	s.runner.Close()
	return s.closeAll()
}

func (s *Session) closeAll() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
