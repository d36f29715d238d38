// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runner executes operation requests on a single background
// worker. Requests run one at a time in submission order; each one moves
// Queued -> Running -> Succeeded or Failed, or Queued -> Cancelled.
package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf-tools/internal/activity"
	"github.com/pdiddy/pdf-tools/pkg/types"
)

var (
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("runner is closed")
	// ErrUnknownRequest is returned for ids that were never submitted.
	ErrUnknownRequest = errors.New("unknown request")
)

type job struct {
	comp types.Completion
	done chan struct{}
	// finished is set under Runner.mu by the one caller allowed to finish the job.
	finished bool
}

// Runner is safe for concurrent use.
type Runner struct {
	handlers map[types.OperationKind]types.Handler
	log      *activity.Log
	logger   *zap.Logger
	now      func() time.Time

	mu         sync.Mutex
	queue      []string
	jobs       map[string]*job
	onComplete []func(types.Completion)
	closed     bool
	started    bool

	wake    chan struct{}
	stopped chan struct{}
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithClock sets the time source for completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a Runner that reports progress and outcomes to log.
func New(handlers map[types.OperationKind]types.Handler, log *activity.Log, opts ...Option) *Runner {
	r := &Runner{
		handlers: handlers,
		log:      log,
		logger:   zap.NewNop(),
		now:      time.Now,
		jobs:     map[string]*job{},
		wake:     make(chan struct{}, 1),
		stopped:  make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// OnComplete registers fn to receive every completion, on the worker
// goroutine, before Wait returns for that request.
func (r *Runner) OnComplete(fn func(types.Completion)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onComplete = append(r.onComplete, fn)
}

// Start launches the worker. Handlers receive ctx; cancelling it stops the
// running handler between files or pages and ends the worker.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started || r.closed {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	go r.loop(ctx)
}

// Submit queues req. It returns immediately.
func (r *Runner) Submit(req types.Request) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if _, dup := r.jobs[req.ID]; dup {
		r.mu.Unlock()
		return fmt.Errorf("request %s already submitted", req.ID)
	}
	r.jobs[req.ID] = &job{
		comp: types.Completion{Request: req, State: types.StateQueued},
		done: make(chan struct{}),
	}
	r.queue = append(r.queue, req.ID)
	position := len(r.queue)
	r.mu.Unlock()

	r.log.Info(req.ID, "queued %s of %s (position %d)", req.Kind, describeDocs(len(req.Inputs)), position)
	r.signal()
	return nil
}

// Cancel removes a queued request. Requests that already started cannot be
// cancelled.
func (r *Runner) Cancel(id string) error {
	r.mu.Lock()
	j, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return ErrUnknownRequest
	}
	if j.comp.State != types.StateQueued {
		state := j.comp.State
		r.mu.Unlock()
		return types.NewError(types.KindSelection, "", fmt.Sprintf("request %s is %s and can no longer be cancelled", id, state), nil)
	}
	r.removeQueuedLocked(id)
	j.comp.State = types.StateCancelled
	r.mu.Unlock()

	r.finish(j, types.StateCancelled, types.Result{RequestID: id, Kind: j.comp.Request.Kind}, nil, time.Time{})
	return nil
}

// Status returns the current view of a request. Result and Err are only
// set once it is terminal.
func (r *Runner) Status(id string) (types.Completion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return types.Completion{}, ErrUnknownRequest
	}
	return j.comp, nil
}

// Pending returns the ids of queued requests in execution order.
func (r *Runner) Pending() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queue...)
}

// Wait blocks until request id is terminal or ctx is done.
func (r *Runner) Wait(ctx context.Context, id string) (types.Completion, error) {
	r.mu.Lock()
	j, ok := r.jobs[id]
	r.mu.Unlock()
	if !ok {
		return types.Completion{}, ErrUnknownRequest
	}

	select {
	case <-j.done:
		r.mu.Lock()
		defer r.mu.Unlock()
		return j.comp, nil
	case <-ctx.Done():
		return types.Completion{}, ctx.Err()
	}
}

// Close stops accepting requests, cancels those still queued, and waits
// for the running request to finish.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.stopped
		return
	}
	r.closed = true
	pending := r.takeQueueLocked()
	started := r.started
	r.mu.Unlock()

	r.cancelAll(pending)

	if !started {
		close(r.stopped)
		return
	}
	r.signal()
	<-r.stopped
}

func (r *Runner) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.stopped)
	for {
		if ctx.Err() != nil {
			r.drain()
			return
		}
		j, ok := r.next()
		if !ok {
			r.mu.Lock()
			closed := r.closed
			r.mu.Unlock()
			if closed {
				return
			}
			select {
			case <-r.wake:
				continue
			case <-ctx.Done():
				r.drain()
				return
			}
		}
		r.run(ctx, j)
	}
}

// next pops the head of the queue and marks it running.
func (r *Runner) next() (*job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return nil, false
	}
	id := r.queue[0]
	r.queue = r.queue[1:]
	j := r.jobs[id]
	j.comp.State = types.StateRunning
	j.comp.StartedAt = r.now()
	return j, true
}

// drain cancels whatever is still queued when the worker context ends.
func (r *Runner) drain() {
	r.mu.Lock()
	r.closed = true
	pending := r.takeQueueLocked()
	r.mu.Unlock()
	r.cancelAll(pending)
}

// takeQueueLocked empties the queue and marks every job in it cancelled,
// so a concurrent Cancel sees a terminal state.
func (r *Runner) takeQueueLocked() []*job {
	pending := make([]*job, 0, len(r.queue))
	for _, id := range r.queue {
		j := r.jobs[id]
		j.comp.State = types.StateCancelled
		pending = append(pending, j)
	}
	r.queue = nil
	return pending
}

func (r *Runner) cancelAll(pending []*job) {
	for _, j := range pending {
		id := j.comp.Request.ID
		r.finish(j, types.StateCancelled, types.Result{RequestID: id, Kind: j.comp.Request.Kind}, nil, time.Time{})
	}
}

func (r *Runner) run(ctx context.Context, j *job) {
	req := j.comp.Request
	r.mu.Lock()
	started := j.comp.StartedAt
	r.mu.Unlock()

	r.log.Info(req.ID, "started %s", req.Kind)
	r.logger.Debug("running request", zap.String("id", req.ID), zap.String("kind", string(req.Kind)))

	res, err := r.invoke(ctx, req)
	if err != nil {
		r.finish(j, types.StateFailed, res, err, started)
		return
	}
	r.finish(j, types.StateSucceeded, res, nil, started)
}

// invoke calls the handler, converting a panic into an internal error.
func (r *Runner) invoke(ctx context.Context, req types.Request) (res types.Result, err error) {
	h, ok := r.handlers[req.Kind]
	if !ok {
		return types.Result{RequestID: req.ID, Kind: req.Kind},
			types.NewError(types.KindInternal, "", fmt.Sprintf("no handler for %s", req.Kind), nil)
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("handler panicked",
				zap.String("id", req.ID),
				zap.Any("panic", p),
				zap.ByteString("stack", debug.Stack()))
			err = types.NewError(types.KindInternal, "", fmt.Sprintf("%s handler crashed: %v", req.Kind, p), nil)
		}
	}()

	progress := func(msg string) { r.log.Info(req.ID, "%s", msg) }
	return h(ctx, req, progress)
}

// finish records the terminal state, writes the one final log entry and
// delivers the completion.
func (r *Runner) finish(j *job, state types.JobState, res types.Result, err error, started time.Time) {
	r.mu.Lock()
	if j.finished {
		r.mu.Unlock()
		return
	}
	j.finished = true
	req := j.comp.Request
	r.mu.Unlock()

	if res.RequestID == "" {
		res.RequestID = req.ID
		res.Kind = req.Kind
	}
	comp := types.Completion{
		Request:    req,
		State:      state,
		Result:     res,
		Err:        err,
		StartedAt:  started,
		FinishedAt: r.now(),
	}

	switch state {
	case types.StateSucceeded:
		r.log.Success(req.ID, "%s", Summarize(comp))
	case types.StateFailed:
		r.log.Error(req.ID, "%s failed: %v", req.Kind, err)
	case types.StateCancelled:
		r.log.Info(req.ID, "%s cancelled before it started", req.Kind)
	}

	r.mu.Lock()
	j.comp = comp
	callbacks := append([]func(types.Completion){}, r.onComplete...)
	r.mu.Unlock()

	for _, fn := range callbacks {
		fn(comp)
	}
	close(j.done)
}

func (r *Runner) removeQueuedLocked(id string) {
	for i, qid := range r.queue {
		if qid == id {
			r.queue = append(r.queue[:i:i], r.queue[i+1:]...)
			return
		}
	}
}

// Summarize renders the success line for a completed request.
func Summarize(c types.Completion) string {
	res := c.Result
	took := res.Duration.Round(time.Millisecond)
	switch c.Request.Kind {
	case types.OpMerge:
		out := ""
		if len(res.Outputs) > 0 {
			out = res.Outputs[0]
		}
		return fmt.Sprintf("merged %s into %s (%d pages, %s) in %s",
			describeDocs(len(c.Request.Inputs)), out, res.Pages, types.FormatSize(res.BytesOut), took)
	case types.OpSplit:
		return fmt.Sprintf("split %s into %d files in %s in %s",
			describeDocs(len(c.Request.Inputs)), len(res.Outputs), c.Request.Params.Output, took)
	case types.OpCompress:
		return fmt.Sprintf("compressed %s: %s -> %s, saved %s in %s",
			describeDocs(len(c.Request.Inputs)), types.FormatSize(res.BytesIn), types.FormatSize(res.BytesOut),
			types.FormatSize(res.Saved()), took)
	default:
		names := make([]string, len(res.Outputs))
		for i, o := range res.Outputs {
			names[i] = filepath.Base(o)
		}
		return fmt.Sprintf("%s wrote %s to %s in %s", c.Request.Kind, strings.Join(names, ", "), c.Request.Params.Output, took)
	}
}

func describeDocs(n int) string {
	if n == 1 {
		return "1 document"
	}
	return fmt.Sprintf("%d documents", n)
}
