// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-tools/internal/runner"
	"github.com/pdiddy/pdf-tools/internal/session"
	"github.com/pdiddy/pdf-tools/pkg/types"
)

// Handler serves the session endpoints.
type Handler struct {
	session *session.Session
	logger  *zap.Logger
}

// RequestView is the JSON form of a request and its current state.
type RequestView struct {
	ID          string              `json:"id"`
	Kind        types.OperationKind `json:"kind"`
	State       types.JobState      `json:"state"`
	Inputs      []string            `json:"inputs"`
	Output      string              `json:"output"`
	Outputs     []string            `json:"outputs,omitempty"`
	Pages       int                 `json:"pages,omitempty"`
	BytesIn     int64               `json:"bytes_in,omitempty"`
	BytesOut    int64               `json:"bytes_out,omitempty"`
	ErrorKind   types.ErrorKind     `json:"error_kind,omitempty"`
	Error       string              `json:"error,omitempty"`
	SubmittedAt time.Time           `json:"submitted_at"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`
	FinishedAt  *time.Time          `json:"finished_at,omitempty"`
}

func viewOf(c types.Completion) RequestView {
	v := RequestView{
		ID:          c.Request.ID,
		Kind:        c.Request.Kind,
		State:       c.State,
		Inputs:      c.Request.InputPaths(),
		Output:      c.Request.Params.Output,
		Outputs:     c.Result.Outputs,
		Pages:       c.Result.Pages,
		BytesIn:     c.Result.BytesIn,
		BytesOut:    c.Result.BytesOut,
		SubmittedAt: c.Request.SubmittedAt,
	}
	if c.Err != nil {
		v.ErrorKind = c.ErrorKind()
		v.Error = c.Err.Error()
	}
	if !c.StartedAt.IsZero() {
		t := c.StartedAt
		v.StartedAt = &t
	}
	if !c.FinishedAt.IsZero() {
		t := c.FinishedAt
		v.FinishedAt = &t
	}
	return v
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "pdf-tools"})
}

// ListSelection returns the selected documents in order.
func (h *Handler) ListSelection(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"documents": h.session.Documents()})
}

type addSelectionRequest struct {
	Paths []string `json:"paths"`
}

type addSelectionResponse struct {
	Added     []types.Document `json:"added"`
	Rejected  []errorBody      `json:"rejected,omitempty"`
	Documents []types.Document `json:"documents"`
}

// AddSelection appends paths. Rejected paths are listed; the request fails
// only when nothing was added.
func (h *Handler) AddSelection(w http.ResponseWriter, r *http.Request) {
	var body addSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, types.KindSelection, "invalid JSON body")
		return
	}
	if len(body.Paths) == 0 {
		h.writeError(w, http.StatusBadRequest, types.KindSelection, "paths is required")
		return
	}

	added, err := h.session.Select(body.Paths...)
	resp := addSelectionResponse{Added: added, Documents: h.session.Documents()}
	if resp.Added == nil {
		resp.Added = []types.Document{}
	}
	for _, e := range unjoin(err) {
		resp.Rejected = append(resp.Rejected, bodyOf(e))
	}
	status := http.StatusOK
	if len(added) == 0 && err != nil {
		status = http.StatusBadRequest
	}
	h.writeJSON(w, status, resp)
}

// ClearSelection empties the selection.
func (h *Handler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Clear(); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveSelection drops the document at the 0-based index.
func (h *Handler) RemoveSelection(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		h.writeError(w, http.StatusBadRequest, types.KindSelection, "index must be a number")
		return
	}
	doc, err := h.session.DeselectAt(i)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

type operationRequest struct {
	Output    string `json:"output"`
	Password  string `json:"password"`
	Watermark string `json:"watermark"`
	// Wait holds the response until the request is terminal.
	Wait bool `json:"wait"`
}

// SubmitOperation queues an operation over the current selection.
func (h *Handler) SubmitOperation(w http.ResponseWriter, r *http.Request) {
	kind, err := types.ParseOperation(mux.Vars(r)["kind"])
	if err != nil {
		h.writeErr(w, err)
		return
	}
	var body operationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, types.KindSelection, "invalid JSON body")
		return
	}

	req, err := h.session.Submit(kind, types.Params{
		Output:    body.Output,
		Password:  body.Password,
		Watermark: body.Watermark,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.logger.Info("operation submitted", zap.String("id", req.ID), zap.String("kind", string(kind)))

	if !body.Wait {
		h.writeJSON(w, http.StatusAccepted, viewOf(types.Completion{Request: req, State: types.StateQueued}))
		return
	}
	c, err := h.session.Wait(r.Context(), req.ID)
	if err != nil {
		h.writeError(w, http.StatusGatewayTimeout, types.KindInternal, "request still running: "+err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, viewOf(c))
}

// GetRequest returns the state of a submitted request.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	c, err := h.session.Status(mux.Vars(r)["id"])
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, viewOf(c))
}

// CancelRequest cancels a queued request.
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.session.Cancel(id); err != nil {
		if errors.Is(err, runner.ErrUnknownRequest) {
			h.writeErr(w, err)
			return
		}
		h.writeError(w, http.StatusConflict, types.KindOf(err), err.Error())
		return
	}
	c, _ := h.session.Status(id)
	h.writeJSON(w, http.StatusOK, viewOf(c))
}

// Activity returns log entries after the since query parameter.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	var since int64
	if s := r.URL.Query().Get("since"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, types.KindSelection, "since must be a non-negative integer")
			return
		}
		since = n
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"entries": h.session.Log().Since(since)})
}

// Stats returns aggregated processing statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.session.Stats(r.Context())
	if err != nil {
		h.logger.Error("stats failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, types.KindInternal, "failed to compute statistics")
		return
	}
	h.writeJSON(w, http.StatusOK, st)
}

type infoRequest struct {
	Path     string `json:"path"`
	Password string `json:"password"`
	Text     bool   `json:"text"`
}

// DocumentInfo reads metadata of one document.
func (h *Handler) DocumentInfo(w http.ResponseWriter, r *http.Request) {
	var body infoRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Path == "" {
		h.writeError(w, http.StatusBadRequest, types.KindSelection, "path is required")
		return
	}
	info, err := h.session.Info(body.Path, body.Password, body.Text)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}
