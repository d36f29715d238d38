// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf-tools/internal/runner"
	"github.com/pdiddy/pdf-tools/pkg/types"
)

type errorBody struct {
	Kind    types.ErrorKind `json:"kind"`
	Message string          `json:"message"`
	Path    string          `json:"path,omitempty"`
}

func bodyOf(err error) errorBody {
	var te *types.Error
	if errors.As(err, &te) {
		return errorBody{Kind: te.Kind, Message: te.Message, Path: te.Path}
	}
	return errorBody{Kind: types.KindOf(err), Message: err.Error()}
}

// statusOf maps an error to an HTTP status.
func statusOf(err error) int {
	if errors.Is(err, runner.ErrUnknownRequest) {
		return http.StatusNotFound
	}
	switch types.KindOf(err) {
	case types.KindSelection:
		return http.StatusBadRequest
	case types.KindInputUnreadable:
		return http.StatusNotFound
	case types.KindInputEncrypted, types.KindWrongPassword:
		return http.StatusForbidden
	case types.KindUnsupportedDocument:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// unjoin flattens an errors.Join result.
func unjoin(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	body := bodyOf(err)
	if errors.Is(err, runner.ErrUnknownRequest) {
		body.Kind = types.KindSelection
	}
	h.writeJSON(w, status, map[string]errorBody{"error": body})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, kind types.ErrorKind, message string) {
	h.writeJSON(w, status, map[string]errorBody{"error": {Kind: kind, Message: message}})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("writing response failed", zap.Error(err))
	}
}
