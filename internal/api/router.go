// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api exposes a session over HTTP under /api/v1.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-tools/internal/session"
	"github.com/pdiddy/pdf-tools/pkg/types"
)

// NewRouter returns the HTTP handler for sess with CORS applied for the
// configured origins.
func NewRouter(sess *session.Session, cfg types.ServeConfig, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{session: sess, logger: logger}

	router := mux.NewRouter()
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/selection", h.ListSelection).Methods(http.MethodGet)
	api.HandleFunc("/selection", h.AddSelection).Methods(http.MethodPost)
	api.HandleFunc("/selection", h.ClearSelection).Methods(http.MethodDelete)
	api.HandleFunc("/selection/{index:[0-9]+}", h.RemoveSelection).Methods(http.MethodDelete)
	api.HandleFunc("/operations/{kind}", h.SubmitOperation).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}", h.GetRequest).Methods(http.MethodGet)
	api.HandleFunc("/requests/{id}", h.CancelRequest).Methods(http.MethodDelete)
	api.HandleFunc("/activity", h.Activity).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.Stats).Methods(http.MethodGet)
	api.HandleFunc("/documents/info", h.DocumentInfo).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	return c.Handler(router)
}
