package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/xonecas/classmap/internal/outline"
	"github.com/xonecas/classmap/internal/reduce"
	"github.com/xonecas/classmap/internal/summarize"
)

// Handler serves the summarize API.
type Handler struct {
	svc           *summarize.Service
	defaultFilter reduce.FilterMode
}

// NewMux builds the route table around one summarize service.
func NewMux(svc *summarize.Service, defaultFilter reduce.FilterMode) http.Handler {
	h := &Handler{svc: svc, defaultFilter: defaultFilter}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /v1/file", h.handleFile)
	mux.HandleFunc("GET /v1/dir", h.handleDir)
	mux.HandleFunc("GET /v1/outline", h.handleOutline)

	return CORS(RequestLog(mux))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleFile summarizes one file: /v1/file?path=...&filter=public
func (h *Handler) handleFile(w http.ResponseWriter, r *http.Request) {
	path, filter, ok := h.queryArgs(w, r)
	if !ok {
		return
	}
	res, err := h.svc.File(r.Context(), path, filter)
	if err != nil {
		writeError(w, statusForPathError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleDir summarizes a directory batch: /v1/dir?path=...&filter=all
func (h *Handler) handleDir(w http.ResponseWriter, r *http.Request) {
	path, filter, ok := h.queryArgs(w, r)
	if !ok {
		return
	}
	report, err := h.svc.Dir(r.Context(), path, filter)
	if err != nil {
		writeError(w, statusForPathError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleOutline renders a directory batch as compact text.
func (h *Handler) handleOutline(w http.ResponseWriter, r *http.Request) {
	path, filter, ok := h.queryArgs(w, r)
	if !ok {
		return
	}
	report, err := h.svc.Dir(r.Context(), path, filter)
	if err != nil {
		writeError(w, statusForPathError(err), err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(outline.Format(report)))
}

// queryArgs pulls the shared path and filter query parameters. Writes the
// error response itself and returns ok=false on bad input.
func (h *Handler) queryArgs(w http.ResponseWriter, r *http.Request) (string, reduce.FilterMode, bool) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing required query parameter: path"))
		return "", 0, false
	}
	raw := r.URL.Query().Get("filter")
	if raw == "" {
		return path, h.defaultFilter, true
	}
	filter, err := reduce.ParseFilterMode(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return "", 0, false
	}
	return path, filter, true
}

// statusForPathError maps path validation failures: missing path is 404,
// wrong kind (file vs directory) and the rest are 400.
func statusForPathError(err error) int {
	if errors.Is(err, fs.ErrNotExist) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
