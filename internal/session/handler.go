package session

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"gapless-controller/internal/playback"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the session control surface over HTTP using go-chi.
type Handler struct {
	svc *Service
	log *slog.Logger
}

// NewHandler returns a Handler that uses the given Service and Logger.
func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts the handler's endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/songs", h.ListSongs)
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{session_id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)

		r.Post("/seek/start", h.event(func(c *playback.Controller, _ *http.Request) error { return c.BeginSeek() }))
		r.Post("/seek/input", h.valueEvent((*playback.Controller).SeekInput))
		r.Post("/seek/commit", h.event(func(c *playback.Controller, _ *http.Request) error { return c.CommitSeek() }))

		r.Post("/volume", h.valueEvent((*playback.Controller).SetVolume))
		r.Post("/volume/icon", h.event(func(c *playback.Controller, _ *http.Request) error { return c.VolumeIconClick() }))
		r.Post("/volume/hover", h.SetVolumeHover)
		r.Post("/mute", h.event(func(c *playback.Controller, _ *http.Request) error { return c.ToggleMute() }))

		r.Post("/play", h.event(func(c *playback.Controller, _ *http.Request) error { return c.TogglePlay() }))
		r.Post("/next", h.event(func(c *playback.Controller, _ *http.Request) error { return c.SkipNext() }))
		r.Post("/restart", h.event(func(c *playback.Controller, _ *http.Request) error { return c.RestartSong() }))

		r.Get("/hover", h.Hover)
		r.Delete("/hover", h.ClearHover)
	})
}

func sessionID(r *http.Request) SessionID {
	return SessionID(chi.URLParam(r, "session_id"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrSongNotFound), errors.Is(err, ErrNoSongsForMedia):
		status = http.StatusBadRequest
	case errors.Is(err, playback.ErrControllerDisposed):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	} else {
		h.log.Debug("request rejected", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// respondView writes the session's current view.
func (h *Handler) respondView(w http.ResponseWriter, r *http.Request, id SessionID, status int) {
	view, err := h.svc.View(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, status, view)
}

// ListSongs handles GET /songs?mediaId=.
func (h *Handler) ListSongs(w http.ResponseWriter, r *http.Request) {
	songs := h.svc.Songs(r.URL.Query().Get("mediaId"))
	if songs == nil {
		songs = []playback.Interval{}
	}
	writeJSON(w, http.StatusOK, songs)
}

// CreateSession handles POST /sessions.
// Body: { "mediaId": "abc", "songIndex": 0, "touch": false, "autoplay": true }.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Debug("invalid session body", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	sess, err := h.svc.Create(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondView(w, r, sess.ID, http.StatusCreated)
}

// GetSession handles GET /sessions/{session_id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.respondView(w, r, sessionID(r), http.StatusOK)
}

// DeleteSession handles DELETE /sessions/{session_id}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(sessionID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// event adapts a body-less controller event to an HTTP handler that
// responds with the updated view.
func (h *Handler) event(fn func(*playback.Controller, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := sessionID(r)
		if err := h.svc.Do(id, func(c *playback.Controller) error { return fn(c, r) }); err != nil {
			h.writeError(w, r, err)
			return
		}
		h.respondView(w, r, id, http.StatusOK)
	}
}

// valueEvent is event for endpoints taking {"value": n}.
func (h *Handler) valueEvent(fn func(*playback.Controller, float64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ValueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		h.event(func(c *playback.Controller, _ *http.Request) error {
			return fn(c, *req.Value)
		})(w, r)
	}
}

// SetVolumeHover handles POST /sessions/{session_id}/volume/hover.
func (h *Handler) SetVolumeHover(w http.ResponseWriter, r *http.Request) {
	var req VolumeHoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.event(func(c *playback.Controller, _ *http.Request) error {
		return c.SetVolumeHover(req.Inside)
	})(w, r)
}

// Hover handles GET /sessions/{session_id}/hover?p=0.5&width=600.
// It answers 204 when nothing is under the pointer.
func (h *Handler) Hover(w http.ResponseWriter, r *http.Request) {
	p, err := strconv.ParseFloat(r.URL.Query().Get("p"), 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	width := 1.0
	if s := r.URL.Query().Get("width"); s != "" {
		if width, err = strconv.ParseFloat(s, 64); err != nil || width <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
	}

	sess, err := h.svc.Get(sessionID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	hover := sess.Controller.HoverAt(p, width)
	if hover == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, hover)
}

// ClearHover handles DELETE /sessions/{session_id}/hover.
func (h *Handler) ClearHover(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Get(sessionID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sess.Controller.ClearHover()
	w.WriteHeader(http.StatusNoContent)
}
