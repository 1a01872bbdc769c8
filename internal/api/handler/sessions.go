package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/auracast/auracast/internal/api/models"
	"github.com/auracast/auracast/internal/api/response"
	"github.com/auracast/auracast/internal/session"
)

const (
	keepaliveInterval = 30 * time.Second
	wsWriteWait       = 10 * time.Second
	wsPongWait        = 60 * time.Second
	wsPingInterval    = wsPongWait * 9 / 10
)

// SessionHandler handles live session endpoints.
type SessionHandler struct {
	sessions *session.Manager
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *session.Manager, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// CreateSession handles POST /v1/sessions - look up a city and start simulating it.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.SessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctrl, reading, err := h.sessions.Create(r.Context(), req.City)
	if err != nil {
		if errors.Is(err, session.ErrTooManySessions) {
			response.ServiceUnavailable(w, r, "too many active sessions, try again later")
			return
		}
		writeLookupError(w, r, h.logger, err)
		return
	}

	response.Created(w, r, "/v1/sessions/"+ctrl.ID(), models.NewSession(ctrl.ID(), ctrl.Running(), reading))
}

// GetSession handles GET /v1/sessions/{id}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	reading, ok := ctrl.Current()
	if !ok {
		response.Conflict(w, r, "session has no reading; load a city first")
		return
	}
	response.JSON(w, r, http.StatusOK, models.NewSession(ctrl.ID(), ctrl.Running(), reading))
}

// UpdateSession handles PUT /v1/sessions/{id} - switch the session to another city.
func (h *SessionHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	var req models.SessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reading, err := ctrl.Load(r.Context(), req.City)
	switch {
	case err == nil:
		response.JSON(w, r, http.StatusOK, models.NewSession(ctrl.ID(), ctrl.Running(), reading))
	case errors.Is(err, session.ErrSuperseded):
		response.Conflict(w, r, "a newer city request replaced this one")
	case errors.Is(err, session.ErrClosed):
		response.NotFound(w, r, "session not found")
	default:
		writeLookupError(w, r, h.logger, err)
	}
}

// DeleteSession handles DELETE /v1/sessions/{id}.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		response.NotFound(w, r, "session not found")
		return
	}
	response.NoContent(w, r)
}

// StreamEvents handles GET /v1/sessions/{id}/events - Server-Sent Events of readings.
func (h *SessionHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalError(w, r, "streaming not supported")
		return
	}

	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	readings, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	log := h.logger.With().Str("session_id", ctrl.ID()).Logger()

	// sent is the Seq of the last reading written. A reading installed between
	// Subscribe and Current arrives on the channel too and is skipped.
	var sent uint64
	if current, ok := ctrl.Current(); ok {
		if err := writeEvent(w, ctrl.ID(), ctrl.Running(), current); err != nil {
			log.Debug().Err(err).Msg("sse write failed")
			return
		}
		sent = current.Seq
	}
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Msg("sse client disconnected")
			return

		case reading, ok := <-readings:
			if !ok {
				// Session deleted.
				return
			}
			if reading.Seq <= sent {
				continue
			}
			if err := writeEvent(w, ctrl.ID(), ctrl.Running(), reading); err != nil {
				log.Debug().Err(err).Msg("sse write failed")
				return
			}
			sent = reading.Seq
			flusher.Flush()

		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, id string, running bool, reading session.Reading) error {
	data, err := json.Marshal(models.NewSession(id, running, reading))
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: reading\ndata: %s\n\n", reading.Seq, data)
	return err
}

// StreamWebSocket handles GET /v1/sessions/{id}/ws - readings over a websocket.
func (h *SessionHandler) StreamWebSocket(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	readings, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	log := h.logger.With().Str("session_id", ctrl.ID()).Logger()

	// The read pump only handles control frames and notices the peer leaving.
	done := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(reading session.Reading) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(models.NewSession(ctrl.ID(), ctrl.Running(), reading))
	}

	var sent uint64
	if current, ok := ctrl.Current(); ok {
		if err := write(current); err != nil {
			return
		}
		sent = current.Seq
	}

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			log.Debug().Msg("websocket client disconnected")
			return

		case reading, ok := <-readings:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(wsWriteWait))
				return
			}
			if reading.Seq <= sent {
				continue
			}
			if err := write(reading); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				return
			}
			sent = reading.Seq

		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func (h *SessionHandler) controller(w http.ResponseWriter, r *http.Request) (*session.Controller, bool) {
	ctrl, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		response.NotFound(w, r, "session not found")
		return nil, false
	}
	return ctrl, true
}
