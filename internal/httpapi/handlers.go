package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/Shuru63/skylark-lab-assignment/internal/logging"
	"github.com/Shuru63/skylark-lab-assignment/internal/store"
)

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// handleLive upgrades to the persistent channel. The connection starts
// unauthenticated and proves its identity in-band.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Warn().Err(err).Str("request_id", r.Header.Get(requestIDHeader)).Msg("websocket upgrade failed")
		return
	}
	c := s.live.Accept(conn)
	logging.Debug().Uint64("conn_id", c.ID()).Str("remote", r.RemoteAddr).Msg("websocket connected")
}

// storeError maps storage failures onto HTTP responses. Records owned by
// another user are reported exactly like missing ones.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", what+" not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", what+" already exists")
	default:
		logging.Error().Err(err).Str("request_id", r.Header.Get(requestIDHeader)).Msgf("%s storage failure", what)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
