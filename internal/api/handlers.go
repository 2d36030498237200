package api

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
)

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (s *DrawboardApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("json encode")
	}
}

func (s *DrawboardApp) root(w http.ResponseWriter, r *http.Request) {
	s.writeJson(w, http.StatusOK, StatusResponse{Status: "ok", Message: "drawboard api"})
}

// notFound is the fallback for paths no other pattern claims, so unknown
// routes get a JSON error body like everything else.
func (s *DrawboardApp) notFound(w http.ResponseWriter, r *http.Request) {
	errResp := NewNotFoundError()
	s.writeJson(w, errResp.StatusCode, errResp)
}

func (s *DrawboardApp) health(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.WithError(err).Error("health check: repository unreachable")
		s.writeJson(w, http.StatusInternalServerError, StatusResponse{Status: "unhealthy", Message: "repository unreachable"})
		return
	}

	s.writeJson(w, http.StatusOK, StatusResponse{Status: "healthy"})
}

func (s *DrawboardApp) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
}

// serveWsCreate upgrades the connection and creates a fresh board with the
// caller as admin. Blocks for the connection's lifetime.
func (s *DrawboardApp) serveWsCreate(w http.ResponseWriter, r *http.Request) {
	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Error("error upgrading connection")
		return
	}

	s.bs.CreateSession(conn)
}

// serveWsJoin upgrades the connection and attaches it to an existing board.
// An optional token query parameter resumes a previous identity on that
// board. Blocks for the connection's lifetime.
func (s *DrawboardApp) serveWsJoin(w http.ResponseWriter, r *http.Request) {
	boardId := r.PathValue("board_id")
	if boardId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	token := r.URL.Query().Get("token")

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Error("error upgrading connection")
		return
	}

	s.bs.JoinSession(conn, boardId, token)
}
