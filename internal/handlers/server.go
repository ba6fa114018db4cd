// internal/handlers/server.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/unomirror/server/internal/game"
)

// Server owns the live game store shared by the HTTP and WebSocket surfaces.
type Server struct {
	Games  *game.GameStore
	Logger *logrus.Logger
}

func NewServer(logger *logrus.Logger) *Server {
	return &Server{
		Games:  game.NewGameStore(),
		Logger: logger,
	}
}

// writeJSON serializes v with the given HTTP status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError responds with a JSON error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
