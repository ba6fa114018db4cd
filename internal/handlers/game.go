// internal/handlers/game.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unomirror/server/internal/auth"
	"github.com/unomirror/server/internal/database"
	"github.com/unomirror/server/internal/game"
	"github.com/unomirror/server/internal/models"
)

// createGameRequest is the payload for POST /game/create.
type createGameRequest struct {
	Players []struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name"`
	} `json:"players"`
	Settings map[string]interface{} `json:"settings,omitempty"`
	DeviceID string                 `json:"deviceId,omitempty"`
}

// CreateGameHandler builds a new mirrored game from a player roster supplied
// by the event dashboard and registers it in the store.
func (s *Server) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	players := make([]*models.Player, 0, len(req.Players))
	for _, p := range req.Players {
		id := uuid.New()
		if p.ID != "" {
			parsed, err := uuid.Parse(p.ID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid player id: "+p.ID)
				return
			}
			id = parsed
		}
		players = append(players, &models.Player{ID: id, Name: p.Name})
	}

	settings, err := models.ParseSettings(req.Settings, models.GameSettings{})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := game.NewGame(players)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	g.Settings = settings
	if req.DeviceID != "" {
		g.DeviceID = req.DeviceID
	}
	s.Games.AddGame(g)

	playerIDs := make([]uuid.UUID, len(players))
	for i, p := range players {
		playerIDs[i] = p.ID
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.UpsertGame(ctx, g.ID, g.DeviceID, playerIDs); err != nil && !errors.Is(err, database.ErrNotConnected) {
			s.Logger.Warnf("failed to persist game %s: %v", g.ID, err)
		}
	}()

	// The table's scanner authenticates its WebSocket feed with this token.
	deviceToken, err := auth.CreateDeviceToken(g.DeviceID)
	if err != nil {
		s.Logger.Warnf("failed to mint device token for game %s: %v", g.ID, err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"game_id":      g.ID,
		"device_id":    g.DeviceID,
		"device_token": deviceToken,
	})
}

// gameFromPath resolves /prefix/{game_id} routes against the store.
func (s *Server) gameFromPath(w http.ResponseWriter, r *http.Request, prefix string) (*game.Game, bool) {
	idStr := strings.TrimPrefix(r.URL.Path, prefix)
	idStr = strings.TrimSuffix(idStr, "/")
	gameID, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return nil, false
	}
	g, ok := s.Games.GetGame(gameID)
	if !ok {
		writeError(w, http.StatusNotFound, "game not found")
		return nil, false
	}
	return g, true
}

// GameStateHandler serves a full copied snapshot of the game.
func (s *Server) GameStateHandler(w http.ResponseWriter, r *http.Request) {
	g, ok := s.gameFromPath(w, r, "/game/state/")
	if !ok {
		return
	}
	g.Mu.Lock()
	snap := g.Snapshot()
	g.Mu.Unlock()
	writeJSON(w, http.StatusOK, snap)
}

// PhysicalInputHandler reconciles one scanned or manually-entered card. The
// reconciler never fails hard: rejected inputs come back as 200s with
// success=false and a display message.
func (s *Server) PhysicalInputHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}
	g, ok := s.gameFromPath(w, r, "/game/input/")
	if !ok {
		return
	}
	var input models.PhysicalCardInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if input.Timestamp.IsZero() {
		input.Timestamp = time.Now()
	}

	g.Mu.Lock()
	result := g.ProcessPhysicalInput(input)
	finished := g.Status == game.StatusFinished
	winner := g.Winner
	g.Mu.Unlock()

	if finished {
		s.persistFinish(g.ID, winner)
	}
	writeJSON(w, http.StatusOK, result)
}

// ActionHandler applies an action-level entry point (draw, choose color,
// call/challenge Uno, or a direct play) without reconciler validation.
// Malformed actions are hard failures and come back as 400s.
func (s *Server) ActionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}
	g, ok := s.gameFromPath(w, r, "/game/action/")
	if !ok {
		return
	}
	var action models.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if action.Timestamp.IsZero() {
		action.Timestamp = time.Now()
	}

	g.Mu.Lock()
	err := g.ApplyAction(action)
	finished := g.Status == game.StatusFinished
	winner := g.Winner
	snap := g.Snapshot()
	g.Mu.Unlock()

	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if finished {
		s.persistFinish(g.ID, winner)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"gameState": snap,
	})
}

// PlayerHandHandler serves a copy of one player's hand.
func (s *Server) PlayerHandHandler(w http.ResponseWriter, r *http.Request) {
	g, ok := s.gameFromPath(w, r, "/game/hand/")
	if !ok {
		return
	}
	playerID, err := uuid.Parse(r.URL.Query().Get("player"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing player query parameter")
		return
	}
	g.Mu.Lock()
	hand, err := g.PlayerHand(playerID)
	g.Mu.Unlock()
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"hand": hand})
}

// ValidMovesHandler serves the currently playable cards for a player, for
// dashboard hinting.
func (s *Server) ValidMovesHandler(w http.ResponseWriter, r *http.Request) {
	g, ok := s.gameFromPath(w, r, "/game/moves/")
	if !ok {
		return
	}
	playerID, err := uuid.Parse(r.URL.Query().Get("player"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing player query parameter")
		return
	}
	g.Mu.Lock()
	moves := g.ValidMoves(playerID)
	g.Mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"validMoves": moves})
}

// ExportGameHandler serves the full export blob and saves it as the latest
// hand-off snapshot when a database is connected.
func (s *Server) ExportGameHandler(w http.ResponseWriter, r *http.Request) {
	g, ok := s.gameFromPath(w, r, "/game/export/")
	if !ok {
		return
	}
	g.Mu.Lock()
	blob, err := g.ExportJSON()
	g.Mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.SaveExportedState(ctx, g.ID, blob); err != nil && !errors.Is(err, database.ErrNotConnected) {
			s.Logger.Warnf("failed to save exported state for game %s: %v", g.ID, err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.Write(blob)
}

// ImportGameHandler restores a game from an export blob (device hand-off)
// and registers it in the store, replacing any live copy with the same id.
func (s *Server) ImportGameHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	g, err := game.ImportJSON(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.Games.AddGame(g)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"game_id": g.ID,
		"status":  g.Status,
	})
}

// RestoreGameHandler reloads the last persisted export blob for a game and
// registers it in the store. Used when a venue device restarts and the live
// copy is gone.
func (s *Server) RestoreGameHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/game/restore/")
	idStr = strings.TrimSuffix(idStr, "/")
	gameID, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	blob, err := database.LoadExportedState(ctx, gameID)
	if err != nil {
		if errors.Is(err, database.ErrNotConnected) {
			writeError(w, http.StatusServiceUnavailable, "no persistence backend connected")
			return
		}
		writeError(w, http.StatusNotFound, "no saved state for game")
		return
	}

	g, err := game.ImportJSON(blob)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.Games.AddGame(g)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"game_id": g.ID,
		"status":  g.Status,
	})
}

// persistFinish records the terminal result asynchronously.
func (s *Server) persistFinish(gameID uuid.UUID, winner uuid.UUID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.MarkGameFinished(ctx, gameID, winner); err != nil && !errors.Is(err, database.ErrNotConnected) {
			s.Logger.Warnf("failed to mark game %s finished: %v", gameID, err)
		}
	}()
}
