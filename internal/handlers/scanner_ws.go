// internal/handlers/scanner_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/unomirror/server/internal/auth"
	"github.com/unomirror/server/internal/game"
	"github.com/unomirror/server/internal/middleware"
	"github.com/unomirror/server/internal/models"
)

// ScannerWSHandler upgrades a table scanner device to a WebSocket feed on
// /scanner/ws?token=... . The game is resolved from the token's device id,
// never from a client-supplied id. The device streams PhysicalCardInput
// messages and receives one InputResult per message. Inputs from multiple
// devices are serialized on the game mutex; the engine itself stays
// single-writer.
func ScannerWSHandler(logger *logrus.Logger, s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceID, err := auth.AuthenticateDeviceToken(r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, "invalid device token", http.StatusForbidden)
			return
		}
		g := s.Games.GetGameByDeviceID(deviceID)
		if g == nil {
			http.Error(w, "no live game registered for this device", http.StatusNotFound)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"scanner"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for device %s: %v", deviceID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "internal error during handler exit")

		if c.Subprotocol() != "scanner" {
			c.Close(BadSubprotocolError, "device must speak the scanner subprotocol")
			return
		}
		middleware.LogDeviceConnect(logger, deviceID, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		readErr := readScannerInputs(ctx, c, g, s, deviceID, logger)
		middleware.LogDeviceDisconnect(logger, deviceID, r.RemoteAddr, r.URL.Path, readErr)
		c.Close(websocket.StatusNormalClosure, "scanner session ended")
	}
}

// readScannerInputs is the per-device read loop. Each text frame is one
// PhysicalCardInput; responses carry the reconciler's typed result.
func readScannerInputs(ctx context.Context, c *websocket.Conn, g *game.Game, s *Server, deviceID string, logger *logrus.Logger) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			return err
		}
		if msgType != websocket.MessageText {
			logger.Warnf("Device %s sent non-text frame to game %s; ignoring.", deviceID, g.ID)
			continue
		}

		var input models.PhysicalCardInput
		if err := json.Unmarshal(data, &input); err != nil {
			writeScannerResult(ctx, c, logger, game.InputResult{Message: "invalid input payload"})
			continue
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
		writeScannerResult(ctx, c, logger, result)
	}
}

func writeScannerResult(ctx context.Context, c *websocket.Conn, logger *logrus.Logger, result game.InputResult) {
	data, err := json.Marshal(result)
	if err != nil {
		logger.Errorf("failed to marshal scanner result: %v", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Write(writeCtx, websocket.MessageText, data); err != nil {
		logger.Warnf("failed to write scanner result: %v", err)
	}
}
