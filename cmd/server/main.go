// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/unomirror/server/internal/auth"
	"github.com/unomirror/server/internal/cache"
	"github.com/unomirror/server/internal/database"
	"github.com/unomirror/server/internal/handlers"
	"github.com/unomirror/server/internal/middleware"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// Postgres and Redis are optional collaborators: the engine runs fully
	// in memory without them, skipping persistence and the sync queue.
	if os.Getenv("PG_HOST") != "" {
		database.ConnectDB()
	} else {
		logger.Info("PG_HOST not set; running without game persistence")
	}
	if os.Getenv("REDIS_ADDR") != "" {
		if err := cache.ConnectRedis(); err != nil {
			log.Fatalf("redis connect failed: %v", err)
		}
	} else {
		logger.Info("REDIS_ADDR not set; running without the sync queue")
	}

	srv := handlers.NewServer(logger)
	logged := middleware.LogMiddleware(logger)

	mux := http.NewServeMux()
	mux.Handle("/game/create", logged(http.HandlerFunc(srv.CreateGameHandler)))
	mux.Handle("/game/state/", logged(http.HandlerFunc(srv.GameStateHandler)))
	mux.Handle("/game/input/", logged(http.HandlerFunc(srv.PhysicalInputHandler)))
	mux.Handle("/game/action/", logged(http.HandlerFunc(srv.ActionHandler)))
	mux.Handle("/game/hand/", logged(http.HandlerFunc(srv.PlayerHandHandler)))
	mux.Handle("/game/moves/", logged(http.HandlerFunc(srv.ValidMovesHandler)))
	mux.Handle("/game/export/", logged(http.HandlerFunc(srv.ExportGameHandler)))
	mux.Handle("/game/import", logged(http.HandlerFunc(srv.ImportGameHandler)))
	mux.Handle("/game/restore/", logged(http.HandlerFunc(srv.RestoreGameHandler)))

	// scanner device feed, game resolved from the device token
	mux.Handle("/scanner/ws", logged(http.HandlerFunc(
		handlers.ScannerWSHandler(logger, srv),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
