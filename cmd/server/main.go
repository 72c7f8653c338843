// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/kaspell/wordwire/internal/auth"
	"github.com/kaspell/wordwire/internal/cache"
	"github.com/kaspell/wordwire/internal/database"
	"github.com/kaspell/wordwire/internal/handlers"
	"github.com/kaspell/wordwire/internal/lobby"
	"github.com/kaspell/wordwire/internal/middleware"
)

const defaultLobbyTTL = 15 * time.Minute

func lobbyTTL() time.Duration {
	raw := os.Getenv("LOBBY_TTL")
	if raw == "" {
		return defaultLobbyTTL
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("invalid LOBBY_TTL %q: %v", raw, err)
	}
	return d
}

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := auth.Init(); err != nil {
		log.Fatalf("auth init failed: %v", err)
	}
	if err := database.ConnectDB(logger); err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	if err := cache.ConnectRedis(); err != nil {
		log.Fatalf("redis connect failed: %v", err)
	}

	registry := lobby.NewRegistry(lobbyTTL(), logger)
	srv := handlers.NewLobbyServer(registry, logger)
	logged := middleware.LogMiddleware(logger)

	mux := http.NewServeMux()
	mux.Handle("/lobby", logged(srv.CreateLobbyHandler()))
	mux.Handle("/lobby/", logged(srv.LobbyHandler()))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
