package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/domtes/chemmazz/internal/auth"
	"github.com/domtes/chemmazz/internal/cache"
	"github.com/domtes/chemmazz/internal/database"
	"github.com/domtes/chemmazz/internal/handlers"
	"github.com/domtes/chemmazz/internal/middleware"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := auth.Init(); err != nil {
		log.Fatalf("auth init failed: %v", err)
	}

	// Postgres and Redis are both optional: without them the server runs
	// guest-only and skips the action journal.
	if os.Getenv("PG_HOST") != "" {
		if err := database.ConnectDB(); err != nil {
			logger.Warnf("running without persistence: %v", err)
		}
	}
	if os.Getenv("REDIS_ADDR") != "" {
		if err := cache.ConnectRedis(); err != nil {
			logger.Warnf("running without action journal: %v", err)
		}
	}

	srv := handlers.NewServer(logger, handlers.NewUserStore())

	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)

	mux.Handle("/api/login", logged(handlers.LoginHandler(srv)))
	mux.Handle("/api/logout", logged(handlers.LogoutHandler(srv)))
	mux.Handle("/api/session", logged(handlers.SessionHandler(srv)))

	mux.Handle("/room/create", logged(handlers.CreateRoomHandler(srv)))
	mux.Handle("/room/list", logged(handlers.ListRoomsHandler(srv)))
	mux.Handle("/room/ws/", logged(handlers.RoomWSHandler(srv)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
