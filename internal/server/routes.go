package server

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/swaggest/swgui/v5emb"

	"github.com/kelesetlogelo-tech/if-i-were-game/internal/session"
)

func addRoutes(r chi.Router, logger *slog.Logger, sessions *session.Manager, db *sql.DB, rdb *redis.Client, spaDir string) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("If I Were... API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db, rdb))

	r.Get("/api/questions", handleQuestions())
	r.Post("/api/rooms", handleCreateRoom(sessions))
	r.Post("/api/rooms/{code}/join", handleJoinRoom(sessions))

	// Session routes; token resolved by sessionMiddleware.
	r.Route("/api/room", func(r chi.Router) {
		r.Use(sessionMiddleware(sessions))
		r.Get("/state", handleState())
		r.Post("/start", handleStart())
		r.Post("/answers", handleAnswers())
		r.Post("/guesses", handleGuesses())
		r.Post("/advance", handleAdvance())
		r.Post("/again", handlePlayAgain())
		r.Post("/finish", handleFinish())
		r.Post("/leave", handleLeave())
		r.Get("/events", handleEvents(logger))
		r.Get("/ws", handleWS(logger))
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
