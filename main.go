package main

import (
	"context"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"darts/auth"
	"darts/config"
	"darts/game"
	httpserver "darts/http"
	"darts/store"
	"darts/ws"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	log.Info().Str("port", cfg.ServerPort).Str("db", cfg.DBPath).Msg("starting darts server")

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	sessionManager := auth.NewSessionManager(cfg.SessionSecret)
	authService := auth.NewService(db, sessionManager)

	queue, err := game.NewQueue(db, log.With().Str("component", "queue").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize queue")
	}
	engine := game.NewEngine(db, queue, log.With().Str("component", "engine").Logger())

	registry := ws.NewRegistry()
	wsManager := ws.NewManager(engine, registry, log.With().Str("component", "ws").Logger())

	server := httpserver.NewServer(authService, engine, wsManager, db)
	srv := server.GetHTTPServer(cfg.ServerPort)

	go func() {
		log.Info().Msgf("server listening on http://localhost%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
