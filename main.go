// main.go
//
// Entry point of the quiz server: configuration, logging, database, catalog,
// player registry and HTTP server, in that order. A malformed pool or an
// invalid configuration stops the process at startup.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/namequiz/internal/catalog"
	"github.com/robalobadob/namequiz/internal/config"
	"github.com/robalobadob/namequiz/internal/httpserver"
	"github.com/robalobadob/namequiz/internal/player"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := openDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer db.Close()
	st := openStore(cfg.Store, db)

	cat, err := catalog.New(catalog.Options{
		PoolsDir:    cfg.PoolsDir,
		Remote:      cfg.RemotePools,
		Timeout:     cfg.ProbeTimeout,
		Concurrency: cfg.ProbeConcurrency,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load item pools")
	}

	players := player.NewRegistry(st, cat, cfg.StartingBalance)
	srv := httpserver.New(players, db, httpserver.Options{
		JWTSecret:      cfg.JWTSecret,
		JWTExpiresDays: cfg.JWTExpiresDays,
		CookieName:     cfg.CookieName,
		ClientOrigin:   cfg.ClientOrigin,
		Production:     cfg.Production,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go players.Sweep(ctx, cfg.PlayerIdleTTL)

	log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Msg("starting namequiz server")
	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		log.Error().Err(err).Msg("server exited")
		return
	}
	log.Info().Msg("server stopped")
}
