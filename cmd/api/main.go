package main

import (
	"context"
	"os"
	"time"

	"trustline-backend/internal/app"
	"trustline-backend/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	deps, err := app.BuildDeps(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize backing services")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := deps.Rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis not reachable at startup")
	}

	srv := app.CreateApp(cfg, deps)
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting api server")
	if err := srv.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
