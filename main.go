package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"grestat/app"
	"grestat/internal/config"
	"grestat/internal/errors"
)

func main() {
	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") != "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Str("code", errors.GetCode(err)).Msg("invalid configuration")
	}

	result, err := app.NewPipeline(cfg).Run()
	if err != nil {
		log.Fatal().Err(err).Str("code", errors.GetCode(err)).Msg("pipeline failed")
	}

	log.Info().
		Str("run_id", string(result.Manifest.RunID)).
		Str("report", cfg.Output.Dir).
		Msg("report ready")
}
