package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gokatarajesh/quiz-studio/internal/cli"
)

func main() {
	_ = godotenv.Load("configs/.env")

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := cli.Execute(logger); err != nil {
		log.Logger = logger
		log.Fatal().Err(err).Msg("quizctl failed")
	}
}
