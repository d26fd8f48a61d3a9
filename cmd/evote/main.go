package main

import (
	"context"
	"os"

	"github.com/Lord-Y/evote/cmd/evote/commands"
	"github.com/Lord-Y/evote/logger"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	app := &commands.App{
		Out:    os.Stdout,
		In:     os.Stdin,
		Logger: logger.NewLogger(),
	}
	if err := commands.Root(app).Run(context.Background(), os.Args); err != nil {
		app.Logger.Fatal().Err(err).Msg("Error occured while executing the program")
	}
}
