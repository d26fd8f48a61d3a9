package commands

import (
	"github.com/urfave/cli/v3"
)

// Root returns the evote command tree
func Root(app *App) *cli.Command {
	return &cli.Command{
		Name:                  "evote",
		Usage:                 "Student election client",
		Description:           "Log in as a voter to cast your single ballot, or as an administrator to manage the election",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "api-url",
				Usage:       "Address of the e-voting service",
				Value:       "http://localhost:8000/api/v1",
				Sources:     cli.EnvVars("EVOTE_API_URL"),
				Destination: &app.APIURL,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "Directory holding the local session",
				Value:       defaultDataDir(),
				Sources:     cli.EnvVars("EVOTE_DATA_DIR"),
				Destination: &app.DataDir,
			},
		},
		Before: app.open,
		After:  app.close,
		Commands: []*cli.Command{
			Login(app),
			Logout(app),
			Whoami(app),
			Candidates(app),
			Status(app),
			Vote(app),
			Admin(app),
		},
	}
}
