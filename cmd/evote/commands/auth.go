package commands

import (
	"context"

	"github.com/Lord-Y/evote"
	"github.com/urfave/cli/v3"
)

// Login returns the login commands
func Login(app *App) *cli.Command {
	var voter evote.VoterCredentials
	var admin evote.AdminCredentials

	return &cli.Command{
		Name:  "login",
		Usage: "Open a voter or administrator session",
		Commands: []*cli.Command{
			{
				Name:  "voter",
				Usage: "Login with your student number and the token you received",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "nim",
						Usage:       "Student number",
						Required:    true,
						Destination: &voter.ExternalID,
					},
					&cli.StringFlag{
						Name:        "token",
						Usage:       "Single use voting token",
						Required:    true,
						Destination: &voter.Token,
					},
				},
				Action: app.action(func(ctx context.Context, _ *cli.Command) error {
					session, err := app.client.Auth().LoginVoter(ctx, voter.ExternalID, voter.Token)
					if err != nil {
						return err
					}
					app.printf("Logged in as %s\n", session.Principal.Name())
					return nil
				}),
			},
			{
				Name:  "admin",
				Usage: "Login as an administrator",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "username",
						Required:    true,
						Destination: &admin.Username,
					},
					&cli.StringFlag{
						Name:        "password",
						Required:    true,
						Sources:     cli.EnvVars("EVOTE_ADMIN_PASSWORD"),
						Destination: &admin.Password,
					},
				},
				Action: app.action(func(ctx context.Context, _ *cli.Command) error {
					session, err := app.client.Auth().LoginAdmin(ctx, admin.Username, admin.Password)
					if err != nil {
						return err
					}
					app.printf("Logged in as administrator %s\n", session.Principal.Name())
					return nil
				}),
			},
		},
	}
}

// Logout returns the logout command
func Logout(app *App) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Close the current session",
		Action: func(ctx context.Context, _ *cli.Command) error {
			app.client.Auth().Logout(ctx)
			app.printf("Logged out\n")
			return nil
		},
	}
}

// Whoami returns the whoami command
func Whoami(app *App) *cli.Command {
	var remote bool

	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the current session",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "remote",
				Usage:       "Reload the voter record from the remote service",
				Destination: &remote,
			},
		},
		Action: app.action(func(ctx context.Context, _ *cli.Command) error {
			auth := app.client.Auth()
			session, ok := auth.Session()
			if !ok {
				app.printf("Not logged in\n")
				return nil
			}

			if voter, isVoter := session.Voter(); isVoter {
				if remote {
					refreshed, err := auth.RefreshPrincipal(ctx)
					if err != nil {
						return err
					}
					voter = refreshed
				}
				printVoter(app, voter)
				return nil
			}

			administrator, _ := session.Administrator()
			app.printf("Administrator %s (%s)\n", administrator.DisplayName, administrator.Username)
			if administrator.Role != "" {
				app.printf("Role: %s\n", administrator.Role)
			}
			return nil
		}),
	}
}
