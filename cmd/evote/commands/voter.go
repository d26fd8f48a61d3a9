package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Lord-Y/evote"
	"github.com/urfave/cli/v3"
)

// errNotConfirmed is returned when the ballot number typed does not match
var errNotConfirmed = errors.New("confirmation does not match the ballot number, ballot not submitted")

// Candidates returns the candidates command
func Candidates(app *App) *cli.Command {
	var id int

	return &cli.Command{
		Name:  "candidates",
		Usage: "List the candidates or show one of them",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "id",
				Usage:       "Show a single candidate",
				Destination: &id,
			},
		},
		Action: app.action(func(ctx context.Context, _ *cli.Command) error {
			if !app.client.Auth().IsAuthenticated() {
				return evote.ErrNotAuthenticated
			}
			roster := app.client.Roster()
			if id > 0 {
				candidate, err := roster.Get(ctx, int64(id))
				if err != nil {
					return err
				}
				printCandidate(app, candidate)
				return nil
			}

			candidates, err := roster.Refresh(ctx)
			if err != nil {
				return err
			}
			printCandidates(app, candidates)
			return nil
		}),
	}
}

// Status returns the status command
func Status(app *App) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show whether your ballot is recorded",
		Action: app.action(func(ctx context.Context, _ *cli.Command) error {
			voting, err := app.client.Voting(ctx)
			if err != nil {
				return err
			}
			printVoting(app, voting)
			return nil
		}),
	}
}

// Vote returns the vote command
func Vote(app *App) *cli.Command {
	var candidateID int
	var yes bool

	return &cli.Command{
		Name:  "vote",
		Usage: "Cast your single ballot",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "candidate",
				Usage:       "Id of the chosen candidate",
				Required:    true,
				Destination: &candidateID,
			},
			&cli.BoolFlag{
				Name:        "yes",
				Usage:       "Skip the confirmation prompt",
				Destination: &yes,
			},
		},
		Action: app.action(func(ctx context.Context, _ *cli.Command) error {
			voting, err := app.client.Voting(ctx)
			if err != nil {
				return err
			}
			if voting.State() == evote.Voted {
				printVoting(app, voting)
				return nil
			}

			candidate, err := app.client.Roster().Get(ctx, int64(candidateID))
			if err != nil {
				return err
			}
			if !yes {
				if err := confirm(app, candidate); err != nil {
					return err
				}
			}

			receipt, err := voting.Submit(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if receipt.Outcome == evote.OutcomeAlreadyRecorded {
				app.printf("A ballot was already recorded for you\n")
			}
			printVoting(app, voting)
			return nil
		}),
	}
}

// confirm shows the ballot and asks the voter to type the ballot number
func confirm(app *App, candidate evote.Candidate) error {
	app.printf("You are about to vote for:\n")
	printCandidate(app, candidate)
	app.printf("This cannot be undone. Type the ballot number %d to confirm: ", candidate.BallotNumber)

	line, err := bufio.NewReader(app.In).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("fail to read confirmation: %w", err)
	}
	typed, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || typed != candidate.BallotNumber {
		return errNotConfirmed
	}
	return nil
}
