package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Lord-Y/evote"
	"github.com/urfave/cli/v3"
)

// adminAction only runs fn when an administrator session is held
func (a *App) adminAction(fn func(ctx context.Context, gateway *evote.Gateway) error) cli.ActionFunc {
	return a.action(func(ctx context.Context, _ *cli.Command) error {
		if err := a.client.Auth().RequireAdmin(); err != nil {
			return err
		}
		return fn(ctx, a.client.Gateway())
	})
}

// Admin returns the administration commands
func Admin(app *App) *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Manage the election, administrators only",
		Commands: []*cli.Command{
			adminDashboard(app),
			adminResults(app),
			adminExport(app),
			adminStudents(app),
			adminCandidates(app),
		},
	}
}

func adminDashboard(app *App) *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "Show the election statistics",
		Action: app.adminAction(func(ctx context.Context, gateway *evote.Gateway) error {
			stats, err := gateway.DashboardStatistics(ctx)
			if err != nil {
				return err
			}
			printDashboard(app, stats)
			return nil
		}),
	}
}

func adminResults(app *App) *cli.Command {
	var timeline bool

	return &cli.Command{
		Name:  "results",
		Usage: "Show the tally",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "timeline",
				Usage:       "Show the number of votes per hour instead",
				Destination: &timeline,
			},
		},
		Action: app.adminAction(func(ctx context.Context, gateway *evote.Gateway) error {
			if timeline {
				points, err := gateway.ResultsTimeline(ctx)
				if err != nil {
					return err
				}
				printTimeline(app, points)
				return nil
			}

			results, err := gateway.Results(ctx)
			if err != nil {
				return err
			}
			printResults(app, results)
			return nil
		}),
	}
}

func adminExport(app *App) *cli.Command {
	var format, output string

	return &cli.Command{
		Name:  "export",
		Usage: "Download the results file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "csv or xlsx",
				Value:       string(evote.ExportCSV),
				Destination: &format,
			},
			&cli.StringFlag{
				Name:        "output",
				Usage:       "Directory or file to write, default to the name given by the service in the current directory",
				Destination: &output,
			},
		},
		Action: app.adminAction(func(ctx context.Context, gateway *evote.Gateway) error {
			export, err := gateway.ExportResults(ctx, evote.ExportFormat(format))
			if err != nil {
				return err
			}

			path := export.Filename
			if output != "" {
				path = output
				if info, err := os.Stat(output); err == nil && info.IsDir() {
					path = filepath.Join(output, filepath.Base(export.Filename))
				}
			}
			if err := os.WriteFile(path, export.Data, 0o600); err != nil {
				return fmt.Errorf("fail to write export: %w", err)
			}
			app.printf("Results written to %s (%d bytes)\n", path, len(export.Data))
			return nil
		}),
	}
}

func adminStudents(app *App) *cli.Command {
	var query evote.StudentQuery
	var status string
	var id int
	var file string

	return &cli.Command{
		Name:  "students",
		Usage: "Manage the voter roll",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List a page of the voter roll",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "search",
						Usage:       "Search by student number or name",
						Destination: &query.Search,
					},
					&cli.StringFlag{
						Name:        "status",
						Usage:       "all, voted or not_voted",
						Value:       string(evote.StudentsAll),
						Destination: &status,
					},
					&cli.IntFlag{
						Name:        "page",
						Value:       1,
						Destination: &query.Page,
					},
					&cli.IntFlag{
						Name:        "per-page",
						Value:       15,
						Destination: &query.PerPage,
					},
				},
				Action: app.adminAction(func(ctx context.Context, gateway *evote.Gateway) error {
					query.Status = evote.StudentFilter(status)
					page, err := gateway.ListStudents(ctx, query)
					if err != nil {
						return err
					}
					printStudents(app, page)
					return nil
				}),
			},
			{
				Name:  "statistics",
				Usage: "Summarize the voter roll",
				Action: app.adminAction(func(ctx context.Context, gateway *evote.Gateway) error {
					stats, err := gateway.StudentStatistics(ctx)
					if err != nil {
						return err
					}
					app.printf("Total: %d\nVoted: %d\nNot voted: %d\n", stats.Total, stats.Voted, stats.NotVoted)
					return nil
				}),
			},
			{
				Name:  "regenerate-token",
				Usage: "Issue a new voting token for a student",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "id",
						Required:    true,
						Destination: &id,
					},
				},
				Action: app.adminAction(func(ctx context.Context, gateway *evote.Gateway) error {
					token, err := gateway.RegenerateToken(ctx, int64(id))
					if err != nil {
						return err
					}
					app.printf("New voting token: %s\n", token)
					return nil
				}),
			},
			{
				Name:  "import",
				Usage: "Import a voter roll file (csv or xlsx)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "file",
						Required:    true,
						Destination: &file,
					},
				},
				Action: app.adminAction(func(ctx context.Context, gateway *evote.Gateway) error {
					f, err := os.Open(file)
					if err != nil {
						return fmt.Errorf("fail to open import file: %w", err)
					}
					defer func() {
						_ = f.Close()
					}()

					result, err := gateway.ImportStudents(ctx, filepath.Base(file), f)
					if err != nil {
						return err
					}
					app.printf("Imported: %d\nFailed: %d\n", result.Imported, result.Failed)
					return nil
				}),
			},
		},
	}
}

// openUpload opens an optional photo
func openUpload(path string) (*evote.Upload, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("fail to open photo: %w", err)
	}
	return &evote.Upload{Filename: filepath.Base(path), Content: f}, func() { _ = f.Close() }, nil
}

func adminCandidates(app *App) *cli.Command {
	var form evote.CandidateForm
	var leaderPhoto, deputyPhoto string
	var id int

	return &cli.Command{
		Name:  "candidates",
		Usage: "Manage the candidates",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the candidates with their vote count",
				Action: app.adminAction(func(ctx context.Context, gateway *evote.Gateway) error {
					candidates, err := gateway.ListCandidatesWithVotes(ctx)
					if err != nil {
						return err
					}
					printCandidates(app, candidates)
					return nil
				}),
			},
			{
				Name:  "create",
				Usage: "Create a candidate",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "ballot-number",
						Required:    true,
						Destination: &form.BallotNumber,
					},
					&cli.StringFlag{
						Name:        "leader",
						Required:    true,
						Destination: &form.LeaderName,
					},
					&cli.StringFlag{
						Name:        "deputy",
						Required:    true,
						Destination: &form.DeputyName,
					},
					&cli.StringFlag{
						Name:        "vision",
						Required:    true,
						Destination: &form.Vision,
					},
					&cli.StringFlag{
						Name:        "mission",
						Usage:       "Mission points, one per line",
						Required:    true,
						Destination: &form.Mission,
					},
					&cli.StringFlag{
						Name:        "work-program",
						Destination: &form.WorkProgram,
					},
					&cli.StringFlag{
						Name:        "leader-photo",
						Destination: &leaderPhoto,
					},
					&cli.StringFlag{
						Name:        "deputy-photo",
						Destination: &deputyPhoto,
					},
				},
				Action: app.adminAction(func(ctx context.Context, gateway *evote.Gateway) error {
					leader, closeLeader, err := openUpload(leaderPhoto)
					if err != nil {
						return err
					}
					defer closeLeader()
					deputy, closeDeputy, err := openUpload(deputyPhoto)
					if err != nil {
						return err
					}
					defer closeDeputy()
					form.LeaderPhoto = leader
					form.DeputyPhoto = deputy

					candidate, err := gateway.CreateCandidate(ctx, form)
					if err != nil {
						return err
					}
					app.printf("Candidate created with id %d\n", candidate.ID)
					return nil
				}),
			},
			{
				Name:  "delete",
				Usage: "Delete a candidate",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "id",
						Required:    true,
						Destination: &id,
					},
				},
				Action: app.adminAction(func(ctx context.Context, gateway *evote.Gateway) error {
					if err := gateway.DeleteCandidate(ctx, int64(id)); err != nil {
						return err
					}
					app.printf("Candidate %d deleted\n", id)
					return nil
				}),
			},
		},
	}
}
