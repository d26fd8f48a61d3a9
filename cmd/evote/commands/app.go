package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Lord-Y/evote"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

// App holds what every command needs
type App struct {
	// APIURL is the address of the remote service
	APIURL string

	// DataDir holds the persisted session
	DataDir string

	// Out receives command results
	Out io.Writer

	// In is read by confirmation prompts
	In io.Reader

	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger

	// HTTPClient is used to call the remote service
	HTTPClient *http.Client

	client *evote.Client
}

// defaultDataDir returns ~/.evote or a relative .evote when there is no home
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".evote"
	}
	return filepath.Join(home, ".evote")
}

// open builds the evote client before any command runs
func (a *App) open(ctx context.Context, _ *cli.Command) (context.Context, error) {
	client, err := evote.NewClient(evote.Options{
		Logger:     a.Logger,
		BaseURL:    a.APIURL,
		HTTPClient: a.HTTPClient,
		DataDir:    a.DataDir,
	})
	if err != nil {
		return ctx, fmt.Errorf("fail to open session store in %s: %w", a.DataDir, err)
	}
	a.client = client
	return ctx, nil
}

// close releases the session store after the command
func (a *App) close(context.Context, *cli.Command) error {
	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	return err
}

// action wraps a command action so that an Unauthorized answer
// always clears the local session
func (a *App) action(fn func(ctx context.Context, cmd *cli.Command) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		err := fn(ctx, cmd)
		if a.client != nil && a.client.DropSessionOnUnauthorized(err) {
			return fmt.Errorf("%w, local session cleared, please login again", err)
		}
		return err
	}
}

// printf writes to the command output
func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.Out, format, args...)
}
