package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/coursegen/internal/app"
	"github.com/abhisek/coursegen/internal/generate"
	"github.com/abhisek/coursegen/internal/progress"
	"github.com/abhisek/coursegen/internal/selection"
	"github.com/abhisek/coursegen/internal/store"
	"github.com/abhisek/coursegen/internal/workspace"
)

// services are the local-state collaborators shared by the viewer and the
// scriptable commands.
type services struct {
	backend    store.Backend
	logger     *zap.Logger
	workspace  *workspace.Workspace
	tracker    *progress.Tracker
	selections *selection.Store
}

// openServices opens the store and builds the services on it. logPath is
// the fallback log destination (empty for stderr).
func openServices(cmd *cobra.Command, logPath string) (*services, error) {
	logger, err := newLogger(cmd, logPath)
	if err != nil {
		return nil, err
	}
	b, err := openBackend(cmd)
	if err != nil {
		return nil, err
	}
	return &services{
		backend:    b,
		logger:     logger,
		workspace:  workspace.New(b, logger),
		tracker:    progress.NewTracker(b, logger),
		selections: selection.NewStore(b, logger),
	}, nil
}

func (s *services) Close() error {
	_ = s.logger.Sync()
	return s.backend.Close()
}

// newPipeline builds the generation pipeline from COURSEGEN_ENDPOINT and
// COURSEGEN_TIMEOUT.
func newPipeline(logger *zap.Logger) *generate.Pipeline {
	cfg := generate.ConfigFromEnv()
	return generate.New(generate.NewHTTPFetcher(cfg.Endpoint, cfg.Timeout), logger)
}

// runApp opens the store, builds dependencies, and launches the TUI. Logs
// go to a file next to the database so they do not draw over the screen.
func runApp(cmd *cobra.Command) error {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	svc, err := openServices(cmd, filepath.Join(filepath.Dir(dbPath), "coursegen.log"))
	if err != nil {
		return err
	}
	defer svc.Close()

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	return app.Run(cmd.Context(), app.Deps{
		Generator:  newPipeline(svc.logger),
		Workspace:  svc.workspace,
		Tracker:    svc.tracker,
		Selections: svc.selections,
		Logger:     svc.logger,
		ExportDir:  wd,
	})
}
