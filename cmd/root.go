package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/coursegen/internal/logging"
	"github.com/abhisek/coursegen/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "coursegen",
	Short: "Generate and study structured courses in the terminal",
	Long: "coursegen turns a topic into a course of modules and lessons with quizzes,\n" +
		"flashcards, practice checklists and resources, and tracks your progress locally.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is normal; a malformed one is not.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to the local state file (overrides COURSEGEN_DB env var)")
	rootCmd.PersistentFlags().String("store", store.EngineSQLite, "Local state engine: sqlite, json or memory")
	rootCmd.PersistentFlags().String("log-mode", logging.ModeDev, "Log format: dev or prod")
	rootCmd.PersistentFlags().String("log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lessonCmd)
	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then COURSEGEN_DB env var, then the default XDG path. The JSON engine
// swaps the default extension.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	p, err := store.DefaultDBPath()
	if err != nil {
		return "", err
	}
	if engine, _ := cmd.Flags().GetString("store"); strings.EqualFold(engine, store.EngineJSON) {
		p = strings.TrimSuffix(p, filepath.Ext(p)) + ".json"
	}
	return p, nil
}

// openBackend opens the local state engine selected by --store.
func openBackend(cmd *cobra.Command) (store.Backend, error) {
	engine, _ := cmd.Flags().GetString("store")
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	b, err := store.OpenEngine(engine, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return b, nil
}

// newLogger builds the logger from the --log-* flags. fallbackPath is used
// when --log-file is unset; an empty fallback logs to stderr.
func newLogger(cmd *cobra.Command, fallbackPath string) (*zap.Logger, error) {
	mode, _ := cmd.Flags().GetString("log-mode")
	level, _ := cmd.Flags().GetString("log-level")
	path, _ := cmd.Flags().GetString("log-file")
	if path == "" {
		path = fallbackPath
	}
	return logging.NewWithConfig(logging.Config{Mode: mode, Level: level, Path: path})
}
