// Package cli wires the commands for the coursewatch binary.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coursewatch/coursewatch/internal/aggregate"
	"github.com/coursewatch/coursewatch/internal/fetch"
	"github.com/coursewatch/coursewatch/internal/ingest"
	"github.com/coursewatch/coursewatch/internal/logger"
	"github.com/coursewatch/coursewatch/internal/notifier"
	"github.com/coursewatch/coursewatch/internal/store"
)

var (
	flagDBPath      string
	flagLogMode     string
	flagConcurrency int
)

// NewRootCmd creates the root command and its subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coursewatch",
		Short: "Track course sections, schedules and catalogue data across terms",
		Long: `coursewatch ingests the registration system's per-term section dumps,
catalogues and attribute tables into a local database and reconciles the
sources into one current snapshot per course.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flagDBPath, "db", "coursewatch.db", "Path to the sqlite database")
	cmd.PersistentFlags().StringVar(&flagLogMode, "log-mode", "dev", "Logging mode: dev or prod")
	cmd.PersistentFlags().IntVar(&flagConcurrency, "concurrency", 4, "Parallel terms/courses to process")

	cmd.AddCommand(
		newBuildCmd(),
		newUpdateCmd(),
		newRefreshCmd(),
		newAggregateCmd(),
		newImportPagesCmd(),
		newImportTransfersCmd(),
	)
	return cmd
}

type app struct {
	log      *logger.Logger
	store    *store.Store
	ingestor *ingest.Ingestor
	engine   *aggregate.Engine
}

func newApp() (*app, error) {
	log, err := logger.New(flagLogMode)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	st, err := store.Open(flagDBPath, log)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	ing := ingest.New(st, fetch.New(log), notifier.NewDryRun(log), log)
	ing.Concurrency = flagConcurrency

	engine := aggregate.NewEngine(st, st, log)
	engine.Concurrency = flagConcurrency

	return &app{log: log, store: st, ingestor: ing, engine: engine}, nil
}

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the database from scratch, walking every historical term",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()

			failed := a.ingestor.BuildAll(cmd.Context())
			for _, f := range failed {
				a.log.Warn("term failed during build", "year", f.Year, "term", f.Term, "error", f.Err)
			}
			if err := a.engine.AggregateAll(cmd.Context()); err != nil {
				return err
			}
			if len(failed) > 0 {
				return fmt.Errorf("build finished with %d failed terms", len(failed))
			}
			return nil
		},
	}
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Refresh the newest stored term and probe for the next one",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()

			if err := a.ingestor.UpdateLatest(cmd.Context()); err != nil {
				return err
			}
			return a.engine.AggregateAll(cmd.Context())
		},
	}
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-fetch and re-parse every stored term",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()

			failed := a.ingestor.RefreshAll(cmd.Context())
			for _, f := range failed {
				a.log.Warn("term failed during refresh", "year", f.Year, "term", f.Term, "error", f.Err)
			}
			if err := a.engine.AggregateAll(cmd.Context()); err != nil {
				return err
			}
			if len(failed) > 0 {
				return fmt.Errorf("refresh finished with %d failed terms", len(failed))
			}
			return nil
		},
	}
}

func newImportPagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-pages <file>...",
		Short: "Parse saved course description pages and store them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()

			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				page, err := a.ingestor.ImportPage(cmd.Context(), f)
				f.Close()
				if err != nil {
					return fmt.Errorf("importing %s: %w", path, err)
				}
				a.log.Info("course page imported", "subject", page.Subject, "course_code", page.CourseCode)
			}
			return a.engine.AggregateAll(cmd.Context())
		},
	}
}

func newImportTransfersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-transfers <file>",
		Short: "Load an articulation export and store the transfer agreements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			n, err := a.ingestor.ImportTransfers(cmd.Context(), f)
			f.Close()
			if err != nil {
				return fmt.Errorf("importing %s: %w", args[0], err)
			}
			a.log.Info("transfer agreements imported", "rows", n)
			return a.engine.AggregateAll(cmd.Context())
		},
	}
}

func newAggregateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate",
		Short: "Rebuild every course snapshot from the stored sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()

			return a.engine.AggregateAll(cmd.Context())
		},
	}
}
