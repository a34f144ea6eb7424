// Package cli holds the lattice command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/lattice-backend/internal/app"
	"github.com/yungbote/lattice-backend/internal/platform/logger"
)

type RootOptions struct {
	LogMode string
	// Overrides applied on top of the environment.
	DBDriver      string
	DSN           string
	CurriculumDir string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "lattice",
		Short:         "Lattice study-progress and spaced-repetition backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.LogMode, "log-mode", "", "development|production (default LOG_MODE)")
	cmd.PersistentFlags().StringVar(&opts.DBDriver, "db-driver", "", "postgres|sqlite (default DB_DRIVER)")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "database DSN or sqlite path")
	cmd.PersistentFlags().StringVar(&opts.CurriculumDir, "curriculum-dir", "", "curriculum root (default CURRICULUM_DIR)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewDueCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// setup builds the logger and the config with flag overrides applied.
func (o *RootOptions) setup() (*logger.Logger, app.Config, error) {
	mode := o.LogMode
	if mode == "" {
		mode = envLogMode()
	}
	log, err := logger.New(mode)
	if err != nil {
		return nil, app.Config{}, fmt.Errorf("init logger: %w", err)
	}
	cfg := app.LoadConfig(log)
	if o.DBDriver != "" {
		cfg.DBDriver = o.DBDriver
	}
	if o.DSN != "" {
		cfg.DSN = o.DSN
	}
	if o.CurriculumDir != "" {
		cfg.CurriculumDir = o.CurriculumDir
	}
	return log, cfg, nil
}
