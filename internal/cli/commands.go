package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/lattice-backend/internal/app"
	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/platform/envutil"
)

func envLogMode() string { return envutil.String("LOG_MODE", "development") }

func NewServeCommand(root *RootOptions) *cobra.Command {
	var (
		port  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := root.setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			if port != "" {
				cfg.Port = port
			}
			if cmd.Flags().Changed("watch") {
				cfg.CurriculumWatch = watch
			}

			a, err := app.New(log, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			a.Start()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default PORT)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the curriculum on file changes")
	return cmd
}

func NewMigrateCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := root.setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			svc, err := app.OpenDB(log, cfg)
			if err != nil {
				return err
			}
			defer svc.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func NewDueCommand(root *RootOptions) *cobra.Command {
	var (
		user   string
		asOf   string
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List a learner's problems due for review",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(user)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			var cutoff *time.Time
			if asOf != "" {
				t, err := time.Parse(time.RFC3339, asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of: %w", err)
				}
				cutoff = &t
			}

			log, cfg, err := root.setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			svc, err := app.OpenDB(log, cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			uc := app.NewStudyUsecases(svc.DB(), log, cfg)
			due, err := uc.QueryDueReviews(context.Background(), userID, cutoff, limit)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(due)
			}
			return printDue(cmd.OutOrStdout(), due, cfg.StudyTimezone)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "learner id (uuid)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "cutoff as RFC3339 (default end of today)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max rows, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printDue(out io.Writer, due []types.DueReview, loc *time.Location) error {
	if len(due) == 0 {
		_, err := fmt.Fprintln(out, "No problems due.")
		return err
	}
	if loc == nil {
		loc = time.UTC
	}
	fmt.Fprintf(out, "%d problems due:\n\n", len(due))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Problem\tDifficulty\tNext Review\tInterval\tEase")
	for _, d := range due {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1fd\t%.2f\n",
			d.Problem.Title,
			d.Problem.Difficulty,
			d.Schedule.NextReviewAt.In(loc).Format("2006-01-02 15:04"),
			d.Schedule.IntervalDays,
			d.Schedule.EaseFactor,
		)
	}
	return w.Flush()
}

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.Version)
		},
	}
}
