package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/worklog-hq/worklog-backend/config"
	"github.com/worklog-hq/worklog-backend/internal/activities/domain"
	"github.com/worklog-hq/worklog-backend/internal/activities/repository"
	"github.com/worklog-hq/worklog-backend/internal/activities/service"
	"github.com/worklog-hq/worklog-backend/internal/bootstrap"
	"github.com/worklog-hq/worklog-backend/internal/digest"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "worker",
		Short:         "Background jobs for the worklog backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newDigestCmd(), newScheduleCmd())
	return root
}

func newDigestCmd() *cobra.Command {
	var dateFlag, outDir string

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Write the digest of submitted activities for one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, job, closeDB, err := openJob(ctx, outDir)
			if err != nil {
				return err
			}
			defer closeDB()

			var path string
			if dateFlag == "" {
				path, err = job.RunYesterday(ctx)
			} else {
				var date domain.Date
				date, err = domain.ParseDate(dateFlag)
				if err != nil {
					return fmt.Errorf("--date: %w", err)
				}
				path, err = job.Run(ctx, date)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (tz=%s)\n", path, cfg.App.Timezone)
			return nil
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "day to digest (YYYY-MM-DD), defaults to yesterday")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory, defaults to DIGEST_OUTPUT_DIR")
	return cmd
}

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the nightly digest on DIGEST_SCHEDULE until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, job, closeDB, err := openJob(ctx, "")
			if err != nil {
				return err
			}
			defer closeDB()

			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			s := digest.NewScheduler(job, cfg.Digest.Schedule, loc)
			if err := s.Start(); err != nil {
				return err
			}

			<-ctx.Done()
			log.Println("stopping digest scheduler")
			<-s.Stop().Done()
			return nil
		},
	}
}

// openJob wires the digest job against the activity store. The returned
// func closes the database handle.
func openJob(ctx context.Context, outDir string) (*config.Config, *digest.Job, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, nil, err
	}

	var db *sql.DB
	db, err = bootstrap.OpenSQL(ctx, bootstrap.DBOptions{DSN: cfg.Database.DSN(), MaxConns: 2})
	if err != nil {
		return nil, nil, nil, err
	}

	// The digest never resolves supervisors, so no directory is wired.
	svc := service.NewActivityService(repository.NewActivityRepository(db), nil, service.WithLocation(loc))

	if outDir == "" {
		outDir = cfg.Digest.OutputDir
	}
	return cfg, digest.NewJob(svc, outDir), func() { db.Close() }, nil
}
