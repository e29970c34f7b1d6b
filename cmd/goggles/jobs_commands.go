package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"goggles/internal/config"
	"goggles/internal/daemonrun"
	"goggles/internal/jobs"
	"goggles/internal/logging"
	"goggles/internal/queue"
	"goggles/internal/workflow"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run background jobs once in the foreground",
	}
	jobsCmd.AddCommand(newJobsRunCommand(ctx))
	jobsCmd.AddCommand(newJobsCleanupIssuesCommand(ctx))
	return jobsCmd
}

func newJobsRunCommand(ctx *commandContext) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:       "run [iq|sql|auto]",
		Short:     "Run one import-queue pass with the job retry policy",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(jobs.ModeMicro), string(jobs.ModeMacro), string(jobs.ModeAuto)},
		RunE: func(cmd *cobra.Command, args []string) error {
			var modeArg string
			if len(args) == 1 {
				modeArg = args[0]
			}
			mode, err := jobs.ParseMode(modeArg)
			if err != nil {
				return err
			}
			return runJobOnce(cmd, ctx, verbose, jobs.ImportQueueJobName, func(rt *daemonrun.Runtime) workflow.JobSet {
				return workflow.JobSet{ImportQueue: func(runCtx context.Context) error {
					return rt.ImportQueue.Run(runCtx, mode)
				}}
			})
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	return cmd
}

func newJobsCleanupIssuesCommand(ctx *commandContext) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "cleanup-issues",
		Short: "Delete closed issue reports past the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobOnce(cmd, ctx, verbose, jobs.IssueCleanupJobName, func(rt *daemonrun.Runtime) workflow.JobSet {
				return workflow.JobSet{IssueCleanup: rt.JobSet().IssueCleanup}
			})
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	return cmd
}

func runJobOnce(cmd *cobra.Command, ctx *commandContext, verbose bool, name string, jobSet func(*daemonrun.Runtime) workflow.JobSet) error {
	return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
		logger, err := cliLogger(cfg, verbose)
		if err != nil {
			return err
		}
		rt, err := daemonrun.Assemble(cfg, store, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		manager := workflow.NewManagerWithNotifier(cfg, store, logger, rt.Notifier)
		manager.ConfigureJobs(jobSet(rt))
		if err := manager.RunNow(commandCtx(cmd), name); err != nil {
			return fmt.Errorf("%s failed: %w", name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s completed\n", name)
		return nil
	})
}

func cliLogger(cfg *config.Config, verbose bool) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}
