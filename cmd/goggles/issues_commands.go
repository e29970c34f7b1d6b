package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"goggles/internal/config"
	"goggles/internal/queue"
)

func newIssuesCommand(ctx *commandContext) *cobra.Command {
	issuesCmd := &cobra.Command{
		Use:   "issues",
		Short: "Manage issue reports",
	}
	issuesCmd.AddCommand(newIssuesAddCommand(ctx))
	issuesCmd.AddCommand(newIssuesListCommand(ctx))
	issuesCmd.AddCommand(newIssuesStatusCommand(ctx))
	return issuesCmd
}

func newIssuesAddCommand(ctx *commandContext) *cobra.Command {
	var code, description string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "File a new issue report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(code) == "" {
				return errors.New("--code is required")
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				issue, err := store.NewIssue(commandCtx(cmd), code, description)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Filed issue %d (%s)\n", issue.ID, issue.Status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "Issue type code")
	cmd.Flags().StringVar(&description, "description", "", "Free-form description")
	return cmd
}

func newIssuesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List issue reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				issues, err := store.ListIssues(commandCtx(cmd))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(issues) == 0 {
					fmt.Fprintln(out, "No issues")
					return nil
				}
				rows := make([][]string, 0, len(issues))
				for _, issue := range issues {
					rows = append(rows, []string{
						strconv.FormatInt(issue.ID, 10),
						issue.Code,
						issue.Status.String(),
						yesNo(issue.Status.Deletable()),
						issue.UpdatedAt.Local().Format(time.DateTime),
						issue.Description,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Code", "Status", "Closed", "Updated", "Description"},
					rows,
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}
}

func newIssuesStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Move an issue to new, review, accepted, paused, solved or rejected",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := queue.ParseIssueStatus(args[1])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				if err := store.UpdateIssueStatus(commandCtx(cmd), id, status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Issue %d is now %s\n", id, status)
				return nil
			})
		},
	}
}
