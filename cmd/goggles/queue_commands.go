package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"goggles/internal/config"
	"goggles/internal/nested"
	"goggles/internal/queue"
	"goggles/internal/solver"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage import queue rows",
	}

	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueAddSQLCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueStatsCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearDoneCommand(ctx))

	return queueCmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var (
		entity      string
		requestPath string
		parentID    int64
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Enqueue a solver row from a JSON or YAML request file",
		RunE: func(cmd *cobra.Command, args []string) error {
			def, ok := solver.Lookup(entity)
			if !ok {
				return fmt.Errorf("unknown entity %q", entity)
			}
			request, err := nested.DecodeFile(requestPath)
			if err != nil {
				return err
			}
			if _, ok := request[def.RootKey()]; !ok {
				request = nested.Map{def.RootKey(): request}
			}
			params := queue.NewRowParams{TargetEntity: def.Tag, Request: request}
			if parentID > 0 {
				params.ParentRowID = &parentID
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				row, err := store.NewRow(commandCtx(cmd), params)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued row %d (%s)\n", row.ID, row.TargetEntity)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&entity, "entity", "e", "", "Target entity tag (e.g. Swimmer, meeting_program)")
	cmd.Flags().StringVarP(&requestPath, "request", "r", "", "Request document (.json, .yml or .yaml)")
	cmd.Flags().Int64Var(&parentID, "parent", 0, "Parent row id")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

func newQueueAddSQLCommand(ctx *commandContext) *cobra.Command {
	var scriptPath string
	cmd := &cobra.Command{
		Use:   "add-sql",
		Short: "Enqueue a batch SQL script for the next macro batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := os.ReadFile(scriptPath)
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			if strings.TrimSpace(string(script)) == "" {
				return errors.New("script is empty")
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				row, err := store.NewRow(commandCtx(cmd), queue.NewRowParams{
					BatchSQL:   true,
					Script:     script,
					ScriptName: filepath.Base(scriptPath),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued batch SQL row %d (%d bytes)\n", row.ID, len(script))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&scriptPath, "file", "f", "", "SQL script to run")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var (
		pending bool
		done    bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pending && done {
				return errors.New("--pending and --done are mutually exclusive")
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				rows, err := store.List(commandCtx(cmd), queue.ListFilter{OnlyPending: pending, OnlyDone: done})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, rowViews(rows))
				}
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				table := make([][]string, 0, len(rows))
				for _, row := range rows {
					parent := ""
					if row.ParentRowID != nil {
						parent = strconv.FormatInt(*row.ParentRowID, 10)
					}
					table = append(table, []string{
						strconv.FormatInt(row.ID, 10),
						row.TargetEntity,
						yesNo(row.Done),
						strconv.Itoa(row.ProcessRuns),
						parent,
						yesNo(row.BatchSQL),
						row.UpdatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Entity", "Done", "Runs", "Parent", "Batch SQL", "Updated"},
					table,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "Only rows not yet done")
	cmd.Flags().BoolVar(&done, "done", false, "Only rows already done")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a queue row with its request and solved data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				row, err := store.GetByID(commandCtx(cmd), id)
				if err != nil {
					return err
				}
				if row == nil {
					return fmt.Errorf("row %d not found", id)
				}
				view := newRowView(row)
				children, err := store.SiblingsOf(commandCtx(cmd), id)
				if err != nil {
					return err
				}
				for _, child := range children {
					view.Children = append(view.Children, child.ID)
				}
				if row.BatchSQL {
					attachment, err := store.Attachment(commandCtx(cmd), id)
					if err != nil {
						return err
					}
					if attachment != nil {
						view.Script = &scriptView{Filename: attachment.Filename, SizeBytes: attachment.SizeBytes}
					}
				}
				return writeJSON(cmd, view)
			})
		},
	}
}

func newQueueStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize queue row counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				stats, err := store.Stats(commandCtx(cmd))
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Total", strconv.Itoa(stats.Total)},
					{"Pending", strconv.Itoa(stats.Pending)},
					{"Done", strconv.Itoa(stats.Done)},
					{"Batch SQL", strconv.Itoa(stats.BatchSQL)},
					{"Child rows", strconv.Itoa(stats.Children)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Rows", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a queue row and its attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				removed, err := store.Remove(commandCtx(cmd), id)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("row %d not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed row %d\n", id)
				return nil
			})
		},
	}
}

func newQueueClearDoneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-done",
		Short: "Delete rows already marked done",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				deleted, err := store.DeleteDone(commandCtx(cmd))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d done rows\n", deleted)
				return nil
			})
		},
	}
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid row id %q", value)
	}
	return id, nil
}
