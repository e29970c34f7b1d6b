package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"goggles/internal/config"
	"goggles/internal/preflight"
	"goggles/internal/queue"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var primary bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, binaries and databases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				results := preflight.RunAll(commandCtx(cmd), cfg, store, preflight.Options{PrimaryDatabase: primary})
				out := cmd.OutOrStdout()
				rows := make([][]string, 0, len(results))
				for _, result := range results {
					rows = append(rows, []string{result.Name, passFail(out, result.Passed), result.Detail})
				}
				fmt.Fprint(out, sectionHeader(out, "Dependencies"))
				fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
				if failed := preflight.Failed(results); len(failed) > 0 {
					return fmt.Errorf("%d check(s) failed", len(failed))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&primary, "primary", false, "Also connect to the primary datastore")
	return cmd
}
