package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"goggles/internal/config"
	"goggles/internal/logging"
	"goggles/internal/maintenance"
	"goggles/internal/queue"
)

func newMaintenanceCommand(ctx *commandContext) *cobra.Command {
	maintenanceCmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Read or toggle the maintenance flag",
	}

	maintenanceCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether maintenance mode is on",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFlag(ctx, func(flag *maintenance.Flag) error {
				on, err := flag.Enabled(commandCtx(cmd))
				if err != nil {
					return err
				}
				state := "off"
				if on {
					state = "on"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Maintenance: %s\n", state)
				return nil
			})
		},
	})
	for _, toggle := range []struct {
		use     string
		enabled bool
	}{{"on", true}, {"off", false}} {
		maintenanceCmd.AddCommand(&cobra.Command{
			Use:   toggle.use,
			Short: fmt.Sprintf("Turn maintenance mode %s", toggle.use),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withFlag(ctx, func(flag *maintenance.Flag) error {
					if err := flag.Set(commandCtx(cmd), toggle.enabled); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Maintenance turned %s\n", toggle.use)
					return nil
				})
			},
		})
	}
	return maintenanceCmd
}

func withFlag(ctx *commandContext, fn func(*maintenance.Flag) error) error {
	return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
		return fn(maintenance.New(store, logging.NewNop()))
	})
}
