package main

import (
	"context"

	"github.com/spf13/cobra"
)

func statusCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show playback node status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			node, err := app.targetNode()
			if err != nil {
				return err
			}
			if watch {
				return watchStatus(cmd, app, node)
			}
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			state, err := app.client.GetState(ctx, node)
			if err != nil {
				return err
			}
			return app.printer.Print(state)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "watch status updates")

	return cmd
}

func watchStatus(cmd *cobra.Command, app *app, node string) error {
	ctx := cmd.Context()
	states, err := app.client.WatchState(ctx, node)
	if err != nil {
		return err
	}
	for state := range states {
		if err := app.printer.Print(state); err != nil {
			return err
		}
	}
	return nil
}
