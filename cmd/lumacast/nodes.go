package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/stagelight/lumacast/internal/adapters/output"
)

func nodesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "List playback nodes on the bus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			nodes, err := app.client.ListPresence(ctx)
			if err != nil {
				return err
			}
			return app.printer.Print(output.NodesOutput{Nodes: nodes})
		},
	}
}
