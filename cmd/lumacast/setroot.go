package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/stagelight/lumacast/pkg/show"
)

func setRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-root <path>",
		Short: "Swap the node's media root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			node, err := app.targetNode()
			if err != nil {
				return err
			}

			envelope, err := show.NewCommand("config.set", show.ConfigSetBody{MediaRoot: args[0]})
			if err != nil {
				return err
			}
			envelope.ID = app.idgen.NewID()
			envelope.TS = time.Now().Unix()
			envelope.From = app.identity

			if err := app.client.PublishCommand(node, envelope); err != nil {
				return err
			}
			return app.printer.Print("ok")
		},
	}
}
