package delete

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/joellti/davassets/cmd"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "delete url...",
	Short: `Delete files from the webdav server by public URL.`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1e6, command, args)
		cmd.Run(command, func() error {
			g, err := cmd.NewGateway()
			if err != nil {
				return err
			}
			for _, url := range args {
				if err := g.Delete(context.Background(), url); err != nil {
					return err
				}
			}
			return nil
		})
	},
}
