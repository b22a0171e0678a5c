package move

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/joellti/davassets/cmd"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "move oldpath newpath",
	Short: `Rename a file on the webdav server.`,
	Long: `
Move oldpath to newpath on the server.  The move refuses to overwrite
an existing destination.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(2, 2, command, args)
		cmd.Run(command, func() error {
			g, err := cmd.NewGateway()
			if err != nil {
				return err
			}
			return g.Rename(context.Background(), args[0], args[1])
		})
	},
}
