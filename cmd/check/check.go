package check

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/joellti/davassets/cmd"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "check",
	Short: `Check the connection to the configured webdav server.`,
	Long: `
Probe the configured server with a PROPFIND and report whether the
URL and credentials work.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		cmd.Run(command, func() error {
			g, err := cmd.NewGateway()
			if err != nil {
				return err
			}
			if msg := g.TestConnection(context.Background()); msg != "" {
				return errors.New(msg)
			}
			fmt.Println("webdav server is reachable")
			return nil
		})
	},
}
