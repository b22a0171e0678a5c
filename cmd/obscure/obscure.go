package obscure

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joellti/davassets/cmd"
	"github.com/joellti/davassets/lib/obscure"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "obscure password",
	Short: `Obscure a password for use in the config file.`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		cmd.Run(command, func() error {
			obscured, err := obscure.Obscure(args[0])
			if err != nil {
				return err
			}
			fmt.Println(obscured)
			return nil
		})
	},
}
