package download

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joellti/davassets/cmd"
)

var destDir string

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.StringVarP(&destDir, "dest", "d", "", "Folder inside the vault to download into")
}

var commandDefinition = &cobra.Command{
	Use:   "download url...",
	Short: `Download files from the webdav server by public URL.`,
	Long: `
Download the files behind the given public URLs into the local vault,
de-duplicating names against existing files, and print the local path
of each one.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1e6, command, args)
		cmd.Run(command, func() error {
			g, err := cmd.NewGateway()
			if err != nil {
				return err
			}
			for _, url := range args {
				local, err := g.Download(context.Background(), url, destDir)
				if err != nil {
					return err
				}
				fmt.Println(local)
			}
			return nil
		})
	},
}
