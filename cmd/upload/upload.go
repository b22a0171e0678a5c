package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joellti/davassets/cmd"
)

var remoteDir string

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.StringVarP(&remoteDir, "dir", "d", "/", "Remote directory to upload into")
}

var commandDefinition = &cobra.Command{
	Use:   "upload file...",
	Short: `Upload local files to the webdav server.`,
	Long: `
Upload the given local files into the remote directory and print the
public URL of each uploaded file.  Missing remote directories are
created on the way.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1e6, command, args)
		cmd.Run(command, func() error {
			g, err := cmd.NewGateway()
			if err != nil {
				return err
			}
			for _, file := range args {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				result, err := g.Upload(context.Background(), data, filepath.Base(file), remoteDir)
				if err != nil {
					return err
				}
				fmt.Println(result.URL)
			}
			return nil
		})
	},
}
