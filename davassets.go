// Sync attachments to and from a webdav server
package main

import (
	"github.com/joellti/davassets/cmd"
	_ "github.com/joellti/davassets/cmd/all" // import all commands
)

func main() {
	cmd.Main()
}
