// Package all imports all the commands
package all

import (
	// Active commands
	_ "github.com/joellti/davassets/cmd/check"
	_ "github.com/joellti/davassets/cmd/delete"
	_ "github.com/joellti/davassets/cmd/download"
	_ "github.com/joellti/davassets/cmd/move"
	_ "github.com/joellti/davassets/cmd/obscure"
	_ "github.com/joellti/davassets/cmd/upload"
)
