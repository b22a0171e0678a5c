// Package cmd implements the davassets command line.
//
// Each subcommand lives in its own package which registers itself
// with Root from an init function; cmd/all imports them all.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/joellti/davassets/assets"
	"github.com/joellti/davassets/assets/localstore"
	"github.com/joellti/davassets/config"
	"github.com/joellti/davassets/webdav"
)

var (
	configPath string
	verbose    bool
)

// Root is the main davassets command
var Root = &cobra.Command{
	Use:   "davassets",
	Short: "Sync attachments with a webdav server",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	flags := Root.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", defaultConfigPath(), "Path to the config file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "davassets.conf"
	}
	return filepath.Join(home, ".davassets.conf")
}

// NewGateway builds the gateway the subcommands run against from the
// configured settings
func NewGateway() (*assets.Gateway, error) {
	s, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	client, err := webdav.NewClient(s.ClientOptions())
	if err != nil {
		return nil, err
	}
	return assets.NewGateway(client, s.URLConfig(), localstore.New(s.Vault)), nil
}

// CheckArgs checks there are enough command line arguments and prints
// a fatal error if not
func CheckArgs(MinArgs, MaxArgs int, cmd *cobra.Command, args []string) {
	if len(args) < MinArgs {
		_ = cmd.Usage()
		logrus.Fatalf("Command %s needs %d arguments minimum: you provided %d non flag arguments: %q", cmd.Name(), MinArgs, len(args), args)
	}
	if len(args) > MaxArgs {
		_ = cmd.Usage()
		logrus.Fatalf("Command %s needs %d arguments maximum: you provided %d non flag arguments: %q", cmd.Name(), MaxArgs, len(args), args)
	}
}

// Run executes f for cmd and exits non-zero on failure
func Run(cmd *cobra.Command, f func() error) {
	if err := f(); err != nil {
		logrus.Fatalf("%s failed: %v", cmd.Name(), err)
	}
}

// Main runs the root command - it is called from the main package
func Main() {
	if err := Root.Execute(); err != nil {
		logrus.Fatalf("fatal error: %v", err)
	}
}
