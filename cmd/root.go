package cmd

import (
	"github.com/spf13/cobra"

	"github.com/autobrr/tbsync/pkg/config"
)

var (
	// Global flags
	FlagConfigFile = ""
	FlagLogLevel   = 0
)

// RootCommand returns the tbsync root. Without a subcommand it runs a sync.
func RootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tbsync",
		Short: "Sync DMM magnet links to TorBox",
		Long: `A CLI application that imports the magnet links of a Debrid Media Manager
backup into a TorBox account, skipping torrents that already exist there.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSync,
	}

	rootCmd.PersistentFlags().StringVarP(&FlagConfigFile, "config", "c", FlagConfigFile, "Config file (yaml)")
	rootCmd.PersistentFlags().CountVarP(&FlagLogLevel, "verbose", "v", "Verbose level")
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(SyncCommand())
	rootCmd.AddCommand(UpdateCommand())
	rootCmd.AddCommand(VersionCommand())

	return rootCmd
}
