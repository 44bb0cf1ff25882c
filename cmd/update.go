package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	"github.com/autobrr/tbsync/pkg/runtime"
)

const releaseRepository = "autobrr/tbsync"

func UpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Update to latest version",
		Long:  `This command can be used to self-update to the latest version.`,

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			// detect latest version
			fmt.Fprintln(out, "Checking for the latest version...")
			latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(releaseRepository))
			if err != nil {
				return fmt.Errorf("failed determining latest available version: %w", err)
			}

			// check version
			if !found || latest.LessOrEqual(runtime.Version) {
				fmt.Fprintf(out, "Already using the latest version: %v\n", runtime.Version)
				return nil
			}

			// ask update
			fmt.Fprintf(out, "Do you want to update to the latest version: %v? (y/n):\n", latest.Version())
			input, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil || (input != "y\n" && input != "n\n") {
				return fmt.Errorf("failed validating input")
			} else if input == "n\n" {
				return nil
			}

			// get existing executable path
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("failed locating current executable path: %w", err)
			}

			if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
				return fmt.Errorf("failed updating existing binary to latest release: %w", err)
			}

			fmt.Fprintf(out, "Successfully updated to the latest version: %v\n", latest.Version())
			return nil
		},
	}
}
