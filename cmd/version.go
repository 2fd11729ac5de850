package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build metadata, set via -ldflags at release time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		short, _ := cmd.Flags().GetBool("short")
		if short {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "arlock %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit:   %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:    %s\n", date)
		fmt.Fprintf(cmd.OutOrStdout(), "  platform: %s/%s (%s)\n", runtime.GOOS, runtime.GOARCH, runtime.Version())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().Bool("short", false, "Show version number only")
}
