package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		revision := "unknown"
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					revision = s.Value
				}
			}
		}

		if jsonOutput {
			printJSON(map[string]string{"version": Version, "revision": revision})
			return
		}
		fmt.Printf("%-24s%s\n", "tcam-gigetool version:", Version)
		fmt.Printf("%-24s%s\n", "git revision:", revision)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
