package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/TheImagingSource/tiscamera/internal/gige"
)

var checkControlCmd = &cobra.Command{
	Use:   "check-control IDENTIFIER",
	Short: "Show which application controls the camera",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := setupStack(nil)
		ctx := cmd.Context()
		s.discover(ctx, true)

		info, err := s.ctrl.CheckControl(ctx, args[0])
		if errors.Is(err, gige.ErrCameraUnreachable) {
			fmt.Println("Camera is not reachable")
			os.Exit(1)
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(info)
			return
		}
		printControl(os.Stdout, info)
	},
}

func printControl(w io.Writer, info gige.ControlInfo) {
	if !info.Busy {
		fmt.Fprintln(w, "Camera is not controlled by anyone.")
		return
	}
	fmt.Fprintf(w, "Controlling IP: %s\n", info)
	fmt.Fprintf(w, "Heartbeat Duration: %d µs\n", info.HeartbeatTimeout.Microseconds())
}

func init() {
	rootCmd.AddCommand(checkControlCmd)
}
