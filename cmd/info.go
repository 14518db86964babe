package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/TheImagingSource/tiscamera/internal/gige"
	"github.com/TheImagingSource/tiscamera/pkg/models"
)

var infoCmd = &cobra.Command{
	Use:   "info IDENTIFIER",
	Short: "Show details of a camera",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := setupStack(nil)
		ctx := cmd.Context()
		s.discover(ctx, false)

		cam, err := s.registry.Details(ctx, args[0])
		if err != nil {
			if errors.Is(err, gige.ErrCameraNotFound) || errors.Is(err, gige.ErrAmbiguousIdentifier) {
				fmt.Printf("Error: %v\n", err)
			} else {
				fmt.Printf("Error fetching camera details: %v\n", err)
			}
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(cam)
			return
		}
		printInfo(os.Stdout, cam)
	},
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

// printInfo shows the values the camera reports over discovery. Values read
// from the camera itself are only shown for a reachable camera.
func printInfo(w io.Writer, cam models.CameraRecord) {
	if !cam.IsReachable {
		fmt.Fprintln(w, "Camera is currently not reachable!")
		fmt.Fprintln(w, "To enable full communication set IP configuration via rescue.")
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%-16s%s\n", "Model:", cam.ModelName)
	fmt.Fprintf(w, "%-16s%s\n", "Serial:", cam.Serial)
	if cam.IsReachable {
		fmt.Fprintf(w, "%-16s%s\n", "Firmware:", cam.FirmwareVersion)
		fmt.Fprintf(w, "%-16s%s\n", "UserName:", cam.UserDefinedName)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-30s%s\n", "MAC Address:", cam.MACAddress)
	fmt.Fprintf(w, "%-30s%s\n", "Current IP:", cam.CurrentIP)
	fmt.Fprintf(w, "%-30s%s\n", "Current Netmask:", cam.CurrentNetmask)
	fmt.Fprintf(w, "%-30s%s\n", "Current Gateway:", cam.CurrentGateway)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-16s%s\n", "DHCP is:", enabled(cam.IsDHCPEnabled))
	fmt.Fprintf(w, "%-16s%s\n", "Static is:", enabled(cam.IsStaticIP))
	if !cam.IsReachable {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-30s%s\n", "Persistent IP:", cam.PersistentIP)
	fmt.Fprintf(w, "%-30s%s\n", "Persistent Netmask:", cam.PersistentNetmask)
	fmt.Fprintf(w, "%-30s%s\n", "Persistent Gateway:", cam.PersistentGateway)
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
