package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TheImagingSource/tiscamera/internal/gige"
)

var (
	rescueIP      string
	rescueNetmask string
	rescueGateway string
)

var rescueCmd = &cobra.Command{
	Use:   "rescue IDENTIFIER",
	Short: "Temporarily set IP configuration on the camera",
	Long: `Assigns an IP configuration until the camera's next power cycle. Works
on cameras that are not reachable with their current address.

The configuration is checked against the networks of the local interfaces
first. Settings that fail the check are only applied after confirmation.`,
	Example: `  tcam-gigetool rescue 00:07:48:00:00:01 --ip 192.168.1.50 --netmask 255.255.255.0 --gateway 0.0.0.0`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := gige.VerifySettings(rescueIP, rescueNetmask, rescueGateway); err != nil {
			fmt.Println(err)
			if !assumeYes && !confirm(os.Stdin, os.Stdout, "Do you really want to proceed?") {
				os.Exit(1)
			}
		}

		s := setupStack(nil)
		ctx := cmd.Context()
		s.discover(ctx, false)

		if _, err := s.ctrl.Rescue(ctx, args[0], rescueIP, rescueNetmask, rescueGateway); err != nil {
			fmt.Printf("Error: rescue failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Assigned %s/%s (gateway %s) to %s\n", rescueIP, rescueNetmask, rescueGateway, args[0])
	},
}

func init() {
	rootCmd.AddCommand(rescueCmd)

	rescueCmd.Flags().StringVar(&rescueIP, "ip", "", "Temporary IP address to be assigned")
	rescueCmd.Flags().StringVar(&rescueNetmask, "netmask", "", "Temporary netmask to be assigned")
	rescueCmd.Flags().StringVar(&rescueGateway, "gateway", "", "Temporary gateway address to be assigned")
	rescueCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Apply settings that fail verification without asking")
	_ = rescueCmd.MarkFlagRequired("ip")
	_ = rescueCmd.MarkFlagRequired("netmask")
	_ = rescueCmd.MarkFlagRequired("gateway")
}
