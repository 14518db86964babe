package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TheImagingSource/tiscamera/internal/gige"
)

var (
	setIP      string
	setNetmask string
	setGateway string
	setName    string
	setMode    string
)

var setCmd = &cobra.Command{
	Use:   "set IDENTIFIER",
	Short: "Permanently set configuration options on the camera",
	Long: `Writes each given option to the camera's persistent storage in the order
ip, netmask, gateway, name, mode. Stops at the first failing write.

--ip, --netmask and --gateway are given together and must describe a host
address on a network of one of the local interfaces.`,
	Example: `  tcam-gigetool set 47000001 --ip 192.168.1.20 --netmask 255.255.255.0 --gateway 0.0.0.0 --mode static
  tcam-gigetool set left --mode dhcp`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		identifier := args[0]

		var mode gige.IPMode
		if setMode != "" {
			m, err := gige.ParseIPMode(setMode)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			mode = m
		}

		var params []gige.Param
		for _, f := range []struct{ key, value string }{
			{gige.KeyIP, setIP},
			{gige.KeyNetmask, setNetmask},
			{gige.KeyGateway, setGateway},
			{gige.KeyName, setName},
		} {
			if cmd.Flags().Changed(f.key) {
				params = append(params, gige.StringParam(f.key, f.value))
			}
		}

		if len(params) == 0 && mode == 0 {
			fmt.Println("Nothing to set.")
			return
		}

		if cmd.Flags().Changed("ip") {
			if err := gige.VerifySettings(setIP, setNetmask, setGateway); err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
		}

		s := setupStack(nil)
		ctx := cmd.Context()
		s.discover(ctx, false)

		for _, p := range params {
			fmt.Printf("%s: %s", p.Key, p.Str)
			if _, err := s.ctrl.SetPersistentParameter(ctx, identifier, p); err != nil {
				fmt.Println(" -> FAILED")
				fmt.Printf("Failed to set parameter '%s': %v\n", p.Key, err)
				os.Exit(1)
			}
			fmt.Println(" -> OK")
		}

		if mode == 0 {
			return
		}

		writes, err := s.ctrl.SetIPMode(ctx, identifier, mode)
		for i, w := range writes {
			fmt.Printf("%s: %d", w.Key, w.Int)
			if err != nil && i == len(writes)-1 {
				fmt.Println(" -> FAILED")
				break
			}
			note := ""
			if w.Int == 0 {
				note = fmt.Sprintf(" (disabling '%s' for '%s')", w.Key, mode)
			}
			fmt.Println(" -> OK" + note)
		}
		if err != nil {
			fmt.Printf("Failed to set mode '%s': %v\n", mode, err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(setCmd)

	setCmd.Flags().StringVar(&setIP, "ip", "", "IP address to be set")
	setCmd.Flags().StringVar(&setNetmask, "netmask", "", "Netmask to be set")
	setCmd.Flags().StringVar(&setGateway, "gateway", "", "Gateway address to be set")
	setCmd.Flags().StringVar(&setName, "name", "", "User defined name")
	setCmd.Flags().StringVar(&setMode, "mode", "", "IP configuration mode: dhcp, static or linklocal")
	setCmd.MarkFlagsRequiredTogether("ip", "netmask", "gateway")
}
