package cmd

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TheImagingSource/tiscamera/pkg/models"
)

// listColumnCodes holds every character accepted by --format.
const listColumnCodes = "msuingINGfdSMr"

// persistentColumnCodes need a discovery that includes persistent values.
const persistentColumnCodes = "INGdS"

type listColumn struct {
	header string
	value  func(models.CameraRecord) string
}

var listColumns = map[rune]listColumn{
	'm': {"Model Name", func(c models.CameraRecord) string { return c.ModelName }},
	's': {"Serial Number", func(c models.CameraRecord) string { return c.Serial }},
	'u': {"User Defined Name", func(c models.CameraRecord) string { return c.UserDefinedName }},
	'i': {"Current IP", func(c models.CameraRecord) string { return c.CurrentIP }},
	'n': {"Current Netmask", func(c models.CameraRecord) string { return c.CurrentNetmask }},
	'g': {"Current Gateway", func(c models.CameraRecord) string { return c.CurrentGateway }},
	'I': {"Persistent IP", func(c models.CameraRecord) string { return c.PersistentIP }},
	'N': {"Persistent Netmask", func(c models.CameraRecord) string { return c.PersistentNetmask }},
	'G': {"Persistent Gateway", func(c models.CameraRecord) string { return c.PersistentGateway }},
	'f': {"Interface", func(c models.CameraRecord) string { return c.InterfaceName }},
	'd': {"DHCP", func(c models.CameraRecord) string { return yesNo(c.IsDHCPEnabled) }},
	'S': {"Static IP", func(c models.CameraRecord) string { return yesNo(c.IsStaticIP) }},
	'M': {"MAC Address", func(c models.CameraRecord) string { return c.MACAddress }},
	'r': {"Reachable", func(c models.CameraRecord) string { return yesNo(c.IsReachable) }},
}

var listFormat string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected cameras",
	Long: `Lists the cameras found on all interfaces. --format selects the columns,
one character each:

  m  model name          I  persistent IP
  s  serial number       N  persistent netmask
  u  user defined name   G  persistent gateway
  i  current IP          d  DHCP enabled
  n  current netmask     S  static IP enabled
  g  current gateway     M  MAC address
  f  interface           r  reachable`,
	Example: `  tcam-gigetool list
  tcam-gigetool list --format sifr`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		columns, err := parseListFormat(listFormat)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		s := setupStack(nil)
		ctx := cmd.Context()

		persistent := jsonOutput || strings.ContainsAny(listFormat, persistentColumnCodes)
		cameras, err := s.registry.Discover(ctx, persistent)
		if err != nil {
			fmt.Printf("Error discovering cameras: %v\n", err)
			os.Exit(1)
		}
		sortCameras(cameras)

		if jsonOutput {
			printJSON(cameras)
			return
		}
		printList(os.Stdout, columns, cameras)
	},
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func parseListFormat(format string) ([]listColumn, error) {
	if format == "" {
		return nil, fmt.Errorf("empty format")
	}
	columns := make([]listColumn, 0, len(format))
	for _, r := range format {
		col, ok := listColumns[r]
		if !ok {
			return nil, fmt.Errorf("invalid format character %q (valid: %s)", r, listColumnCodes)
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func printList(out io.Writer, columns []listColumn, cameras []models.CameraRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	headers := make([]string, len(columns))
	rules := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.header
		rules[i] = strings.Repeat("-", len(col.header))
	}
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	fmt.Fprintln(w, strings.Join(rules, "\t"))

	values := make([]string, len(columns))
	for _, cam := range cameras {
		for i, col := range columns {
			values[i] = col.value(cam)
		}
		fmt.Fprintln(w, strings.Join(values, "\t"))
	}
	w.Flush()
}

// sortCameras orders by interface, then user defined name, serial and model.
func sortCameras(cameras []models.CameraRecord) {
	slices.SortStableFunc(cameras, func(a, b models.CameraRecord) int {
		// Equivalent to cmp.Or (Go 1.22): first non-zero comparison wins.
		for _, c := range []int{
			cmp.Compare(a.InterfaceName, b.InterfaceName),
			cmp.Compare(a.UserDefinedName, b.UserDefinedName),
			cmp.Compare(a.Serial, b.Serial),
			cmp.Compare(a.ModelName, b.ModelName),
		} {
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listFormat, "format", "msui", "Columns to print, one character each from "+listColumnCodes)
}
