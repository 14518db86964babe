package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/TheImagingSource/tiscamera/internal/gige"
	"github.com/TheImagingSource/tiscamera/internal/metrics"
)

var (
	batchNoConfigure bool
	batchBaseAddress string
	batchMetricsFile string
)

var (
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	headingStyle = lipgloss.NewStyle().Bold(true)
)

var batchUploadCmd = &cobra.Command{
	Use:   "batchupload INTERFACE FILENAME",
	Short: "Upload a firmware file to all cameras connected to a network interface",
	Long: `Assigns the cameras on INTERFACE a contiguous address range starting at
the base address, then uploads FILENAME to all of them in parallel. Failed
uploads are retried once, one camera at a time.`,
	Example: `  tcam-gigetool batchupload eth1 firmware.fwpack
  tcam-gigetool batchupload eth1 firmware.fwpack -b 192.168.5.100
  tcam-gigetool batchupload eth1 firmware.fwpack -n --metrics-file /var/lib/node_exporter/gige.prom`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		opts := gige.BatchOptions{
			Interface:       args[0],
			Path:            args[1],
			SkipReconfigure: batchNoConfigure,
			OnStatus:        printBatchStatus,
			OnRetry:         retryPrinter(os.Stdout),
		}
		if batchBaseAddress != "" {
			addr, err := netip.ParseAddr(batchBaseAddress)
			if err != nil || !addr.Is4() {
				fmt.Printf("Invalid base ip address provided: %s\n", batchBaseAddress)
				os.Exit(1)
			}
			opts.BaseAddress = addr
		}

		if _, err := gige.CheckFirmwareFile(opts.Path); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if !assumeYes {
			fmt.Print(firmwareNote)
			if !confirm(os.Stdin, os.Stdout, "Start the update process?") {
				fmt.Println("Aborted.")
				os.Exit(1)
			}
		}

		reg := prometheus.NewRegistry()
		s := setupStack(metrics.NewUploads(reg))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		summary, err := s.coord.BatchUpload(ctx, opts)
		if err != nil {
			if errors.Is(err, gige.ErrNoCameras) {
				fmt.Println("No cameras found to update")
			} else {
				fmt.Printf("Error: %v\n", err)
			}
			os.Exit(1)
		}

		// clear the status line
		fmt.Printf("\r%s\r", strings.Repeat(" ", 79))
		printSummary(os.Stdout, summary)

		if batchMetricsFile != "" {
			if err := prometheus.WriteToTextfile(batchMetricsFile, reg); err != nil {
				fmt.Printf("Error writing metrics: %v\n", err)
			}
		}

		if len(summary.Failed()) > 0 {
			os.Exit(1)
		}
	},
}

func printBatchStatus(st gige.BatchStatus) {
	fmt.Print("\r" + formatBatchStatus(st))
}

func formatBatchStatus(st gige.BatchStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Working:%-3d Remaining:%-3d ", st.Working, st.Remaining)
	for _, p := range st.Progress {
		if p < 0 {
			b.WriteString(" ---  ")
			continue
		}
		fmt.Fprintf(&b, "%-6s", fmt.Sprintf("%d%%", p))
	}
	return b.String()
}

// retryPrinter announces each camera of the sequential retry phase once.
func retryPrinter(w io.Writer) func(*gige.UploadTask, gige.Progress) {
	var current *gige.UploadTask
	return func(t *gige.UploadTask, p gige.Progress) {
		if t != current {
			if current != nil {
				fmt.Fprintln(w)
			}
			current = t
			fmt.Fprintf(w, "Uploading to device: %s\n", t.Identifier)
		}
		fmt.Fprintf(w, "\r%3d%% %s", p.Percent, p.Message)
	}
}

func printSummary(w io.Writer, s *gige.Summary) {
	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("Finished batch %s on %s (%d workers). Update summary:", s.ID, s.Interface, s.Workers)))

	for _, t := range s.Tasks {
		var result string
		switch {
		case t.Err == nil && t.Retried:
			result = warnStyle.Render(fmt.Sprintf("Update completed after retry (first attempt: %v)", t.FirstErr))
		case t.Err == nil:
			result = okStyle.Render("Update completed successfully")
		case errors.Is(t.Err, gige.ErrBatchAborted):
			result = failStyle.Render("Not started, batch aborted")
		default:
			result = failStyle.Render(fmt.Sprintf("Firmware update FAILED! %v", t.Err))
		}
		fmt.Fprintf(w, "Device: %s, completed: %d%%, result: %s\n", t.Identifier, t.Progress(), result)
	}

	if failed := s.Failed(); len(failed) > 0 {
		fmt.Fprintln(w, failStyle.Render(fmt.Sprintf("%d of %d devices failed to update", len(failed), len(s.Tasks))))
	}
}

func init() {
	rootCmd.AddCommand(batchUploadCmd)

	batchUploadCmd.Flags().BoolVarP(&batchNoConfigure, "noconfigure", "n", false, "Do not auto-configure IP addresses before upload")
	batchUploadCmd.Flags().StringVarP(&batchBaseAddress, "baseaddress", "b", "", "Lowest IP address to use for auto-configuration (default x.x.x.10)")
	batchUploadCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	batchUploadCmd.Flags().StringVar(&batchMetricsFile, "metrics-file", "", "Write upload metrics in Prometheus text format to this file")
}
