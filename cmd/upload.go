package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/TheImagingSource/tiscamera/internal/gige"
)

var errDeclined = errors.New("aborted by user")

var uploadCmd = &cobra.Command{
	Use:   "upload IDENTIFIER FILENAME",
	Short: "Upload a firmware file to the camera",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		s := setupStack(nil)
		err := runUpload(cmd.Context(), s, args[0], args[1], os.Stdin, os.Stdout, assumeYes)
		switch {
		case errors.Is(err, errDeclined):
			fmt.Println("Aborted.")
			os.Exit(1)
		case err != nil:
			fmt.Printf("Upload failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Upload completed successfully")
	},
}

// runUpload checks the firmware file before any camera is contacted.
func runUpload(ctx context.Context, s *stack, identifier, path string, in io.Reader, out io.Writer, yes bool) error {
	abs, err := gige.CheckFirmwareFile(path)
	if err != nil {
		return err
	}
	if !yes {
		fmt.Fprint(out, firmwareNote)
		if !confirm(in, out, "Start the update process?") {
			return errDeclined
		}
	}

	if _, err := s.registry.Discover(ctx, false); err != nil {
		return fmt.Errorf("discovering cameras: %w", err)
	}

	err = s.coord.Upload(ctx, identifier, abs, func(p gige.Progress) {
		fmt.Fprintf(out, "\r%3d%% %s", p.Percent, p.Message)
	})
	fmt.Fprintln(out)
	return err
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
}
