package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TheImagingSource/tiscamera/internal/config"
)

var cfgFile string
var jsonOutput bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tcam-gigetool",
	Short: "The Imaging Source Gigabit Ethernet camera configuration tool",
	Long: `List, configure, rescue and update firmware on GigE cameras.

Cameras are addressed by serial number, user defined name or MAC address.
All device access goes through the gige daemon given by --bridge-url.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() { config.InitConfig(cfgFile) })

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tcam-gigetool.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	rootCmd.PersistentFlags().String("bridge-url", "", "Base URL of the gige daemon (overrides bridge.url)")

	_ = viper.BindPFlag("bridge.url", rootCmd.PersistentFlags().Lookup("bridge-url"))
}
