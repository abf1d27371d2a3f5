// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configFile is the global --config flag shared by every subcommand.
var configFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "strix",
	Short: "Strix - transport-layer packet codec engine for intrusion detection",
	Long: `Strix is a network sensor built around a TCP transport codec: it captures
traffic, validates and decodes TCP headers and options, raises protocol
anomaly events used as detection signals, and - when configured inline -
forges RST/FIN/PUSH response segments to disturb hostile sessions.

Features:
  - Strict TCP decode: bounds checks, option traversal, pseudo-header checksums
  - 20-event anomaly taxonomy (xmas scans, SYN floods, port zero, ...)
  - Active response: bit-exact forged segments for session teardown
  - AF_PACKET v3 live capture or libpcap savefile replay
  - Prometheus metrics and structured logging`,
	Version:      "0.1.0",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/strix/config.yml",
		"config file path")
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
