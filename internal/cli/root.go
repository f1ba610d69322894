// Package cli wires the engine into the langsync command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "langsync",
	Short: "Translation component synchronization engine",
	Long: `langsync keeps translation entities in sync with the files in
component checkouts: it admits new languages, reconciles entities
against the working tree and serves the result over HTTP.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./langsync.toml)")
}
